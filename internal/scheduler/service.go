package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/redboard/mentions-tracker/internal/config"
	"github.com/redboard/mentions-tracker/internal/ingest"
	"github.com/redboard/mentions-tracker/internal/price"
)

// Service schedules the two periodic tasks: the ingestion refresh cycle and
// the much shorter-period price refresh. Both run on a shared cron; the
// first refresh cycle fires once shortly after startup.
type Service struct {
	cfg     *config.Config
	ingest  *ingest.Service
	price   *price.Service
	cron    *cron.Cron
	kickoff *time.Timer
}

// NewService creates a new scheduler service.
func NewService(cfg *config.Config, ingestService *ingest.Service, priceService *price.Service) *Service {
	return &Service{
		cfg:    cfg,
		ingest: ingestService,
		price:  priceService,
		cron:   cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled tasks.
func (s *Service) Start() error {
	_, err := s.cron.AddFunc("@every "+s.cfg.RefreshInterval.String(), s.runIngest)
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc("@every "+s.cfg.PriceRefreshInterval.String(), s.runPrice)
	if err != nil {
		return err
	}

	// One refresh shortly after boot so the dashboard is not empty until
	// the first full interval elapses.
	s.kickoff = time.AfterFunc(s.cfg.StartupDelay, func() {
		s.runPrice()
		s.runIngest()
	})

	s.cron.Start()
	logrus.Infof("Scheduler started: refresh every %v, price every %v",
		s.cfg.RefreshInterval, s.cfg.PriceRefreshInterval)
	return nil
}

// Stop stops the scheduler.
func (s *Service) Stop() {
	if s.kickoff != nil {
		s.kickoff.Stop()
	}
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}

func (s *Service) runIngest() {
	if err := s.ingest.RunCycle(context.Background()); err != nil {
		logrus.Errorf("Scheduled refresh cycle failed: %v", err)
	}
}

func (s *Service) runPrice() {
	if err := s.price.Refresh(context.Background()); err != nil {
		logrus.Debugf("Price refresh failed: %v", err)
	}
}
