// Package price fetches and caches the tracked token's USD quote. The quote
// is decoration for the dashboard; a failed refresh keeps serving the
// previous value rather than surfacing an error.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/redboard/mentions-tracker/internal/models"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Service periodically refreshes a single price quote from CoinGecko.
type Service struct {
	coinID  string
	baseURL string
	client  *resty.Client

	mu    sync.RWMutex
	quote *models.Quote
}

// NewService creates a price service for the given CoinGecko coin id.
func NewService(coinID string) *Service {
	return &Service{
		coinID:  coinID,
		baseURL: defaultBaseURL,
		client: resty.New().
			SetTimeout(10 * time.Second).
			SetHeader("User-Agent", "RedBoard-Mentions-Tracker/1.0"),
	}
}

// SetBaseURL points the service at a different API host; used by tests.
func (s *Service) SetBaseURL(u string) {
	s.baseURL = u
}

// Refresh fetches a fresh quote. On failure the cached quote is retained.
func (s *Service) Refresh(ctx context.Context) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":                 s.coinID,
			"vs_currencies":       "usd",
			"include_24hr_change": "true",
		}).
		Get(s.baseURL + "/simple/price")
	if err != nil {
		return fmt.Errorf("price request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("price endpoint returned status %d", resp.StatusCode())
	}

	var payload map[string]struct {
		USD       float64 `json:"usd"`
		Change24h float64 `json:"usd_24h_change"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return fmt.Errorf("parse price response: %w", err)
	}

	coin, ok := payload[s.coinID]
	if !ok {
		return fmt.Errorf("price response missing coin %q", s.coinID)
	}

	s.mu.Lock()
	s.quote = &models.Quote{
		USD:       coin.USD,
		Change24h: coin.Change24h,
		UpdatedAt: time.Now().UTC(),
	}
	s.mu.Unlock()

	logrus.Debugf("Price refreshed: $%.4f", coin.USD)
	return nil
}

// Quote returns the cached quote, or nil when none has been fetched yet.
func (s *Service) Quote() *models.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quote
}
