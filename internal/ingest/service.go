// Package ingest runs the periodic refresh cycle: rollover check, paginated
// searches against the upstream API, relevance classification, and upserts
// into the store. It is the store's only writer.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/redboard/mentions-tracker/internal/classify"
	"github.com/redboard/mentions-tracker/internal/config"
	"github.com/redboard/mentions-tracker/internal/models"
	"github.com/redboard/mentions-tracker/internal/store"
	"github.com/redboard/mentions-tracker/internal/twitter"
	"github.com/redboard/mentions-tracker/internal/window"
)

// Client is the slice of the upstream API the ingestion cycle consumes.
type Client interface {
	Enabled() bool
	SearchRecent(ctx context.Context, query, cursor string) (*twitter.Page, error)
	UserByHandle(ctx context.Context, handle string) (*models.Author, error)
	UserTweets(ctx context.Context, userID, cursor string) (*twitter.Page, error)
}

// Service orchestrates ingestion. The cycle limiter enforces the cool-down
// between every paginated request; cache-miss lookups triggered by the read
// path run on their own limiter so the two budgets never interfere.
type Service struct {
	cfg           *config.Config
	client        Client
	store         *store.Store
	rules         classify.Rules
	limiter       *rate.Limiter
	lookupLimiter *rate.Limiter
	now           func() time.Time
}

// NewService creates the ingestion service.
func NewService(cfg *config.Config, client Client, st *store.Store, rules classify.Rules) *Service {
	return &Service{
		cfg:           cfg,
		client:        client,
		store:         st,
		rules:         rules,
		limiter:       rate.NewLimiter(rate.Every(cfg.RequestCooldown), 1),
		lookupLimiter: rate.NewLimiter(rate.Every(cfg.LookupCooldown), 1),
		now:           time.Now,
	}
}

// RunCycle performs one full refresh: rollover check, then every configured
// search query in order, then (optionally) the author counter-refresh pass.
// Individual request failures abort only their query; the cycle carries on.
func (s *Service) RunCycle(ctx context.Context) error {
	start := s.now()
	logrus.Info("Starting refresh cycle")

	// The rollover check must complete before any batch begins so a stale
	// window never absorbs post-rollover data.
	if err := s.checkRollover(); err != nil {
		return fmt.Errorf("rollover check: %w", err)
	}

	if !s.client.Enabled() {
		logrus.Warn("No bearer token configured - skipping ingestion cycle")
		return nil
	}

	created, updated := 0, 0
	for _, query := range s.cfg.Queries {
		c, u := s.runQuery(ctx, query)
		created += c
		updated += u
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if s.cfg.RefreshAuthorCounters {
		c, u := s.refreshAuthorCounters(ctx)
		created += c
		updated += u
	}

	logrus.Infof("Refresh cycle complete in %v: %d new tweets, %d updated", time.Since(start), created, updated)
	return nil
}

func (s *Service) checkRollover() error {
	last, err := s.store.LastRollover()
	if err != nil {
		return err
	}

	now := s.now()
	if !window.NeedsRollover(last, now) {
		return nil
	}

	logrus.Infof("New week detected (last rollover %v) - clearing tweets", last)
	if err := s.store.DeleteAllTweets(); err != nil {
		return err
	}
	if err := s.store.SetLastRollover(now); err != nil {
		return err
	}
	logrus.Info("Weekly rollover complete")
	return nil
}

// runQuery paginates one search query up to MaxPagesPerQuery, classifying
// and upserting each page. Returns created and updated counts.
func (s *Service) runQuery(ctx context.Context, query string) (created, updated int) {
	cursor := ""
	for pageNum := 0; pageNum < s.cfg.MaxPagesPerQuery; pageNum++ {
		// The cool-down applies before every upstream request, error paths
		// included; it is the sole rate-limit mechanism on this path.
		if err := s.limiter.Wait(ctx); err != nil {
			return created, updated
		}

		page, err := s.client.SearchRecent(ctx, query, cursor)
		if err != nil {
			logrus.Errorf("Search %q page %d failed: %v", query, pageNum+1, err)
			return created, updated
		}

		c, u := s.ingestPage(page)
		created += c
		updated += u

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}
	return created, updated
}

// ingestPage upserts a page's expanded author profiles, then classifies and
// upserts its tweets. A single bad row is skipped, never fatal.
func (s *Service) ingestPage(page *twitter.Page) (created, updated int) {
	handles := make(map[string]string, len(page.Authors))
	for _, author := range page.Authors {
		handles[author.ID] = author.Username
		s.store.UpsertAuthor(author)
	}

	for _, tweet := range page.Tweets {
		if !s.rules.Classify(tweet.Text, handles[tweet.AuthorID]) {
			continue
		}

		isNew, err := s.store.UpsertTweet(tweet)
		if err != nil {
			logrus.Warnf("Skipping tweet %s: %v", tweet.ID, err)
			continue
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated
}

// refreshAuthorCounters revisits the timeline of every author holding a
// non-reply tweet in the current window. Engagement counters can move after
// a tweet was first seen; the latest fetched values always win, even when
// lower than what is stored.
func (s *Service) refreshAuthorCounters(ctx context.Context) (created, updated int) {
	authors, err := s.store.ActiveAuthors(window.Start(s.now()))
	if err != nil {
		logrus.Errorf("Counter refresh skipped: %v", err)
		return 0, 0
	}

	logrus.Infof("Refreshing counters for %d active authors", len(authors))
	for _, author := range authors {
		if err := s.limiter.Wait(ctx); err != nil {
			return created, updated
		}

		page, err := s.client.UserTweets(ctx, author.ID, "")
		if err != nil {
			logrus.Errorf("Timeline refresh for @%s failed: %v", author.Username, err)
			continue
		}

		c, u := s.ingestTimeline(page, author)
		created += c
		updated += u
	}
	return created, updated
}

// LookupAuthor is the read path's cache-miss escalation: fetch the profile
// live, store it, and ingest one timeline page so the author shows up with
// their window activity on the next query. Runs on its own rate budget.
func (s *Service) LookupAuthor(ctx context.Context, handle string) (*models.Author, error) {
	if !s.client.Enabled() {
		return nil, twitter.ErrNotFound
	}

	if err := s.lookupLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	author, err := s.client.UserByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	s.store.UpsertAuthor(*author)

	if err := s.lookupLimiter.Wait(ctx); err != nil {
		return author, nil
	}
	page, err := s.client.UserTweets(ctx, author.ID, "")
	if err != nil {
		logrus.Warnf("Timeline fetch for looked-up author %s failed: %v", handle, err)
		return author, nil
	}

	created, updated := s.ingestTimeline(page, *author)
	logrus.Infof("Lookup of %s ingested %d new, %d updated tweets", handle, created, updated)
	return author, nil
}

// ingestTimeline classifies and upserts a timeline page. Timeline responses
// carry no expanded author profiles, so the owning author is passed in.
func (s *Service) ingestTimeline(page *twitter.Page, author models.Author) (created, updated int) {
	for _, tweet := range page.Tweets {
		if !s.rules.Classify(tweet.Text, author.Username) {
			continue
		}

		isNew, err := s.store.UpsertTweet(tweet)
		if err != nil {
			logrus.Warnf("Skipping tweet %s: %v", tweet.ID, err)
			continue
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated
}
