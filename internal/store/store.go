// Package store provides SQLite persistence for authors, tweets and the
// weekly rollover marker. NOT an interface - concrete type.
// Thread-safety: all methods are safe for concurrent use via internal mutex;
// the ingestion cycle is the only writer, the HTTP read path has many readers.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/redboard/mentions-tracker/internal/models"
)

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a new Store at the given database path, creating tables if
// they don't exist. Uses WAL mode for file-based databases; ":memory:" is
// supported for tests.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every connection in the pool sees the same
		// in-memory database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS authors (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		name TEXT,
		profile_image_url TEXT,
		profile_banner_url TEXT,
		followers_count INTEGER DEFAULT 0,
		description TEXT,
		verified INTEGER DEFAULT 0,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tweets (
		id TEXT PRIMARY KEY,
		author_id TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		likes_count INTEGER DEFAULT 0,
		retweets_count INTEGER DEFAULT 0,
		replies_count INTEGER DEFAULT 0,
		views_count INTEGER DEFAULT 0,
		url TEXT,
		is_reply INTEGER DEFAULT 0,
		fetched_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS weekly_reset (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		last_reset DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tweets_author ON tweets(author_id);
	CREATE INDEX IF NOT EXISTS idx_tweets_created ON tweets(created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	// Seed the single rollover row with the zero time so the first ingestion
	// cycle performs a (trivial) rollover and stamps the real instant.
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO weekly_reset (id, last_reset) VALUES (1, ?)",
		time.Time{},
	)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// UpsertAuthor inserts the author or overwrites every non-identity field of
// the existing row, refreshing updated_at. Constraint violations (duplicate
// handle, etc.) are logged and swallowed so a bad profile never aborts the
// surrounding ingestion batch.
func (s *Store) UpsertAuthor(a models.Author) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO authors (
			id, username, name, profile_image_url, profile_banner_url,
			followers_count, description, verified, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			name = excluded.name,
			profile_image_url = excluded.profile_image_url,
			profile_banner_url = excluded.profile_banner_url,
			followers_count = excluded.followers_count,
			description = excluded.description,
			verified = excluded.verified,
			updated_at = excluded.updated_at
	`,
		a.ID, a.Username, a.Name, a.ProfileImageURL, a.ProfileBannerURL,
		a.FollowersCount, a.Description, boolToInt(a.Verified), time.Now().UTC(),
	)
	if err != nil {
		logrus.Warnf("Skipping author %s (%s): %v", a.Username, a.ID, err)
	}
}

// UpsertTweet inserts the tweet or, when the id already exists, refreshes
// only the four engagement counters and fetched_at. Text, creation time,
// author reference and the reply flag are immutable after first insert.
// Returns whether a new row was created.
func (s *Store) UpsertTweet(t models.Tweet) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM tweets WHERE id = ?)", t.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check tweet %s: %w", t.ID, err)
	}

	fetched := t.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}

	if exists {
		_, err = s.db.Exec(`
			UPDATE tweets SET
				likes_count = ?, retweets_count = ?, replies_count = ?,
				views_count = ?, fetched_at = ?
			WHERE id = ?
		`, t.LikesCount, t.RetweetsCount, t.RepliesCount, t.ViewsCount, fetched.UTC(), t.ID)
		if err != nil {
			return false, fmt.Errorf("update tweet %s: %w", t.ID, err)
		}
		return false, nil
	}

	_, err = s.db.Exec(`
		INSERT INTO tweets (
			id, author_id, text, created_at, likes_count, retweets_count,
			replies_count, views_count, url, is_reply, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.AuthorID, t.Text, t.CreatedAt.UTC(), t.LikesCount, t.RetweetsCount,
		t.RepliesCount, t.ViewsCount, t.URL, boolToInt(t.IsReply), fetched.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert tweet %s: %w", t.ID, err)
	}
	return true, nil
}

// DeleteAllTweets clears the tweet set. Authors are deliberately untouched
// so profile lookups stay warm across weekly resets.
func (s *Store) DeleteAllTweets() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM tweets"); err != nil {
		return fmt.Errorf("delete tweets: %w", err)
	}
	return nil
}

// LastRollover returns the instant of the last weekly reset.
func (s *Store) LastRollover() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last time.Time
	err := s.db.QueryRow("SELECT last_reset FROM weekly_reset WHERE id = 1").Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("read last rollover: %w", err)
	}
	return last, nil
}

// SetLastRollover advances the stored rollover instant. The guard keeps it
// monotonically non-decreasing.
func (s *Store) SetLastRollover(at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"UPDATE weekly_reset SET last_reset = ? WHERE id = 1 AND last_reset <= ?",
		at.UTC(), at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("set last rollover: %w", err)
	}
	return nil
}

// CountTweets returns the number of stored non-reply tweets; used by the
// health endpoint.
func (s *Store) CountTweets() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM tweets WHERE is_reply = 0").Scan(&n)
	return n, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool { return i != 0 }
