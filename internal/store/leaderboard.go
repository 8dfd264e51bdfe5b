package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/redboard/mentions-tracker/internal/models"
)

// scoreExpr is the composite engagement score over a per-author group.
// The same expression backs the full leaderboard and per-author rank so the
// two can never disagree.
const scoreExpr = `(COALESCE(SUM(t.likes_count), 0) * 3 +
	COALESCE(SUM(t.retweets_count), 0) * 5 +
	COALESCE(SUM(t.views_count), 0) * 0.01 +
	COUNT(t.id) * 10)`

// Ranking only ever considers non-reply tweets inside the current window,
// and the inner join drops tweets whose author row went missing. The
// secondary sort key (author id ascending) makes equal-score ordering
// deterministic.
const rankedAuthorsQuery = `
	SELECT u.id, u.username, u.name, u.profile_image_url, u.verified,
		COUNT(t.id) AS tweet_count,
		COALESCE(SUM(t.likes_count), 0) AS total_likes,
		COALESCE(SUM(t.retweets_count), 0) AS total_retweets,
		COALESCE(SUM(t.views_count), 0) AS total_views,
		` + scoreExpr + ` AS score
	FROM authors u JOIN tweets t ON u.id = t.author_id
	WHERE t.is_reply = 0 AND t.created_at >= ?
	GROUP BY u.id
	ORDER BY score DESC, u.id ASC`

// Leaderboard returns authors ranked by composite score over the window
// starting at weekStart. Ranks are 1-based and contiguous; limit <= 0 means
// no limit.
func (s *Store) Leaderboard(weekStart time.Time, limit int) ([]models.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := rankedAuthorsQuery
	args := []any{weekStart.UTC()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		var verified int
		err := rows.Scan(
			&e.AuthorID, &e.Username, &e.Name, &e.ProfileImageURL, &verified,
			&e.TweetCount, &e.TotalLikes, &e.TotalRetweets, &e.TotalViews, &e.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		e.Verified = intToBool(verified)
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RankForAuthor returns the author's 1-based position in the full ranking
// for the window, or 0 when the author has no ranked tweets. The whole
// ordered list is recomputed so rank is answerable for any member of the
// window's population, not just the top of the board.
func (s *Store) RankForAuthor(weekStart time.Time, authorID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT u.id
		FROM authors u JOIN tweets t ON u.id = t.author_id
		WHERE t.is_reply = 0 AND t.created_at >= ?
		GROUP BY u.id
		ORDER BY `+scoreExpr+` DESC, u.id ASC
	`, weekStart.UTC())
	if err != nil {
		return 0, fmt.Errorf("query ranking: %w", err)
	}
	defer rows.Close()

	rank := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan ranking row: %w", err)
		}
		rank++
		if id == authorID {
			return rank, rows.Err()
		}
	}
	return 0, rows.Err()
}

// WeeklyStats aggregates engagement totals over the window.
func (s *Store) WeeklyStats(weekStart time.Time) (models.WeeklyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.WeeklyStats{WeekStart: weekStart.UTC()}
	err := s.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(likes_count), 0),
			COALESCE(SUM(retweets_count), 0),
			COALESCE(SUM(replies_count), 0),
			COALESCE(SUM(views_count), 0),
			COUNT(DISTINCT author_id)
		FROM tweets WHERE is_reply = 0 AND created_at >= ?
	`, weekStart.UTC()).Scan(
		&stats.TotalTweets, &stats.TotalLikes, &stats.TotalRetweets,
		&stats.TotalReplies, &stats.TotalViews, &stats.UniqueAuthors,
	)
	if err != nil {
		return models.WeeklyStats{}, fmt.Errorf("query weekly stats: %w", err)
	}
	return stats, nil
}

// MostViewedTweet returns the window's most viewed non-reply tweet joined
// with its author, or nil when the window is empty.
func (s *Store) MostViewedTweet(weekStart time.Time) (*models.TweetWithAuthor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT t.id, t.author_id, t.text, t.created_at, t.likes_count,
			t.retweets_count, t.replies_count, t.views_count, t.url, t.is_reply,
			t.fetched_at, u.username, u.name, u.profile_image_url
		FROM tweets t JOIN authors u ON t.author_id = u.id
		WHERE t.is_reply = 0 AND t.created_at >= ?
		ORDER BY t.views_count DESC, t.id ASC
		LIMIT 1
	`, weekStart.UTC())

	var tw models.TweetWithAuthor
	var isReply int
	err := row.Scan(
		&tw.ID, &tw.AuthorID, &tw.Text, &tw.CreatedAt, &tw.LikesCount,
		&tw.RetweetsCount, &tw.RepliesCount, &tw.ViewsCount, &tw.URL, &isReply,
		&tw.FetchedAt, &tw.Username, &tw.Name, &tw.ProfileImageURL,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query most viewed tweet: %w", err)
	}
	tw.IsReply = intToBool(isReply)
	return &tw, nil
}

// AuthorProfile returns the stored author matched by username
// (case-insensitive) together with their windowed aggregates, or nil when
// the author is unknown. Rank and tweets are filled in by the caller.
func (s *Store) AuthorProfile(weekStart time.Time, username string) (*models.AuthorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT u.id, u.username, u.name, u.profile_image_url, u.profile_banner_url,
			u.followers_count, u.description, u.verified, u.updated_at,
			COUNT(CASE WHEN t.is_reply = 0 AND t.created_at >= ? THEN 1 END),
			COALESCE(SUM(CASE WHEN t.is_reply = 0 AND t.created_at >= ? THEN t.likes_count ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.is_reply = 0 AND t.created_at >= ? THEN t.retweets_count ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.is_reply = 0 AND t.created_at >= ? THEN t.views_count ELSE 0 END), 0)
		FROM authors u LEFT JOIN tweets t ON u.id = t.author_id
		WHERE LOWER(u.username) = LOWER(?)
		GROUP BY u.id
	`, weekStart.UTC(), weekStart.UTC(), weekStart.UTC(), weekStart.UTC(), username)

	var p models.AuthorProfile
	var verified int
	err := row.Scan(
		&p.ID, &p.Username, &p.Name, &p.ProfileImageURL, &p.ProfileBannerURL,
		&p.FollowersCount, &p.Description, &verified, &p.UpdatedAt,
		&p.TweetCount, &p.TotalLikes, &p.TotalRetweets, &p.TotalViews,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query author profile: %w", err)
	}
	p.Verified = intToBool(verified)
	p.WeekStart = weekStart.UTC()
	return &p, nil
}

// TweetsForAuthor returns the author's non-reply tweets in the window,
// most viewed first.
func (s *Store) TweetsForAuthor(weekStart time.Time, authorID string) ([]models.Tweet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, author_id, text, created_at, likes_count, retweets_count,
			replies_count, views_count, url, is_reply, fetched_at
		FROM tweets
		WHERE author_id = ? AND is_reply = 0 AND created_at >= ?
		ORDER BY views_count DESC, id ASC
	`, authorID, weekStart.UTC())
	if err != nil {
		return nil, fmt.Errorf("query author tweets: %w", err)
	}
	defer rows.Close()

	var tweets []models.Tweet
	for rows.Next() {
		var t models.Tweet
		var isReply int
		err := rows.Scan(
			&t.ID, &t.AuthorID, &t.Text, &t.CreatedAt, &t.LikesCount,
			&t.RetweetsCount, &t.RepliesCount, &t.ViewsCount, &t.URL,
			&isReply, &t.FetchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan tweet row: %w", err)
		}
		t.IsReply = intToBool(isReply)
		tweets = append(tweets, t)
	}
	return tweets, rows.Err()
}

// SearchAuthors matches stored authors by username or display name
// substring and decorates matches with their windowed activity.
func (s *Store) SearchAuthors(weekStart time.Time, query string, limit int) ([]models.AuthorSearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT u.id, u.username, u.name, u.profile_image_url, u.verified,
			COUNT(CASE WHEN t.is_reply = 0 AND t.created_at >= ? THEN 1 END) AS tweet_count,
			COALESCE(SUM(CASE WHEN t.is_reply = 0 AND t.created_at >= ? THEN t.views_count ELSE 0 END), 0) AS total_views
		FROM authors u LEFT JOIN tweets t ON u.id = t.author_id
		WHERE u.username LIKE ? COLLATE NOCASE OR u.name LIKE ? COLLATE NOCASE
		GROUP BY u.id
		ORDER BY total_views DESC, u.id ASC
		LIMIT ?
	`, weekStart.UTC(), weekStart.UTC(), pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("query author search: %w", err)
	}
	defer rows.Close()

	var results []models.AuthorSearchResult
	for rows.Next() {
		var r models.AuthorSearchResult
		var verified int
		err := rows.Scan(
			&r.ID, &r.Username, &r.Name, &r.ProfileImageURL, &verified,
			&r.TweetCount, &r.TotalViews,
		)
		if err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		r.Verified = intToBool(verified)
		r.HasTweets = r.TweetCount > 0
		results = append(results, r)
	}
	return results, rows.Err()
}

// ActiveAuthors lists authors holding at least one non-reply tweet in the
// window; the ingestion cycle's counter-refresh pass iterates these. Only
// id and username are populated.
func (s *Store) ActiveAuthors(weekStart time.Time) ([]models.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT DISTINCT u.id, u.username
		FROM authors u JOIN tweets t ON u.id = t.author_id
		WHERE t.is_reply = 0 AND t.created_at >= ?
		ORDER BY u.id ASC
	`, weekStart.UTC())
	if err != nil {
		return nil, fmt.Errorf("query active authors: %w", err)
	}
	defer rows.Close()

	var authors []models.Author
	for rows.Next() {
		var a models.Author
		if err := rows.Scan(&a.ID, &a.Username); err != nil {
			return nil, fmt.Errorf("scan active author: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}
