package models

import "time"

// Author is a tracked Twitter account. Authors are created or refreshed on
// every successful ingestion of one of their tweets and are never deleted,
// so profile lookups stay warm across weekly resets.
type Author struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Name             string    `json:"name"`
	ProfileImageURL  string    `json:"profile_image_url"`
	ProfileBannerURL string    `json:"profile_banner_url,omitempty"`
	FollowersCount   int       `json:"followers_count"`
	Description      string    `json:"description"`
	Verified         bool      `json:"verified"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Tweet is a single ingested mention. Identity, text, creation time, author
// reference and the reply flag are immutable after first insert; the four
// engagement counters and FetchedAt are refreshed on re-ingestion.
type Tweet struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
	LikesCount    int       `json:"likes_count"`
	RetweetsCount int       `json:"retweets_count"`
	RepliesCount  int       `json:"replies_count"`
	ViewsCount    int       `json:"views_count"`
	URL           string    `json:"url"`
	IsReply       bool      `json:"is_reply"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// LeaderboardEntry is one ranked row of the weekly leaderboard: an author's
// aggregated engagement over the current window plus the composite score.
type LeaderboardEntry struct {
	AuthorID        string  `json:"id"`
	Username        string  `json:"username"`
	Name            string  `json:"name"`
	ProfileImageURL string  `json:"profile_image_url"`
	Verified        bool    `json:"verified"`
	TweetCount      int     `json:"tweet_count"`
	TotalLikes      int     `json:"total_likes"`
	TotalRetweets   int     `json:"total_retweets"`
	TotalViews      int     `json:"total_views"`
	Score           float64 `json:"score"`
	Rank            int     `json:"rank"`
}

// WeeklyStats summarizes all non-reply tweets in the current window.
type WeeklyStats struct {
	TotalTweets   int       `json:"total_tweets"`
	TotalLikes    int       `json:"total_likes"`
	TotalRetweets int       `json:"total_retweets"`
	TotalReplies  int       `json:"total_replies"`
	TotalViews    int       `json:"total_views"`
	UniqueAuthors int       `json:"unique_authors"`
	WeekStart     time.Time `json:"week_start"`
}

// AuthorProfile joins an author's stored profile with their windowed
// aggregates, tweets and leaderboard rank for the per-author view.
type AuthorProfile struct {
	Author
	TweetCount    int       `json:"tweet_count"`
	TotalLikes    int       `json:"total_likes"`
	TotalRetweets int       `json:"total_retweets"`
	TotalViews    int       `json:"total_views"`
	Rank          int       `json:"rank,omitempty"`
	Tweets        []Tweet   `json:"tweets"`
	WeekStart     time.Time `json:"week_start"`
}

// TweetWithAuthor decorates a tweet with display fields of its author.
type TweetWithAuthor struct {
	Tweet
	Username        string `json:"username"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// AuthorSearchResult is one row of an author search: profile fields plus
// windowed activity so the dashboard can link straight to the leaderboard.
type AuthorSearchResult struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url"`
	Verified        bool   `json:"verified"`
	TweetCount      int    `json:"tweet_count"`
	TotalViews      int    `json:"total_views"`
	Rank            int    `json:"rank,omitempty"`
	HasTweets       bool   `json:"has_tweets"`
}

// Quote is the cached external price quote.
type Quote struct {
	USD       float64   `json:"usd"`
	Change24h float64   `json:"change_24h"`
	UpdatedAt time.Time `json:"updated_at"`
}
