// Package twitter wraps the Twitter v2 API endpoints the tracker consumes:
// recent search, user lookup by handle, and user timelines.
package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/redboard/mentions-tracker/internal/models"
)

// ErrNotFound is returned by UserByHandle when the handle does not exist.
var ErrNotFound = errors.New("twitter: user not found")

const (
	defaultBaseURL = "https://api.twitter.com/2"
	tweetFields    = "created_at,public_metrics,author_id,in_reply_to_user_id"
	userFields     = "name,username,profile_image_url,description,public_metrics,verified"
	maxPageSize    = "100"
)

// Client talks to the Twitter v2 API with bearer-token auth. Each request
// carries a bounded deadline so a hung upstream cannot stall a refresh cycle.
type Client struct {
	bearerToken string
	baseURL     string
	client      *resty.Client
}

// Page is one page of a paginated tweet listing together with the author
// profiles the response expanded and the cursor for the next page.
type Page struct {
	Tweets     []models.Tweet
	Authors    []models.Author
	NextCursor string
	HasMore    bool
}

// NewClient creates a Twitter API client.
func NewClient(bearerToken string) *Client {
	return &Client{
		bearerToken: bearerToken,
		baseURL:     defaultBaseURL,
		client: resty.New().
			SetTimeout(15 * time.Second).
			SetHeader("User-Agent", "RedBoard-Mentions-Tracker/1.0"),
	}
}

// SetBaseURL points the client at a different API host; used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Enabled reports whether a bearer token is configured.
func (c *Client) Enabled() bool {
	return c.bearerToken != ""
}

type apiUser struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Name             string `json:"name"`
	ProfileImageURL  string `json:"profile_image_url"`
	ProfileBannerURL string `json:"profile_banner_url"`
	Description      string `json:"description"`
	Verified         bool   `json:"verified"`
	PublicMetrics    struct {
		FollowersCount int `json:"followers_count"`
	} `json:"public_metrics"`
}

type apiTweet struct {
	ID              string `json:"id"`
	Text            string `json:"text"`
	AuthorID        string `json:"author_id"`
	CreatedAt       string `json:"created_at"`
	InReplyToUserID string `json:"in_reply_to_user_id"`
	PublicMetrics   struct {
		RetweetCount    int `json:"retweet_count"`
		ReplyCount      int `json:"reply_count"`
		LikeCount       int `json:"like_count"`
		ImpressionCount int `json:"impression_count"`
	} `json:"public_metrics"`
}

type listResponse struct {
	Data     []apiTweet `json:"data"`
	Includes struct {
		Users []apiUser `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

// SearchRecent runs one page of the recent-search endpoint. An empty cursor
// requests the first page; the returned Page carries the continuation
// cursor the upstream handed back.
func (c *Client) SearchRecent(ctx context.Context, query, cursor string) (*Page, error) {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.bearerToken).
		SetQueryParams(map[string]string{
			"query":        query,
			"max_results":  maxPageSize,
			"tweet.fields": tweetFields,
			"user.fields":  userFields,
			"expansions":   "author_id",
		})
	if cursor != "" {
		req.SetQueryParam("next_token", cursor)
	}

	resp, err := req.Get(c.baseURL + "/tweets/search/recent")
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode(), resp.Body())
	}

	var listResp listResponse
	if err := json.Unmarshal(resp.Body(), &listResp); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	return c.buildPage(listResp), nil
}

// UserByHandle looks up a single author profile by handle.
func (c *Client) UserByHandle(ctx context.Context, handle string) (*models.Author, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.bearerToken).
		SetQueryParam("user.fields", userFields).
		Get(c.baseURL + "/users/by/username/" + handle)
	if err != nil {
		return nil, fmt.Errorf("user lookup request: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("user lookup returned status %d: %s", resp.StatusCode(), resp.Body())
	}

	var userResp struct {
		Data   *apiUser `json:"data"`
		Errors []any    `json:"errors"`
	}
	if err := json.Unmarshal(resp.Body(), &userResp); err != nil {
		return nil, fmt.Errorf("parse user response: %w", err)
	}
	// The v2 API reports unknown handles as 200 with an errors array.
	if userResp.Data == nil {
		return nil, ErrNotFound
	}

	author := convertUser(*userResp.Data)
	return &author, nil
}

// UserTweets runs one page of an author's timeline, retweets excluded.
func (c *Client) UserTweets(ctx context.Context, userID, cursor string) (*Page, error) {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.bearerToken).
		SetQueryParams(map[string]string{
			"max_results":  maxPageSize,
			"tweet.fields": tweetFields,
			"exclude":      "retweets",
		})
	if cursor != "" {
		req.SetQueryParam("pagination_token", cursor)
	}

	resp, err := req.Get(c.baseURL + "/users/" + userID + "/tweets")
	if err != nil {
		return nil, fmt.Errorf("timeline request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("timeline returned status %d: %s", resp.StatusCode(), resp.Body())
	}

	var listResp listResponse
	if err := json.Unmarshal(resp.Body(), &listResp); err != nil {
		return nil, fmt.Errorf("parse timeline response: %w", err)
	}

	page := c.buildPage(listResp)
	// The timeline endpoint omits author_id on its tweets; they all belong
	// to the requested user.
	for i := range page.Tweets {
		if page.Tweets[i].AuthorID == "" {
			page.Tweets[i].AuthorID = userID
		}
	}
	return page, nil
}

func (c *Client) buildPage(resp listResponse) *Page {
	page := &Page{
		NextCursor: resp.Meta.NextToken,
		HasMore:    resp.Meta.NextToken != "",
	}

	for _, u := range resp.Includes.Users {
		page.Authors = append(page.Authors, convertUser(u))
	}

	for _, t := range resp.Data {
		createdAt, err := time.Parse(time.RFC3339, t.CreatedAt)
		if err != nil {
			logrus.Warnf("Dropping tweet %s with unparseable timestamp %q: %v", t.ID, t.CreatedAt, err)
			continue
		}

		page.Tweets = append(page.Tweets, models.Tweet{
			ID:            t.ID,
			AuthorID:      t.AuthorID,
			Text:          t.Text,
			CreatedAt:     createdAt.UTC(),
			LikesCount:    t.PublicMetrics.LikeCount,
			RetweetsCount: t.PublicMetrics.RetweetCount,
			RepliesCount:  t.PublicMetrics.ReplyCount,
			ViewsCount:    t.PublicMetrics.ImpressionCount,
			URL:           "https://twitter.com/i/status/" + t.ID,
			IsReply:       t.InReplyToUserID != "",
		})
	}

	return page
}

func convertUser(u apiUser) models.Author {
	return models.Author{
		ID:               u.ID,
		Username:         u.Username,
		Name:             u.Name,
		ProfileImageURL:  u.ProfileImageURL,
		ProfileBannerURL: u.ProfileBannerURL,
		FollowersCount:   u.PublicMetrics.FollowersCount,
		Description:      u.Description,
		Verified:         u.Verified,
	}
}
