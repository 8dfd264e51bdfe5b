package twitter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{
	"data": [
		{
			"id": "101",
			"text": "RedStone oracle feeds are live",
			"author_id": "u1",
			"created_at": "2025-06-17T10:30:00.000Z",
			"public_metrics": {"retweet_count": 2, "reply_count": 1, "like_count": 10, "impression_count": 1500}
		},
		{
			"id": "102",
			"text": "replying to the thread",
			"author_id": "u2",
			"created_at": "2025-06-17T11:00:00.000Z",
			"in_reply_to_user_id": "u1",
			"public_metrics": {"retweet_count": 0, "reply_count": 0, "like_count": 1, "impression_count": 40}
		},
		{
			"id": "103",
			"text": "broken timestamp",
			"author_id": "u2",
			"created_at": "not-a-time",
			"public_metrics": {}
		}
	],
	"includes": {
		"users": [
			{
				"id": "u1",
				"username": "alice",
				"name": "Alice",
				"profile_image_url": "https://example.com/a.png",
				"description": "oracle enjoyer",
				"verified": true,
				"public_metrics": {"followers_count": 1234}
			}
		]
	},
	"meta": {"result_count": 3, "next_token": "cursor-xyz"}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-token")
	c.SetBaseURL(srv.URL)
	return c
}

func TestSearchRecentParsesPage(t *testing.T) {
	var gotCursor string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tweets/search/recent", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "author_id", r.URL.Query().Get("expansions"))
		gotCursor = r.URL.Query().Get("next_token")
		w.Write([]byte(searchBody))
	})

	page, err := c.SearchRecent(context.Background(), "redstone", "prev-cursor")
	require.NoError(t, err)
	assert.Equal(t, "prev-cursor", gotCursor)

	require.Len(t, page.Tweets, 2, "tweet with unparseable timestamp is dropped")

	first := page.Tweets[0]
	assert.Equal(t, "101", first.ID)
	assert.Equal(t, "u1", first.AuthorID)
	assert.Equal(t, 10, first.LikesCount)
	assert.Equal(t, 2, first.RetweetsCount)
	assert.Equal(t, 1, first.RepliesCount)
	assert.Equal(t, 1500, first.ViewsCount, "impression count maps to views")
	assert.Equal(t, "https://twitter.com/i/status/101", first.URL)
	assert.False(t, first.IsReply)
	assert.True(t, first.CreatedAt.Equal(time.Date(2025, 6, 17, 10, 30, 0, 0, time.UTC)))

	assert.True(t, page.Tweets[1].IsReply, "in_reply_to_user_id marks replies")

	require.Len(t, page.Authors, 1)
	assert.Equal(t, "alice", page.Authors[0].Username)
	assert.Equal(t, 1234, page.Authors[0].FollowersCount)
	assert.True(t, page.Authors[0].Verified)

	assert.True(t, page.HasMore)
	assert.Equal(t, "cursor-xyz", page.NextCursor)
}

func TestSearchRecentLastPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [], "meta": {"result_count": 0}}`))
	})

	page, err := c.SearchRecent(context.Background(), "redstone", "")
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.NextCursor)
	assert.Empty(t, page.Tweets)
}

func TestSearchRecentUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"title": "Too Many Requests"}`))
	})

	_, err := c.SearchRecent(context.Background(), "redstone", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSearchRecentMalformedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := c.SearchRecent(context.Background(), "redstone", "")
	require.Error(t, err)
}

func TestUserByHandle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/by/username/alice", r.URL.Path)
		w.Write([]byte(`{"data": {
			"id": "u1", "username": "alice", "name": "Alice",
			"public_metrics": {"followers_count": 99}
		}}`))
	})

	author, err := c.UserByHandle(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", author.ID)
	assert.Equal(t, 99, author.FollowersCount)
}

func TestUserByHandleNotFound(t *testing.T) {
	t.Run("404 status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := c.UserByHandle(context.Background(), "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("200 with errors array", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"errors": [{"title": "Not Found Error"}]}`))
		})
		_, err := c.UserByHandle(context.Background(), "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUserTweetsFillsAuthorID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/u1/tweets", r.URL.Path)
		assert.Equal(t, "retweets", r.URL.Query().Get("exclude"))
		w.Write([]byte(`{
			"data": [{
				"id": "201", "text": "redstone oracle news",
				"created_at": "2025-06-17T09:00:00.000Z",
				"public_metrics": {"like_count": 3}
			}],
			"meta": {"result_count": 1}
		}`))
	})

	page, err := c.UserTweets(context.Background(), "u1", "")
	require.NoError(t, err)
	require.Len(t, page.Tweets, 1)
	assert.Equal(t, "u1", page.Tweets[0].AuthorID, "timeline tweets inherit the requested user id")
}

func TestEnabled(t *testing.T) {
	assert.True(t, NewClient("token").Enabled())
	assert.False(t, NewClient("").Enabled())
}
