// Package api exposes the dashboard read path over HTTP. Every handler
// reads from the store; nothing here ever blocks on the upstream API except
// the explicit cache-miss escalation on search and user lookups.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/redboard/mentions-tracker/internal/ingest"
	"github.com/redboard/mentions-tracker/internal/price"
	"github.com/redboard/mentions-tracker/internal/store"
	"github.com/redboard/mentions-tracker/internal/twitter"
	"github.com/redboard/mentions-tracker/internal/window"
)

// Handler serves the dashboard API.
type Handler struct {
	store  *store.Store
	price  *price.Service
	ingest *ingest.Service
	now    func() time.Time
}

// NewHandler creates the API handler.
func NewHandler(st *store.Store, priceService *price.Service, ingestService *ingest.Service) *Handler {
	return &Handler{
		store:  st,
		price:  priceService,
		ingest: ingestService,
		now:    time.Now,
	}
}

// Register attaches all API routes to the router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/api/health", h.health).Methods("GET")
	router.HandleFunc("/api/price", h.priceQuote).Methods("GET")
	router.HandleFunc("/api/stats", h.stats).Methods("GET")
	router.HandleFunc("/api/top3", h.top3).Methods("GET")
	router.HandleFunc("/api/leaderboard", h.leaderboard).Methods("GET")
	router.HandleFunc("/api/search", h.search).Methods("GET")
	router.HandleFunc("/api/user/{username}", h.user).Methods("GET")
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountTweets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tweets": count,
	})
}

func (h *Handler) priceQuote(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    h.price.Quote(),
	})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	weekStart := window.Start(h.now())

	stats, err := h.store.WeeklyStats(weekStart)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	mostViewed, err := h.store.MostViewedTweet(weekStart)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"total_tweets":      stats.TotalTweets,
			"total_likes":       stats.TotalLikes,
			"total_retweets":    stats.TotalRetweets,
			"total_replies":     stats.TotalReplies,
			"total_views":       stats.TotalViews,
			"unique_users":      stats.UniqueAuthors,
			"week_start":        stats.WeekStart,
			"most_viewed_tweet": mostViewed,
			"red_price":         h.price.Quote(),
		},
	})
}

func (h *Handler) top3(w http.ResponseWriter, r *http.Request) {
	h.writeLeaderboard(w, 3)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	h.writeLeaderboard(w, 100)
}

func (h *Handler) writeLeaderboard(w http.ResponseWriter, limit int) {
	weekStart := window.Start(h.now())

	entries, err := h.store.Leaderboard(weekStart, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       entries,
		"week_start": weekStart,
	})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
		return
	}

	weekStart := window.Start(h.now())

	results, err := h.store.SearchAuthors(weekStart, query, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	// Cache miss: try a live lookup, then re-query the store.
	if len(results) == 0 {
		if _, err := h.ingest.LookupAuthor(r.Context(), query); err != nil {
			if !errors.Is(err, twitter.ErrNotFound) {
				logrus.Warnf("Live lookup for %q failed: %v", query, err)
			}
		} else {
			results, err = h.store.SearchAuthors(weekStart, query, 20)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
		}
	}

	for i := range results {
		rank, err := h.store.RankForAuthor(weekStart, results[i].ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		results[i].Rank = rank
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": results})
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(mux.Vars(r)["username"])
	weekStart := window.Start(h.now())

	profile, err := h.store.AuthorProfile(weekStart, username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if profile == nil {
		if _, err := h.ingest.LookupAuthor(r.Context(), username); err != nil {
			if !errors.Is(err, twitter.ErrNotFound) {
				logrus.Warnf("Live lookup for %q failed: %v", username, err)
			}
		} else {
			profile, err = h.store.AuthorProfile(weekStart, username)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
		}
	}

	if profile == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "User not found",
		})
		return
	}

	profile.Tweets, err = h.store.TweetsForAuthor(weekStart, profile.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if profile.TweetCount > 0 {
		profile.Rank, err = h.store.RankForAuthor(weekStart, profile.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": profile})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	logrus.Errorf("Request failed: %v", err)
	writeJSON(w, status, map[string]any{"success": false, "error": "internal error"})
}
