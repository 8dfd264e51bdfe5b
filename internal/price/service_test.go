package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshAndQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "redstone-oracles", r.URL.Query().Get("ids"))
		w.Write([]byte(`{"redstone-oracles": {"usd": 0.4321, "usd_24h_change": -2.5}}`))
	}))
	defer srv.Close()

	s := NewService("redstone-oracles")
	s.SetBaseURL(srv.URL)

	assert.Nil(t, s.Quote(), "no quote before first refresh")

	require.NoError(t, s.Refresh(context.Background()))

	quote := s.Quote()
	require.NotNil(t, quote)
	assert.InDelta(t, 0.4321, quote.USD, 0.0001)
	assert.InDelta(t, -2.5, quote.Change24h, 0.0001)
	assert.False(t, quote.UpdatedAt.IsZero())
}

func TestRefreshFailureKeepsCachedQuote(t *testing.T) {
	failing := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"redstone-oracles": {"usd": 0.5, "usd_24h_change": 1.0}}`))
	}))
	defer srv.Close()

	s := NewService("redstone-oracles")
	s.SetBaseURL(srv.URL)

	require.NoError(t, s.Refresh(context.Background()))

	failing = true
	assert.Error(t, s.Refresh(context.Background()))

	quote := s.Quote()
	require.NotNil(t, quote, "failed refresh retains the previous quote")
	assert.InDelta(t, 0.5, quote.USD, 0.0001)
}

func TestRefreshMissingCoin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := NewService("redstone-oracles")
	s.SetBaseURL(srv.URL)

	assert.Error(t, s.Refresh(context.Background()))
	assert.Nil(t, s.Quote())
}
