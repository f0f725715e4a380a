package pricing

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/toonkit/internal/errors"
)

const feedBody = `{
  "updated_at": "2025-11-20T00:00:00Z",
  "prices": [
    {"id": "gpt-5.1", "vendor": "openai", "name": "GPT-5.1", "input": 1.25, "output": 10, "input_cached": 0.125},
    {"id": "grok-4", "vendor": "xai", "name": "Grok 4", "input": 3, "output": 15, "input_cached": null},
    {"id": "gpt-5.1", "vendor": "openai", "name": "duplicate", "input": 99, "output": 99, "input_cached": null}
  ]
}`

func newFeedServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestFeed_FetchDedupesAndCaches(t *testing.T) {
	srv, hits := newFeedServer(t, http.StatusOK, feedBody)
	feed := NewFeed(srv.URL)

	data := feed.Fetch(context.Background())
	assert.Equal(t, "2025-11-20T00:00:00Z", data.UpdatedAt)
	require.Len(t, data.Prices, 2)
	assert.Equal(t, "GPT-5.1", data.Prices[0].Name)
	require.NotNil(t, data.Prices[0].InputCached)
	assert.Equal(t, 0.125, *data.Prices[0].InputCached)
	assert.Nil(t, data.Prices[1].InputCached)

	again := feed.Fetch(context.Background())
	assert.Equal(t, data, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestFeed_WithoutCacheFetchesEveryTime(t *testing.T) {
	srv, hits := newFeedServer(t, http.StatusOK, feedBody)
	feed := NewFeed(srv.URL, WithCache(nil))

	feed.Fetch(context.Background())
	feed.Fetch(context.Background())
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestFeed_FallsBack(t *testing.T) {
	tests := map[string]struct {
		status int
		body   string
	}{
		"server error": {http.StatusInternalServerError, `{"error":"down"}`},
		"bad json":     {http.StatusOK, `{"prices": [`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv, hits := newFeedServer(t, tt.status, tt.body)
			var logs bytes.Buffer
			feed := NewFeed(srv.URL, WithLogger(log.New(&logs, "", 0)))

			data := feed.Fetch(context.Background())
			require.Len(t, data.Prices, 1)
			assert.Equal(t, "gpt-5.1", data.Prices[0].ID)
			assert.Contains(t, logs.String(), "using fallback")

			_, err := feed.FetchStrict(context.Background())
			assert.ErrorIs(t, err, errors.ErrFeedUnavailable)
			assert.Equal(t, int32(2), atomic.LoadInt32(hits), "fallbacks are not cached")
		})
	}
}

func TestFeed_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	feed := NewFeed(srv.URL, WithTimeout(50*time.Millisecond))
	_, err := feed.FetchStrict(context.Background())
	assert.ErrorIs(t, err, errors.ErrFeedUnavailable)
}

func TestFeed_CancelledContext(t *testing.T) {
	srv, hits := newFeedServer(t, http.StatusOK, feedBody)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data := NewFeed(srv.URL).Fetch(ctx)
	assert.Equal(t, "gpt-5.1", data.Prices[0].ID)
	assert.Len(t, data.Prices, 1)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

type mapCache map[string]Data

func (m mapCache) Get(key string) (Data, bool) {
	d, ok := m[key]
	return d, ok
}

func (m mapCache) Add(key string, d Data) { m[key] = d }

func TestFeed_InjectedCache(t *testing.T) {
	cache := mapCache{"http://example.invalid/prices": {UpdatedAt: "cached", Prices: []Model{{ID: "x"}}}}
	feed := NewFeed("http://example.invalid/prices", WithCache(cache))

	data, err := feed.FetchStrict(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", data.UpdatedAt)
}

func TestLRUCache(t *testing.T) {
	cache, err := NewLRUCache(1)
	require.NoError(t, err)

	cache.Add("a", Data{UpdatedAt: "1"})
	cache.Add("b", Data{UpdatedAt: "2"})

	_, ok := cache.Get("a")
	assert.False(t, ok, "oldest entry is evicted")
	got, ok := cache.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "2", got.UpdatedAt)

	_, err = NewLRUCache(0)
	assert.NoError(t, err)
}
