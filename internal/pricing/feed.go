package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mcncl/toonkit/internal/errors"
)

const (
	DefaultURL       = "https://www.llm-prices.com/current-v1.json"
	DefaultTimeout   = 10 * time.Second
	DefaultCacheSize = 16
)

// Cache holds fetched price lists keyed by feed URL.
type Cache interface {
	Get(key string) (Data, bool)
	Add(key string, data Data)
}

// LRUCache is a size-bounded Cache.
type LRUCache struct {
	cache *lru.Cache[string, Data]
}

// NewLRUCache creates a cache holding at most size price lists.
func NewLRUCache(size int) (*LRUCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, Data](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{cache: cache}, nil
}

func (c *LRUCache) Get(key string) (Data, bool) {
	return c.cache.Get(key)
}

func (c *LRUCache) Add(key string, data Data) {
	c.cache.Add(key, data)
}

// Feed reads the price list from an HTTP endpoint.
type Feed struct {
	url    string
	client *http.Client
	cache  Cache
	logger *log.Logger
	now    func() time.Time
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) FeedOption {
	return func(f *Feed) {
		f.client = client
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) FeedOption {
	return func(f *Feed) {
		if d > 0 {
			f.client = &http.Client{Timeout: d, Transport: f.client.Transport}
		}
	}
}

// WithCache sets the cache consulted before each fetch. A nil cache disables
// caching.
func WithCache(cache Cache) FeedOption {
	return func(f *Feed) {
		f.cache = cache
	}
}

// WithLogger sets where fallbacks are reported.
func WithLogger(logger *log.Logger) FeedOption {
	return func(f *Feed) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFeed creates a Feed for url, or DefaultURL when url is empty. Without a
// WithCache option the feed uses an LRUCache of DefaultCacheSize.
func NewFeed(url string, opts ...FeedOption) *Feed {
	if url == "" {
		url = DefaultURL
	}
	f := &Feed{
		url:    url,
		client: &http.Client{Timeout: DefaultTimeout},
		logger: log.New(io.Discard, "", 0),
		now:    time.Now,
	}
	if cache, err := NewLRUCache(DefaultCacheSize); err == nil {
		f.cache = cache
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the price list, deduplicated by id. It never fails: any
// error is logged and FallbackData is returned instead. Fallbacks are not
// cached.
func (f *Feed) Fetch(ctx context.Context) Data {
	data, err := f.FetchStrict(ctx)
	if err != nil {
		f.logger.Printf("Failed to fetch LLM pricing, using fallback: %v", err)
		return FallbackData(f.now())
	}
	return data
}

// FetchStrict is Fetch without the fallback.
func (f *Feed) FetchStrict(ctx context.Context) (Data, error) {
	if f.cache != nil {
		if data, ok := f.cache.Get(f.url); ok {
			return data, nil
		}
	}

	data, err := f.get(ctx)
	if err != nil {
		return Data{}, errors.NewUpstreamError(errors.KindFeedUnavailable, fmt.Sprintf("pricing feed %s unavailable", f.url), err)
	}
	data.Prices = Dedupe(data.Prices)

	if f.cache != nil {
		f.cache.Add(f.url, data)
	}
	return data, nil
}

func (f *Feed) get(ctx context.Context) (Data, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Data{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Data{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Data{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var data Data
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Data{}, fmt.Errorf("decode price list: %w", err)
	}
	return data, nil
}
