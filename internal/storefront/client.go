package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront-kit/internal/domain"
)

const (
	DefaultAPIVersion = "2025-01"
	accessTokenHeader = "X-Shopify-Storefront-Access-Token"
)

// Fetcher issues one GraphQL operation against the storefront API.
// Transport failures are returned as errors; GraphQL errors travel in the Response.
type Fetcher interface {
	Fetch(ctx context.Context, query string, variables map[string]any, opts *domain.FetchOptions) (*Response, error)
}

// Config holds the client defaults applied when a call leaves an option unset.
type Config struct {
	Shop           string
	Token          string
	APIVersion     string
	Endpoint       string
	UseMemoryCache bool
	UseEdgeCache   bool
	CacheTTL       time.Duration
	Revalidate     time.Duration
	HTTPClient     *http.Client
	Cache          Cache
	Logger         *zap.Logger
}

type Client struct {
	endpoint   string
	token      string
	defaults   policy
	httpClient *http.Client
	cache      Cache
	ops        *operationCache
	group      singleflight.Group
	breaker    *gobreaker.CircuitBreaker[*Response]
	logger     *zap.Logger
	now        func() time.Time
}

type policy struct {
	useMemoryCache bool
	useEdgeCache   bool
	cacheTTL       time.Duration
	revalidate     time.Duration
}

func New(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		shop := strings.TrimSpace(cfg.Shop)
		if shop == "" {
			return nil, errors.New("shop required")
		}
		version := cfg.APIVersion
		if version == "" {
			version = DefaultAPIVersion
		}
		endpoint = fmt.Sprintf("https://%s/api/%s/graphql.json", shop, version)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("storefront token required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	cache := cfg.Cache
	if cache == nil {
		mem, err := NewMemoryCache(defaultMemoryEntries)
		if err != nil {
			return nil, err
		}
		cache = mem
	}
	defaults := policy{
		useMemoryCache: cfg.UseMemoryCache,
		useEdgeCache:   cfg.UseEdgeCache,
		cacheTTL:       cfg.CacheTTL,
		revalidate:     cfg.Revalidate,
	}
	if defaults.cacheTTL <= 0 {
		defaults.cacheTTL = 60 * time.Second
	}
	if defaults.revalidate <= 0 {
		defaults.revalidate = 60 * time.Second
	}

	c := &Client{
		endpoint:   endpoint,
		token:      cfg.Token,
		defaults:   defaults,
		httpClient: httpClient,
		cache:      cache,
		ops:        newOperationCache(),
		logger:     logger,
		now:        time.Now,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        "storefront",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A caller giving up says nothing about the upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("storefront breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c, nil
}

// Endpoint returns the GraphQL URL the client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Fetch posts query with variables. Reads are served from the cache while
// fresh and identical concurrent reads share one request. Mutations always
// reach the server and are never cached.
func (c *Client) Fetch(ctx context.Context, query string, variables map[string]any, opts *domain.FetchOptions) (*Response, error) {
	if variables == nil {
		variables = map[string]any{}
	}
	p := c.resolve(opts)
	key, err := CacheKey(query, variables)
	if err != nil {
		return nil, err
	}
	op := c.ops.lookup(query)
	cacheable := p.useMemoryCache && !op.IsMutation()
	startedAt := c.now()

	if cacheable {
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil && entry.Response != nil && startedAt.Sub(entry.StoredAt) < p.cacheTTL:
			c.logger.Debug("storefront cache hit", zap.String("operation", op.Name))
			return entry.Response, nil
		case err != nil && !errors.Is(err, ErrCacheMiss):
			c.logger.Warn("storefront cache read failed", zap.String("operation", op.Name), zap.Error(err))
		}
	}

	var resp *Response
	if op.IsMutation() {
		resp, err = c.execute(ctx, query, variables, p)
	} else {
		flightKey := key
		if p.useEdgeCache {
			flightKey += ":edge"
		}
		// The shared request outlives any one caller; each caller still
		// stops waiting on its own cancellation.
		shared := context.WithoutCancel(ctx)
		ch := c.group.DoChan(flightKey, func() (any, error) {
			return c.execute(shared, query, variables, p)
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			err = res.Err
			if err == nil {
				resp = res.Val.(*Response)
			}
		}
	}
	if err != nil {
		c.logger.Error("storefront request failed", zap.String("operation", op.Name), zap.Error(err))
		return nil, err
	}

	if cacheable && !resp.HasErrors() {
		if err := c.cache.Set(ctx, key, &Entry{StoredAt: startedAt, Response: resp}); err != nil {
			c.logger.Warn("storefront cache write failed", zap.String("operation", op.Name), zap.Error(err))
		}
	}
	return resp, nil
}

// ClearCache drops every cached response.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

func (c *Client) resolve(opts *domain.FetchOptions) policy {
	p := c.defaults
	if opts == nil {
		return p
	}
	if opts.UseMemoryCache != nil {
		p.useMemoryCache = *opts.UseMemoryCache
	}
	if opts.UseEdgeCache != nil {
		p.useEdgeCache = *opts.UseEdgeCache
	}
	if opts.CacheTTL != nil {
		p.cacheTTL = *opts.CacheTTL
	}
	if opts.Revalidate != nil {
		p.revalidate = *opts.Revalidate
	}
	return p
}

func (c *Client) execute(ctx context.Context, query string, variables map[string]any, p policy) (*Response, error) {
	return c.breaker.Execute(func() (*Response, error) {
		return c.post(ctx, query, variables, p)
	})
}

func (c *Client) post(ctx context.Context, query string, variables map[string]any, p policy) (*Response, error) {
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(accessTokenHeader, c.token)
	if p.useEdgeCache {
		req.Header.Set("Cache-Control", fmt.Sprintf("s-maxage=%d, stale-while-revalidate=30", int(p.revalidate.Seconds())))
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storefront request: %w", err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read storefront response: %w", err)
	}
	if res.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("storefront responded with status %d", res.StatusCode)
	}
	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode storefront response (status %d): %w", res.StatusCode, err)
	}
	return &out, nil
}
