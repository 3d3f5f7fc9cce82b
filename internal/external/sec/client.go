// Package sec reads company facts, filing indexes and statements from SEC EDGAR.
package sec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/wonny/finrag-metrics/pkg/config"
	"github.com/wonny/finrag-metrics/pkg/httputil"
	"github.com/wonny/finrag-metrics/pkg/logger"
)

// ErrNotFound is returned when EDGAR has no document at the requested URL
var ErrNotFound = errors.New("sec: document not found")

// Client handles communication with SEC EDGAR
// ⭐ SSOT: SEC EDGAR 호출은 이 클라이언트에서만
type Client struct {
	httpClient  *httputil.Client
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	cache       Cache
	cacheTTL    time.Duration
	logger      *logger.Logger
	baseURL     string
	archivesURL string
}

// NewClient creates a new EDGAR client.
// httpClient gets the EDGAR identity as User-Agent; a nil cache disables caching.
func NewClient(cfg *config.Config, httpClient *httputil.Client, cache Cache, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.Component("sec")

	if cfg.SEC.Identity == "" {
		log.WithField("identity", config.DefaultEDGARIdentity).Warn("EDGAR_IDENTITY not set, using default identity")
	}
	httpClient.WithUserAgent(cfg.SEC.IdentityOrDefault())

	rps := cfg.SEC.RequestsPerSecond
	if rps <= 0 {
		rps = 8
	}
	if cache == nil {
		cache = noCache{}
	}

	return &Client{
		httpClient:  httpClient,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		breaker:     newBreaker("sec-edgar"),
		cache:       cache,
		cacheTTL:    cfg.SEC.CacheTTL,
		logger:      log,
		baseURL:     strings.TrimRight(cfg.SEC.BaseURL, "/"),
		archivesURL: strings.TrimRight(cfg.SEC.ArchivesURL, "/"),
	}
}

// newBreaker trips after 3 consecutive failures; a 404 is an answer, not a failure
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
	})
}

// fetch returns the body at url, served from cache when possible
func (c *Client) fetch(ctx context.Context, url, cacheKey string) ([]byte, error) {
	if data, ok := c.cache.Get(ctx, cacheKey); ok {
		c.logger.WithField("key", cacheKey).Debug("EDGAR cache hit")
		return data, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("sec rate limit wait failed: %w", err)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		body, err := c.httpClient.GetBytes(ctx, url)
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
		}
		return body, err
	})
	if err != nil {
		return nil, err
	}

	data := out.([]byte)
	c.cache.Set(ctx, cacheKey, data, c.cacheTTL)
	return data, nil
}

// fetchJSON decodes the JSON body at url into dest
func (c *Client) fetchJSON(ctx context.Context, url, cacheKey string, dest interface{}) error {
	data, err := c.fetch(ctx, url, cacheKey)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}
