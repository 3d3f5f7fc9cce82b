package httputil_test

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/finrag-metrics/pkg/config"
	"github.com/wonny/finrag-metrics/pkg/httputil"
	"github.com/wonny/finrag-metrics/pkg/logger"
	"github.com/wonny/finrag-metrics/pkg/redis"
)

// Example_secRequest demonstrates a SEC EDGAR request with identity and retry
func Example_secRequest() {
	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
		SEC: config.SECConfig{
			Identity: "Research Bot research@example.com",
			Timeout:  30 * time.Second,
		},
	}
	log := logger.New(cfg)

	// Create HTTP client (SSOT)
	client := httputil.New(cfg, log).
		WithUserAgent(cfg.SEC.IdentityOrDefault()).
		WithRetry(3, time.Second)

	var facts map[string]interface{}
	ctx := context.Background()
	if err := client.GetJSON(ctx, "https://data.sec.gov/api/xbrl/companyfacts/CIK0000320193.json", &facts); err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}

	fmt.Printf("Entity: %v\n", facts["entityName"])
}

// Example_sharedRateLimit demonstrates a Redis-backed limiter shared by several workers
func Example_sharedRateLimit() {
	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
		Redis:    config.RedisConfig{Enabled: true, Host: "localhost", Port: "6379"},
	}
	log := logger.New(cfg)

	rdb, err := redis.New(cfg)
	if err != nil {
		fmt.Printf("Redis unavailable: %v\n", err)
		return
	}
	defer rdb.Close()

	client := httputil.New(cfg, log).
		WithRateLimiter(redis.NewRateLimiter(rdb, "finrag"), redis.SECRateLimit)

	body, err := client.GetBytes(context.Background(), "https://data.sec.gov/submissions/CIK0000320193.json")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}
	fmt.Printf("Received %d bytes\n", len(body))
}
