package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finrag-metrics/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "finrag")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), SECRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, SECRateLimit.Limit, remaining)

	assert.NoError(t, limiter.Wait(context.Background(), SECArchivesRateLimit))
}

func TestSECRateLimitFor(t *testing.T) {
	tests := []struct {
		rps  float64
		want int
	}{
		{8, 8},
		{2.5, 2},
		{0.2, 1},
	}

	for _, tt := range tests {
		cfg := SECRateLimitFor(tt.rps)
		assert.Equal(t, tt.want, cfg.Limit)
		assert.Equal(t, time.Second, cfg.Window)
		assert.Equal(t, "sec", cfg.Key)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "finrag")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "value", TTLShort))

	data, found, err := cache.GetBytes(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)
	assert.NoError(t, cache.SetBytes(ctx, "key", []byte("{}"), TTLShort))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCache_GetOrSetDisabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "finrag")

	calls := 0
	var dest map[string]int
	err := cache.GetOrSet(context.Background(), "facts", &dest, TTLMedium, func() (interface{}, error) {
		calls++
		return map[string]int{"rows": 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, dest["rows"])
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "CompanyFactsKey",
			fn:       func() string { return CompanyFactsKey("0000320193") },
			expected: "sec:companyfacts:0000320193",
		},
		{
			name:     "SubmissionsKey",
			fn:       func() string { return SubmissionsKey("0000320193") },
			expected: "sec:submissions:0000320193",
		},
		{
			name:     "FilingDocumentKey",
			fn:       func() string { return FilingDocumentKey("320193", "000032019324000123", "R2.htm") },
			expected: "sec:filing:320193:000032019324000123:R2.htm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
