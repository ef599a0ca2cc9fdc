//go:build integration

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/carhire/carhire/internal/cache"
	"github.com/carhire/carhire/internal/testutil"
)

// TestLoginRateLimitConcurrency verifies the Redis token bucket under concurrent load.
func TestLoginRateLimitConcurrency(t *testing.T) {
	ctx := context.Background()

	redisURL := testutil.RequireEnv(t, "REDIS_URL")
	cacheClient, err := cache.New(ctx, redisURL)
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	defer cacheClient.Close()

	_ = testutil.FlushRedis(ctx, cacheClient.Client())

	testIP := "192.168.1.100"
	rps := 1
	burst := 5

	var allowed, rejected int64
	var wg sync.WaitGroup

	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := cacheClient.CheckLoginRateLimit(ctx, testIP, rps, burst)
			if err != nil {
				t.Errorf("CheckLoginRateLimit error: %v", err)
				return
			}
			if result.Allowed {
				atomic.AddInt64(&allowed, 1)
			} else {
				atomic.AddInt64(&rejected, 1)
			}
		}()
	}

	wg.Wait()

	t.Logf("login rate limit: %d allowed, %d rejected", allowed, rejected)

	if allowed > int64(burst+rps) {
		t.Errorf("Too many requests allowed: %d (expected <= %d)", allowed, burst+rps)
	}
	if rejected == 0 {
		t.Error("Expected some requests to be rejected")
	}
}

// TestRateLimitLogin_EndToEnd drives the middleware against real Redis.
func TestRateLimitLogin_EndToEnd(t *testing.T) {
	ctx := context.Background()

	redisURL := testutil.RequireEnv(t, "REDIS_URL")
	cacheClient, err := cache.New(ctx, redisURL)
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	defer cacheClient.Close()

	_ = testutil.FlushRedis(ctx, cacheClient.Client())

	handler := RateLimitLogin(RateLimitConfig{
		Logger:  testutil.DiscardLogger(),
		Limiter: cacheClient,
		Enabled: true,
		RPS:     1,
		Burst:   2,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
	}))

	var codes []int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusSeeOther || codes[1] != http.StatusSeeOther {
		t.Errorf("first two attempts should pass, got %v", codes)
	}
	if codes[3] != http.StatusTooManyRequests {
		t.Errorf("fourth attempt should be limited, got %v", codes)
	}
}
