package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestKeyFuncs(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = net.JoinHostPort("203.0.113.9", "4000")

	if got := KeyByIP()(c); got != "ip:203.0.113.9" {
		t.Fatalf("KeyByIP = %q", got)
	}
	if got := KeyByUserOrIP()(c); got != "ip:203.0.113.9" {
		t.Fatalf("anonymous KeyByUserOrIP = %q", got)
	}
	withIdentity("u7")(c)
	if got := KeyByUserOrIP()(c); got != "user:u7" {
		t.Fatalf("KeyByUserOrIP = %q", got)
	}
	if got := KeyByIP()(c); got != "ip:203.0.113.9" {
		t.Fatalf("KeyByIP must ignore identity, got %q", got)
	}
}

func TestRateLimiter_Limits(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, KeyByIP())
	r := gin.New()
	r.Use(RequestID(), rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		if w := do(r, http.MethodGet, "/x", nil); w.Code != http.StatusNoContent {
			t.Fatalf("req %d: %d", i, w.Code)
		}
	}
	w := do(r, http.MethodGet, "/x", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third: %d; want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
}

func TestRateLimiter_PerUserBuckets(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, KeyByUserOrIP())
	hit := func(uid string) int {
		r := gin.New()
		r.GET("/x", withIdentity(uid), rl.Handler(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return do(r, http.MethodGet, "/x", nil).Code
	}
	if hit("a") != http.StatusNoContent || hit("b") != http.StatusNoContent {
		t.Fatalf("first request per user must pass")
	}
	if hit("a") != http.StatusTooManyRequests {
		t.Fatalf("second request for a must be limited")
	}
}

func TestRateLimiter_ReplayBypass(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, KeyByIP())
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		c.Set(ctxKeyRateBypass, c.Query("replay") == "1")
		c.Next()
	}, rl.Handler(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do(r, http.MethodGet, "/x", nil)
	if w := do(r, http.MethodGet, "/x", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected limit, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/x?replay=1", nil); w.Code != http.StatusNoContent {
		t.Fatalf("replay must bypass, got %d", w.Code)
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	clock := time.Now()
	rl.now = func() time.Time { return clock }

	first := rl.limiter("old")
	if rl.limiter("old") != first {
		t.Fatalf("bucket not reused")
	}

	clock = clock.Add(time.Hour)
	rl.mu.Lock()
	rl.sweepN = sweepEvery - 1
	rl.mu.Unlock()

	_ = rl.limiter("new")
	if rl.size() != 1 {
		t.Fatalf("buckets = %d; want 1 after sweep", rl.size())
	}
	if rl.limiter("old") == first {
		t.Fatalf("old bucket should have been replaced")
	}
}
