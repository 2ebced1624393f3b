package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/rid", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := do(r, http.MethodGet, "/rid", nil)
	gen := w.Header().Get(requestIDHeader)
	if gen == "" || w.Body.String() != gen {
		t.Fatalf("generated id header=%q body=%q", gen, w.Body.String())
	}

	w = do(r, http.MethodGet, "/rid", map[string]string{"x-request-id": "abc-123"})
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("propagated id = %q", got)
	}

	w = do(r, http.MethodGet, "/rid", map[string]string{requestIDHeader: strings.Repeat("x", 200)})
	if got := w.Header().Get(requestIDHeader); len(got) != 36 {
		t.Fatalf("oversized id should be replaced, got %q", got)
	}
}

func TestAccessLog_LevelsAndRedaction(t *testing.T) {
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), AccessLog(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/products/:id", withIdentity("user-42"), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/err", func(c *gin.Context) {
		_ = c.Error(errBoom)
		c.Status(http.StatusBadRequest)
	})

	do(r, http.MethodGet, "/products/1?email=jane@example.com&phone=212-555-1212&ref=2f1c6b1e-6b7a-4c1e-9a1d-3c5e7f9a1b2c", map[string]string{
		"Authorization": "Bearer secret",
		"X-Api-Key":     "k",
		"X-Contact":     "jane@example.com",
	})
	do(r, http.MethodGet, "/missing", nil)
	do(r, http.MethodGet, "/boom", nil)
	do(r, http.MethodGet, "/err", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 log lines, got %d:\n%s", len(lines), buf.String())
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("json: %v", err)
	}
	if first["level"] != "info" || first["path"] != "/products/:id" || first["user_id"] != "user-42" {
		t.Fatalf("first line = %v", first)
	}
	q, _ := first["query"].(string)
	for _, leak := range []string{"jane@example.com", "212-555-1212", "2f1c6b1e"} {
		if strings.Contains(q, leak) {
			t.Fatalf("query leaked %q: %s", leak, q)
		}
	}
	hdr, _ := first["headers"].(map[string]any)
	if hdr["Authorization"] != "[REDACTED]" || hdr["X-Api-Key"] != "[REDACTED]" || hdr["X-Contact"] != "[REDACTED:email]" {
		t.Fatalf("headers = %v", hdr)
	}

	for i, want := range []string{"warn", "error", "error"} {
		if !strings.Contains(lines[i+1], `"level":"`+want+`"`) {
			t.Fatalf("line %d: want %s, got %s", i+1, want, lines[i+1])
		}
	}
	if !strings.Contains(lines[1], `"path":"/missing"`) {
		t.Fatalf("unmatched route should log raw path: %s", lines[1])
	}
}

func TestRedact_UUIDBeforePhone(t *testing.T) {
	got := redact("id=123e4567-e89b-42d3-a456-426614174000")
	if got != "id=[REDACTED:id]" {
		t.Fatalf("redact = %q", got)
	}
	if redact("") != "" {
		t.Fatalf("empty input changed")
	}
}

func TestRecovery(t *testing.T) {
	buf := captureLogger(t)
	r := gin.New()
	r.Use(RequestID(), AccessLog(RedactOptions{}), Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })
	r.GET("/late", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late")
	})

	w := do(r, http.MethodGet, "/panic", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["code"] != "internal_error" || body["request_id"] != w.Header().Get(requestIDHeader) {
		t.Fatalf("body = %v", body)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("panic not logged:\n%s", buf.String())
	}

	w = do(r, http.MethodGet, "/late", nil)
	if strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("late panic must not append JSON: %q", w.Body.String())
	}
}

func TestLoggerFrom(t *testing.T) {
	buf := captureLogger(t)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/bare", func(c *gin.Context) { LoggerFrom(c).Info().Msg("bare") })
	r.GET("/scoped", AccessLog(RedactOptions{}), func(c *gin.Context) { LoggerFrom(c).Info().Msg("scoped") })

	do(r, http.MethodGet, "/bare", nil)
	if strings.Contains(buf.String(), `"request_id"`) {
		t.Fatalf("fallback logger should carry no request fields: %s", buf.String())
	}
	buf.Reset()
	do(r, http.MethodGet, "/scoped", nil)
	if !strings.Contains(buf.String(), `"message":"scoped"`) || !strings.Contains(buf.String(), `"request_id"`) {
		t.Fatalf("scoped logger missing fields: %s", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	if truncate("hello", 10) != "hello" || truncate("abc", 0) != "abc" {
		t.Fatalf("truncate changed short input")
	}
	if got := truncate("abcdefgh", 5); got != "abcde…" {
		t.Fatalf("truncate = %q", got)
	}
}
