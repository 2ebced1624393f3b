package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestIdempotencyValidator(t *testing.T) {
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{MaxLen: 16}))
	r.POST("/x", func(c *gin.Context) {
		key, ok := GetIdempotencyKey(c)
		c.JSON(http.StatusOK, gin.H{"key": key, "ok": ok})
	})

	w := do(r, http.MethodPost, "/x", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":false`) {
		t.Fatalf("no header: %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/x", map[string]string{HeaderIdempotencyKey: "abc-123:x"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"key":"abc-123:x"`) {
		t.Fatalf("valid key: %d %s", w.Code, w.Body.String())
	}

	for _, bad := range []string{strings.Repeat("a", 17), "has space", "semi;colon"} {
		w = do(r, http.MethodPost, "/x", map[string]string{HeaderIdempotencyKey: bad})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("key %q: status %d; want 400", bad, w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["code"] != "bad_request" {
			t.Fatalf("key %q: body %v", bad, body)
		}
	}
}

func TestIdempotencyValidator_CustomPattern(t *testing.T) {
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if w := do(r, http.MethodPost, "/x", map[string]string{HeaderIdempotencyKey: "123"}); w.Code != http.StatusNoContent {
		t.Fatalf("digits: %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/x", map[string]string{HeaderIdempotencyKey: "abc"}); w.Code != http.StatusBadRequest {
		t.Fatalf("alpha: %d", w.Code)
	}
}

type lookupCall struct {
	user, conv, key string
}

func TestIdempotentReplay(t *testing.T) {
	var calls []lookupCall
	lookup := func(_ context.Context, user, conv, key string, _ time.Time) (bool, error) {
		calls = append(calls, lookupCall{user, conv, key})
		switch key {
		case "seen":
			return true, nil
		case "broken":
			return true, errBoom
		}
		return false, nil
	}

	build := func(uid string) *gin.Engine {
		r := gin.New()
		r.Use(IdempotencyValidator(IdempotencyOptions{}))
		r.POST("/c/:id/m", withIdentity(uid), IdempotentReplay(lookup), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"bypass": IsRateBypass(c)})
		})
		return r
	}

	r := build("u1")
	w := do(r, http.MethodPost, "/c/conv-1/m", map[string]string{HeaderIdempotencyKey: "seen"})
	if !strings.Contains(w.Body.String(), `"bypass":true`) {
		t.Fatalf("seen: %s", w.Body.String())
	}
	if len(calls) != 1 || calls[0] != (lookupCall{"u1", "conv-1", "seen"}) {
		t.Fatalf("calls = %+v", calls)
	}

	for _, key := range []string{"fresh", "broken"} {
		w = do(r, http.MethodPost, "/c/conv-1/m", map[string]string{HeaderIdempotencyKey: key})
		if !strings.Contains(w.Body.String(), `"bypass":false`) {
			t.Fatalf("%s: %s", key, w.Body.String())
		}
	}

	calls = nil
	do(r, http.MethodPost, "/c/conv-1/m", nil)
	do(build(""), http.MethodPost, "/c/conv-1/m", map[string]string{HeaderIdempotencyKey: "seen"})
	if len(calls) != 0 {
		t.Fatalf("lookup must be skipped without key or identity: %+v", calls)
	}
}
