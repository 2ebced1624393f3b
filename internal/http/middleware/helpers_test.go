package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-classifieds-backend/internal/auth"
)

func init() { gin.SetMode(gin.TestMode) }

// captureLogger swaps the global logger for a JSON buffer for one test.
func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

// stubVerifier accepts "good-<uid>" tokens.
type stubVerifier struct{}

func (stubVerifier) Verify(tok string) (string, error) {
	const p = "good-"
	if len(tok) > len(p) && tok[:len(p)] == p {
		return tok[len(p):], nil
	}
	return "", auth.ErrInvalidToken
}

// withIdentity fakes Authenticate for tests that only need a caller.
func withIdentity(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid != "" {
			c.Set(identityKey, auth.Identity{UserID: uid})
		}
		c.Next()
	}
}

func do(r http.Handler, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

var errBoom = errors.New("boom")
