package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
	"github.com/tbourn/go-classifieds-backend/internal/http/middleware"
	"github.com/tbourn/go-classifieds-backend/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

var errBoom = errors.New("boom")

// ---------- stub verifier: "good-<uid>" authenticates as <uid> ----------

type stubVerifier struct{}

func (stubVerifier) Verify(tok string) (string, error) {
	if uid, found := strings.CutPrefix(tok, "good-"); found && uid != "" {
		return uid, nil
	}
	return "", errors.New("bad token")
}

// ---------- service stubs ----------

type stubAccounts struct {
	register func(services.RegisterInput) (*services.AuthResult, error)
	login    func(email, password string) (*services.AuthResult, error)
	profile  func(uid string) (*domain.User, error)
	update   func(uid string, p services.ProfilePatch) (*domain.User, error)
}

func (s stubAccounts) Register(_ context.Context, in services.RegisterInput) (*services.AuthResult, error) {
	return s.register(in)
}
func (s stubAccounts) Login(_ context.Context, email, pw string) (*services.AuthResult, error) {
	return s.login(email, pw)
}
func (s stubAccounts) Profile(_ context.Context, uid string) (*domain.User, error) {
	return s.profile(uid)
}
func (s stubAccounts) UpdateProfile(_ context.Context, uid string, p services.ProfilePatch) (*domain.User, error) {
	return s.update(uid, p)
}

type stubCatalog struct {
	categories func() ([]domain.Category, error)
	list       func(services.ProductQuery) ([]domain.Product, error)
	get        func(id string) (*domain.Product, error)
	create     func(uid string, in services.ProductInput) (*domain.Product, error)
	update     func(id, uid string, p services.ProductPatch) (*domain.Product, error)
	markSold   func(id, uid string) (*domain.Product, error)
	del        func(id, uid string) error
	mine       func(uid string) ([]domain.Product, error)
}

func (s stubCatalog) Categories(context.Context) ([]domain.Category, error) { return s.categories() }
func (s stubCatalog) List(_ context.Context, q services.ProductQuery) ([]domain.Product, error) {
	return s.list(q)
}
func (s stubCatalog) Get(_ context.Context, id string) (*domain.Product, error) { return s.get(id) }
func (s stubCatalog) Create(_ context.Context, uid string, in services.ProductInput) (*domain.Product, error) {
	return s.create(uid, in)
}
func (s stubCatalog) Update(_ context.Context, id, uid string, p services.ProductPatch) (*domain.Product, error) {
	return s.update(id, uid, p)
}
func (s stubCatalog) MarkSold(_ context.Context, id, uid string) (*domain.Product, error) {
	return s.markSold(id, uid)
}
func (s stubCatalog) Delete(_ context.Context, id, uid string) error { return s.del(id, uid) }
func (s stubCatalog) Mine(_ context.Context, uid string) ([]domain.Product, error) {
	return s.mine(uid)
}

type stubFavorites struct {
	toggle func(uid, pid string) (bool, error)
	list   func(uid string) ([]domain.Product, error)
}

func (s stubFavorites) Toggle(_ context.Context, uid, pid string) (bool, error) {
	return s.toggle(uid, pid)
}
func (s stubFavorites) List(_ context.Context, uid string) ([]domain.Product, error) {
	return s.list(uid)
}

type stubConversations struct {
	start func(uid, pid string) (*domain.Conversation, error)
	list  func(uid string) ([]domain.Conversation, error)
	stats func(uid string) (int64, *time.Time, error)
}

func (s stubConversations) StartOrGet(_ context.Context, uid, pid string) (*domain.Conversation, error) {
	return s.start(uid, pid)
}
func (s stubConversations) List(_ context.Context, uid string) ([]domain.Conversation, error) {
	return s.list(uid)
}
func (s stubConversations) Stats(_ context.Context, uid string) (int64, *time.Time, error) {
	return s.stats(uid)
}

type stubMessages struct {
	list     func(cid, uid string) ([]domain.Message, error)
	send     func(cid, uid, content, key string) (*domain.Message, bool, error)
	stats    func(cid, uid string) (int64, int64, *time.Time, error)
	unseen   func(uid string) (int64, error)
	markRead func(cid, uid string) (int64, error)
}

func (s stubMessages) List(_ context.Context, cid, uid string) ([]domain.Message, error) {
	return s.list(cid, uid)
}
func (s stubMessages) SendIdempotent(_ context.Context, cid, uid, content, key string) (*domain.Message, bool, error) {
	return s.send(cid, uid, content, key)
}
func (s stubMessages) Stats(_ context.Context, cid, uid string) (int64, int64, *time.Time, error) {
	return s.stats(cid, uid)
}
func (s stubMessages) UnseenCount(_ context.Context, uid string) (int64, error) {
	return s.unseen(uid)
}
func (s stubMessages) MarkRead(_ context.Context, cid, uid string) (int64, error) {
	return s.markRead(cid, uid)
}

// ---------- router + request helpers ----------

// newTestRouter mounts h the way the real router does, minus the global
// middleware that is tested on its own.
func newTestRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}))

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/categories", h.ListCategories)
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)

	p := r.Group("", middleware.Authenticate(stubVerifier{}))
	p.GET("/auth/me", h.Me)
	p.PUT("/auth/me", h.UpdateMe)
	p.GET("/auth/me/products", h.MyProducts)
	p.POST("/products", h.CreateProduct)
	p.PUT("/products/:id", h.UpdateProduct)
	p.PATCH("/products/:id/sold", h.MarkProductSold)
	p.DELETE("/products/:id", h.DeleteProduct)
	p.POST("/favorites", h.ToggleFavorite)
	p.GET("/favorites", h.ListFavorites)
	p.POST("/chat/conversations", h.StartConversation)
	p.GET("/chat/conversations", h.ListConversations)
	p.GET("/chat/unseen/count", h.UnseenCount)
	p.GET("/chat/conversations/:id/messages", h.ListMessages)
	p.POST("/chat/conversations/:id/messages", h.SendMessage)
	p.PUT("/chat/conversations/:id/read", h.MarkRead)
	return r
}

// call performs a request. uid "" sends no Authorization header; body is
// JSON-encoded unless it is already a string.
func call(r http.Handler, method, path, uid string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("Authorization", "Bearer good-"+uid)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body=%s)", v, err, w.Body.String())
	}
	return v
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("status=%d want %d body=%s", w.Code, code, w.Body.String())
	}
}

func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	wantStatus(t, w, status)
	er := decode[ErrorResponse](t, w)
	if er.Code != code {
		t.Fatalf("code=%q want %q (message=%q)", er.Code, code, er.Message)
	}
	return er
}

func strPtr(s string) *string { return &s }
