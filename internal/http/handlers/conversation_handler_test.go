package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
	"github.com/tbourn/go-classifieds-backend/internal/services"
)

func sampleConversation(id, buyer, seller string) domain.Conversation {
	ts := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	return domain.Conversation{
		ID: id, ProductID: "p1", BuyerID: buyer, SellerID: seller,
		CreatedAt: ts, UpdatedAt: ts,
		Product: &domain.Product{ID: "p1", Title: "Road bike", SellerID: seller},
		Buyer:   &domain.User{ID: buyer, Name: "Bea"},
		Seller:  &domain.User{ID: seller, Name: "Sam"},
	}
}

func TestStartConversation(t *testing.T) {
	h := New(nil, nil, nil, stubConversations{
		start: func(uid, pid string) (*domain.Conversation, error) {
			switch {
			case pid == "":
				return nil, &services.ValidationError{Message: "Product ID is required to start a chat."}
			case pid == "missing":
				return nil, services.ErrProductNotFound
			case uid == "s1":
				return nil, services.ErrSelfConversation
			}
			cv := sampleConversation("c1", uid, "s1")
			cv.Buyer, cv.Seller = nil, nil
			return &cv, nil
		},
	}, nil)
	r := newTestRouter(h)

	w := call(r, http.MethodPost, "/chat/conversations", "b1", StartConversationRequest{ProductID: "p1"}, nil)
	wantStatus(t, w, http.StatusOK)
	cv := decode[ConversationResponse](t, w)
	if cv.ID != "c1" || cv.Product == nil || cv.Product.Title != "Road bike" {
		t.Fatalf("conversation=%+v", cv)
	}
	if cv.Product.Images == nil {
		t.Fatal("images must render as [] not null")
	}

	er := wantError(t, call(r, http.MethodPost, "/chat/conversations", "b1", map[string]any{}, nil), http.StatusBadRequest, ErrCodeBadRequest)
	if er.Message != "Product ID is required to start a chat." {
		t.Fatalf("message=%q", er.Message)
	}
	wantError(t, call(r, http.MethodPost, "/chat/conversations", "b1", StartConversationRequest{ProductID: "missing"}, nil), http.StatusNotFound, ErrCodeNotFound)
	wantError(t, call(r, http.MethodPost, "/chat/conversations", "s1", StartConversationRequest{ProductID: "p1"}, nil), http.StatusBadRequest, ErrCodeInvalidOperation)
}

func TestStartConversation_TokenChecks(t *testing.T) {
	h := New(nil, nil, nil, stubConversations{}, nil)
	r := newTestRouter(h)
	body := StartConversationRequest{ProductID: "p1"}

	wantError(t, call(r, http.MethodPost, "/chat/conversations", "", body, nil), http.StatusUnauthorized, ErrCodeUnauthorized)
	wantError(t, call(r, http.MethodPost, "/chat/conversations", "", body, map[string]string{"Authorization": "Bearer forged"}),
		http.StatusForbidden, ErrCodeInvalidToken)
}

func TestListConversations_ETag(t *testing.T) {
	latest := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	calls := 0
	h := New(nil, nil, nil, stubConversations{
		list: func(uid string) ([]domain.Conversation, error) {
			calls++
			return []domain.Conversation{sampleConversation("c1", uid, "s1")}, nil
		},
		stats: func(string) (int64, *time.Time, error) { return 1, &latest, nil },
	}, nil)
	r := newTestRouter(h)

	w := call(r, http.MethodGet, "/chat/conversations", "b1", nil, nil)
	wantStatus(t, w, http.StatusOK)
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	items := decode[[]ConversationResponse](t, w)
	if len(items) != 1 || items[0].Buyer == nil || items[0].Buyer.Name != "Bea" {
		t.Fatalf("items=%+v", items)
	}

	w = call(r, http.MethodGet, "/chat/conversations", "b1", nil, map[string]string{"If-None-Match": etag})
	wantStatus(t, w, http.StatusNotModified)
	if calls != 1 {
		t.Fatalf("list should not run on 304, calls=%d", calls)
	}
}

func TestListConversations_EmptyIsArray(t *testing.T) {
	h := New(nil, nil, nil, stubConversations{
		list:  func(string) ([]domain.Conversation, error) { return []domain.Conversation{}, nil },
		stats: func(string) (int64, *time.Time, error) { return 0, nil, nil },
	}, nil)
	w := call(newTestRouter(h), http.MethodGet, "/chat/conversations", "u1", nil, nil)
	wantStatus(t, w, http.StatusOK)
	if w.Body.String() != "[]" {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestUnseenCountAndMarkRead(t *testing.T) {
	h := New(nil, nil, nil, nil, stubMessages{
		unseen: func(string) (int64, error) { return 4, nil },
		markRead: func(cid, uid string) (int64, error) {
			if uid != "b1" {
				return 0, services.ErrNotParticipant
			}
			return 2, nil
		},
	})
	r := newTestRouter(h)

	w := call(r, http.MethodGet, "/chat/unseen/count", "b1", nil, nil)
	wantStatus(t, w, http.StatusOK)
	if got := decode[CountResponse](t, w); got.Count != 4 {
		t.Fatalf("count=%d", got.Count)
	}
	if cc := w.Header().Get("Cache-Control"); cc == "" {
		t.Fatal("unseen count must not be cached")
	}

	w = call(r, http.MethodPut, "/chat/conversations/c1/read", "b1", nil, nil)
	wantStatus(t, w, http.StatusOK)
	if got := decode[UpdatedResponse](t, w); got.Updated != 2 {
		t.Fatalf("updated=%d", got.Updated)
	}
	wantError(t, call(r, http.MethodPut, "/chat/conversations/c1/read", "x", nil, nil), http.StatusForbidden, ErrCodeForbidden)
}
