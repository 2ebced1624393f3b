package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
	"github.com/tbourn/go-classifieds-backend/internal/repo"
)

// ----- Fake repo -----

type fakeConvRepo struct {
	product    *domain.Product
	productErr error

	upsertCalls int
	upsertErr   error

	listOut []domain.Conversation
	listErr error
}

func (r *fakeConvRepo) GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	return r.product, r.productErr
}

func (r *fakeConvRepo) UpsertConversation(ctx context.Context, db *gorm.DB, productID, buyerID, sellerID string) (*domain.Conversation, bool, error) {
	r.upsertCalls++
	if r.upsertErr != nil {
		return nil, false, r.upsertErr
	}
	return &domain.Conversation{ID: "conv-1", ProductID: productID, BuyerID: buyerID, SellerID: sellerID}, true, nil
}

func (r *fakeConvRepo) ListConversationsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error) {
	return r.listOut, r.listErr
}

func (r *fakeConvRepo) ConversationsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return int64(len(r.listOut)), nil, r.listErr
}

// ----- Tests -----

func TestStartOrGet_Validation(t *testing.T) {
	svc := NewConversationService(nil, &fakeConvRepo{})
	_, err := svc.StartOrGet(context.Background(), "buyer", "   ")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v; want ErrValidation", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Message != "Product ID is required to start a chat." {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestStartOrGet_ProductNotFound(t *testing.T) {
	svc := NewConversationService(nil, &fakeConvRepo{productErr: repo.ErrNotFound})
	if _, err := svc.StartOrGet(context.Background(), "buyer", "p1"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("err = %v; want ErrProductNotFound", err)
	}
}

func TestStartOrGet_SelfConversation_NoUpsert(t *testing.T) {
	fr := &fakeConvRepo{product: &domain.Product{ID: "p1", SellerID: "seller"}}
	svc := NewConversationService(nil, fr)
	if _, err := svc.StartOrGet(context.Background(), "seller", "p1"); !errors.Is(err, ErrSelfConversation) {
		t.Fatalf("err = %v; want ErrSelfConversation", err)
	}
	if fr.upsertCalls != 0 {
		t.Fatalf("upsert called %d times; want 0", fr.upsertCalls)
	}
}

func TestStartOrGet_RepoErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	svc := NewConversationService(nil, &fakeConvRepo{productErr: boom})
	if _, err := svc.StartOrGet(context.Background(), "b", "p1"); !errors.Is(err, boom) {
		t.Fatalf("err = %v; want boom", err)
	}

	svc = NewConversationService(nil, &fakeConvRepo{
		product:   &domain.Product{ID: "p1", SellerID: "s"},
		upsertErr: boom,
	})
	if _, err := svc.StartOrGet(context.Background(), "b", "p1"); !errors.Is(err, boom) {
		t.Fatalf("err = %v; want boom", err)
	}
}

func TestConversationList_NeverNil(t *testing.T) {
	svc := NewConversationService(nil, &fakeConvRepo{})
	out, err := svc.List(context.Background(), "u")
	if err != nil || out == nil || len(out) != 0 {
		t.Fatalf("List = %v, %v; want empty non-nil", out, err)
	}
}

func TestStartOrGet_Idempotent_DB(t *testing.T) {
	db := newServiceDB(t)
	seller := seedUser(t, db, "seller")
	buyer := seedUser(t, db, "buyer")
	p := seedProduct(t, db, seller.ID, "Mountain bike")
	svc := NewConversationService(db, repo.ConversationStore{})

	first, err := svc.StartOrGet(context.Background(), buyer.ID, p.ID)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.StartOrGet(context.Background(), buyer.ID, p.ID)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids differ: %s vs %s", first.ID, second.ID)
	}
	if first.SellerID != seller.ID || first.BuyerID != buyer.ID {
		t.Fatalf("participants wrong: %+v", first)
	}
}

func TestStartOrGet_Concurrent_SingleRow(t *testing.T) {
	db := newServiceDB(t)
	seller := seedUser(t, db, "seller")
	buyer := seedUser(t, db, "buyer")
	p := seedProduct(t, db, seller.ID, "Office chair")
	svc := NewConversationService(db, repo.ConversationStore{})

	const n = 8
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := svc.StartOrGet(context.Background(), buyer.ID, p.ID)
			errs[i] = err
			if c != nil {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("call %d returned %s; want %s", i, ids[i], ids[0])
		}
	}
	var count int64
	db.Model(&domain.Conversation{}).Count(&count)
	if count != 1 {
		t.Fatalf("rows = %d; want 1", count)
	}
}

func TestStartOrGet_SelfConversation_DB(t *testing.T) {
	db := newServiceDB(t)
	seller := seedUser(t, db, "seller")
	p := seedProduct(t, db, seller.ID, "Desk lamp")
	svc := NewConversationService(db, repo.ConversationStore{})

	if _, err := svc.StartOrGet(context.Background(), seller.ID, p.ID); !errors.Is(err, ErrSelfConversation) {
		t.Fatalf("err = %v; want ErrSelfConversation", err)
	}
	var count int64
	db.Model(&domain.Conversation{}).Count(&count)
	if count != 0 {
		t.Fatalf("rows = %d; want 0", count)
	}
}

func TestConversationList_BothRoles_DB(t *testing.T) {
	db := newServiceDB(t)
	seller := seedUser(t, db, "seller")
	buyer := seedUser(t, db, "buyer")
	other := seedUser(t, db, "other")
	p := seedProduct(t, db, seller.ID, "Guitar amp")
	svc := NewConversationService(db, repo.ConversationStore{})

	if _, err := svc.StartOrGet(context.Background(), buyer.ID, p.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, uid := range []string{seller.ID, buyer.ID} {
		out, err := svc.List(context.Background(), uid)
		if err != nil || len(out) != 1 {
			t.Fatalf("List(%s) = %d, %v; want 1", uid, len(out), err)
		}
	}
	out, err := svc.List(context.Background(), other.ID)
	if err != nil || len(out) != 0 {
		t.Fatalf("List(other) = %d, %v; want 0", len(out), err)
	}
}
