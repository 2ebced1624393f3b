package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
)

func TestGetIdempotency_EmptyConversation_ReturnsNotFound(t *testing.T) {
	db := newRepoDB(t, true)
	if _, err := GetIdempotency(context.Background(), db, "u1", "  ", "k", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIdempotency_CreateGetDuplicateExpire(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()

	now := time.Now().UTC()
	rec, err := CreateIdempotency(ctx, db, "u1", "c1", "k1", "m1", 201, now, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ExpiresAt.Sub(rec.CreatedAt) != time.Hour {
		t.Fatalf("unexpected ttl: %v", rec.ExpiresAt.Sub(rec.CreatedAt))
	}

	got, err := GetIdempotency(ctx, db, "u1", "c1", "k1", now.Add(time.Minute))
	if err != nil || got.MessageID != "m1" || got.Status != 201 {
		t.Fatalf("GetIdempotency: got=%+v err=%v", got, err)
	}

	if _, err := CreateIdempotency(ctx, db, "u1", "c1", "k1", "m2", 201, now.Add(time.Minute), time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Looking up after expiry behaves as missing.
	later := now.Add(2 * time.Hour)
	if _, err := GetIdempotency(ctx, db, "u1", "c1", "k1", later); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
	n, err := PurgeExpiredIdempotency(ctx, db, later)
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpiredIdempotency: n=%d err=%v", n, err)
	}
}

func TestCreateIdempotency_Error_NoTable(t *testing.T) {
	db := newRepoDB(t, false)
	if _, err := CreateIdempotency(context.Background(), db, "u", "c", "k", "m", 201, time.Now(), time.Hour); err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected a plain DB error, got %v", err)
	}
}

func TestCreateIdempotency_ReplacesExpiredRecord(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	if _, err := CreateIdempotency(ctx, db, "u1", "c1", "k1", "m1", 201, t0, time.Minute); err != nil {
		t.Fatalf("first: %v", err)
	}
	// Same key after expiry, before any purge.
	t1 := t0.Add(2 * time.Minute)
	rec, err := CreateIdempotency(ctx, db, "u1", "c1", "k1", "m2", 201, t1, time.Minute)
	if err != nil {
		t.Fatalf("reuse after expiry: %v", err)
	}
	if !rec.ExpiresAt.Equal(t1.Add(time.Minute)) {
		t.Fatalf("expires_at = %v; want %v", rec.ExpiresAt, t1.Add(time.Minute))
	}

	got, err := GetIdempotency(ctx, db, "u1", "c1", "k1", t1)
	if err != nil || got.MessageID != "m2" {
		t.Fatalf("lookup: got=%+v err=%v", got, err)
	}
	var n int64
	db.Model(&domain.Idempotency{}).Count(&n)
	if n != 1 {
		t.Fatalf("rows = %d; want 1", n)
	}
}
