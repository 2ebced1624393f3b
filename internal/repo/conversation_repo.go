// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Functions:
//
//   - UpsertConversation(ctx, db, productID, buyerID, sellerID) -> *domain.Conversation, created, error
//     Atomic find-or-create keyed by the (product_id, buyer_id) unique index.
//
//   - GetConversation(ctx, db, id) -> *domain.Conversation, error
//     Fetches a conversation by ID, or ErrNotFound if missing.
//
//   - ListConversationsForUser(ctx, db, userID) -> []domain.Conversation, error
//     Conversations where the user is buyer or seller, most recently active first.
//
//   - TouchConversation(ctx, db, id, at) -> error
//     Moves updated_at forward; called in the same transaction as a message insert.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
)

func productSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "title", "images", "seller_id")
}

func participantSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name")
}

// UpsertConversation returns the conversation for (productID, buyerID),
// creating it when absent. The insert uses ON CONFLICT DO NOTHING against the
// composite unique index and the row is then read back by key, so concurrent
// callers always converge on a single row. created reports whether this call
// inserted it.
//
// The returned conversation has its product summary preloaded.
func UpsertConversation(ctx context.Context, db *gorm.DB, productID, buyerID, sellerID string) (*domain.Conversation, bool, error) {
	now := time.Now().UTC()
	c := &domain.Conversation{
		ID:        uuid.NewString(),
		ProductID: productID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "buyer_id"}},
			DoNothing: true,
		}).
		Omit("Product", "Buyer", "Seller").
		Create(c)
	if res.Error != nil {
		return nil, false, res.Error
	}

	var out domain.Conversation
	err := db.WithContext(ctx).
		Preload("Product", productSummary).
		Where("product_id = ? AND buyer_id = ?", productID, buyerID).
		First(&out).Error
	if err != nil {
		return nil, false, err
	}
	return &out, res.RowsAffected > 0, nil
}

// GetConversation fetches a conversation by ID. Missing rows return
// ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversationsForUser returns every conversation in which userID is the
// buyer or the seller, ordered by updated_at descending (id breaks ties).
// Product, buyer and seller summaries are preloaded. The result is never nil.
func ListConversationsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error) {
	out := []domain.Conversation{}
	err := db.WithContext(ctx).
		Preload("Product", productSummary).
		Preload("Buyer", participantSummary).
		Preload("Seller", participantSummary).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("updated_at DESC").
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// TouchConversation sets updated_at of conversation id to at. It returns
// ErrNotFound when no row matched.
func TouchConversation(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
