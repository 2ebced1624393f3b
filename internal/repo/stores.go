package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
)

// ConversationStore adapts the package-level conversation functions to the
// method set expected by services.ConversationRepo.
type ConversationStore struct{}

// GetProduct forwards to GetProduct.
func (ConversationStore) GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	return GetProduct(ctx, db, id)
}

// UpsertConversation forwards to UpsertConversation.
func (ConversationStore) UpsertConversation(ctx context.Context, db *gorm.DB, productID, buyerID, sellerID string) (*domain.Conversation, bool, error) {
	return UpsertConversation(ctx, db, productID, buyerID, sellerID)
}

// ListConversationsForUser forwards to ListConversationsForUser.
func (ConversationStore) ListConversationsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error) {
	return ListConversationsForUser(ctx, db, userID)
}

// ConversationsStats forwards to ConversationsStats.
func (ConversationStore) ConversationsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return ConversationsStats(ctx, db, userID)
}
