// Package services – ConversationService
//
// This file implements the ConversationService, which opens buyer/seller
// threads about a product and lists the threads a user takes part in.
//
// Starting a conversation is idempotent: the repository performs an atomic
// upsert keyed by (product, buyer), so repeat or concurrent contacts converge
// on a single row. The service never checks-then-inserts.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
	"github.com/tbourn/go-classifieds-backend/internal/observability"
	"github.com/tbourn/go-classifieds-backend/internal/repo"
)

// ConversationRepo defines the repository contract required by
// ConversationService.
type ConversationRepo interface {
	// GetProduct fetches a product by ID or returns repo.ErrNotFound.
	GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error)

	// UpsertConversation returns the (product, buyer) conversation, creating
	// it atomically when absent. created reports whether a row was inserted.
	UpsertConversation(ctx context.Context, db *gorm.DB, productID, buyerID, sellerID string) (*domain.Conversation, bool, error)

	// ListConversationsForUser returns conversations where the user is buyer
	// or seller, most recently active first.
	ListConversationsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error)

	// ConversationsStats returns the count and the newest UpdatedAt across the
	// conversations and their embedded products and users, for ETags.
	ConversationsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error)
}

// ConversationService opens and lists conversations.
type ConversationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the conversation repository used by this service.
	Repo ConversationRepo
}

// NewConversationService constructs a ConversationService.
func NewConversationService(db *gorm.DB, r ConversationRepo) *ConversationService {
	return &ConversationService{DB: db, Repo: r}
}

// StartOrGet returns the conversation between buyerID and the owner of
// productID, creating it on first contact.
//
// Errors:
//   - ValidationError when productID is empty
//   - ErrProductNotFound when the product does not exist
//   - ErrSelfConversation when the buyer owns the product (no row is created)
func (s *ConversationService) StartOrGet(ctx context.Context, buyerID, productID string) (*domain.Conversation, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "StartOrGet",
		trace.WithAttributes(
			attribute.String("user.id", buyerID),
			attribute.String("product.id", productID),
		),
	)
	defer span.End()

	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, invalid("Product ID is required to start a chat.")
	}

	product, err := s.Repo.GetProduct(ctx, s.DB, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	if product.SellerID == buyerID {
		return nil, ErrSelfConversation
	}

	conv, created, err := s.Repo.UpsertConversation(ctx, s.DB, product.ID, buyerID, product.SellerID)
	if err != nil {
		return nil, err
	}
	if created {
		observability.ConversationsStarted.Inc()
	}
	span.SetAttributes(
		attribute.String("conversation.id", conv.ID),
		attribute.Bool("conversation.created", created),
	)
	return conv, nil
}

// List returns every conversation userID takes part in, most recently active
// first. The result is never nil.
func (s *ConversationService) List(ctx context.Context, userID string) ([]domain.Conversation, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "List", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	out, err := s.Repo.ListConversationsForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Conversation{}
	}
	return out, nil
}

// Stats returns the conversation count and latest activity for userID, used
// to build a weak ETag for List.
func (s *ConversationService) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return s.Repo.ConversationsStats(ctx, s.DB, userID)
}
