package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
	"github.com/tbourn/go-classifieds-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AccountService manages registration, login and the caller's profile.
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, patch services.ProfilePatch) (*domain.User, error)
}

// CatalogService manages categories and product listings.
type CatalogService interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	List(ctx context.Context, q services.ProductQuery) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, sellerID string, in services.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id, sellerID string, patch services.ProductPatch) (*domain.Product, error)
	MarkSold(ctx context.Context, id, sellerID string) (*domain.Product, error)
	Delete(ctx context.Context, id, sellerID string) error
	Mine(ctx context.Context, sellerID string) ([]domain.Product, error)
}

// FavoriteService toggles and lists saved products.
type FavoriteService interface {
	Toggle(ctx context.Context, userID, productID string) (bool, error)
	List(ctx context.Context, userID string) ([]domain.Product, error)
}

// ConversationService opens and lists buyer/seller threads.
type ConversationService interface {
	StartOrGet(ctx context.Context, buyerID, productID string) (*domain.Conversation, error)
	List(ctx context.Context, userID string) ([]domain.Conversation, error)
	Stats(ctx context.Context, userID string) (int64, *time.Time, error)
}

// MessageService reads and appends messages within a conversation.
type MessageService interface {
	List(ctx context.Context, conversationID, callerID string) ([]domain.Message, error)
	SendIdempotent(ctx context.Context, conversationID, senderID, content, key string) (*domain.Message, bool, error)
	Stats(ctx context.Context, conversationID, callerID string) (count, unread int64, latest *time.Time, err error)
	UnseenCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, conversationID, userID string) (int64, error)
}

//
// Handler wiring
//

// Handlers groups every API endpoint. It depends only on the service
// contracts above.
type Handlers struct {
	accounts AccountService
	catalog  CatalogService
	favs     FavoriteService
	convs    ConversationService
	msgs     MessageService
}

// New constructs a Handlers bound to the given services.
func New(accounts AccountService, catalog CatalogService, favs FavoriteService, convs ConversationService, msgs MessageService) *Handlers {
	return &Handlers{accounts: accounts, catalog: catalog, favs: favs, convs: convs, msgs: msgs}
}
