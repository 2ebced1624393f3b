package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
	"github.com/tbourn/go-classifieds-backend/internal/repo"
)

// FavoriteService keeps the per-user list of saved products.
type FavoriteService struct {
	DB *gorm.DB
}

// NewFavoriteService constructs a FavoriteService.
func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{DB: db}
}

// Toggle adds productID to the user's favorites, or removes it when already
// present, and reports the resulting state.
func (s *FavoriteService) Toggle(ctx context.Context, userID, productID string) (favorited bool, err error) {
	tr := otel.Tracer("services/FavoriteService")
	ctx, span := tr.Start(ctx, "Toggle",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("product.id", productID),
		),
	)
	defer span.End()

	productID = strings.TrimSpace(productID)
	if productID == "" {
		return false, invalid("Product ID is required.")
	}

	removed, err := repo.DeleteFavorite(ctx, s.DB, userID, productID)
	if err != nil {
		return false, err
	}
	if removed {
		return false, nil
	}

	if _, err := repo.GetProduct(ctx, s.DB, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, ErrProductNotFound
		}
		return false, err
	}
	if err := repo.AddFavorite(ctx, s.DB, userID, productID); err != nil {
		return false, err
	}
	return true, nil
}

// List returns the user's favorite products, newest listing first.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]domain.Product, error) {
	tr := otel.Tracer("services/FavoriteService")
	ctx, span := tr.Start(ctx, "List", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	return repo.ListFavoriteProducts(ctx, s.DB, userID)
}
