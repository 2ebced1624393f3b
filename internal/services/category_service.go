package services

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
	"github.com/tbourn/go-classifieds-backend/internal/repo"
)

// Categories returns the listing categories ordered by id. The set is seeded
// at startup and never changes at runtime.
func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Categories")
	defer span.End()

	return repo.ListCategories(ctx, s.DB)
}
