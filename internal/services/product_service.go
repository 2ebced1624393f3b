// Package services – CatalogService
//
// This file implements the product catalog: listing creation and browsing,
// owner-only updates, marking items sold, and deletion together with every
// favorite, conversation and message that refers to the product.
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

// Browsing limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ProductInput is the payload accepted by Create.
type ProductInput struct {
	Title       string   `json:"title"       validate:"required,min=5,max=100"`
	Description string   `json:"description" validate:"required,min=20,max=1000"`
	Price       float64  `json:"price"       validate:"gt=0"`
	Location    string   `json:"location"    validate:"required,min=2,max=100"`
	Images      []string `json:"images"      validate:"required,min=1,max=10,dive,required,url"`
	CategoryID  uint     `json:"categoryId"  validate:"required,gt=0"`
}

// ProductPatch lists the fields an owner may change. Nil fields are left
// untouched.
type ProductPatch struct {
	Title       *string  `json:"title"       validate:"omitnil,min=5,max=100"`
	Description *string  `json:"description" validate:"omitnil,min=20,max=1000"`
	Price       *float64 `json:"price"       validate:"omitnil,gt=0"`
	Location    *string  `json:"location"    validate:"omitnil,min=2,max=100"`
	Images      []string `json:"images"      validate:"omitempty,min=1,max=10,dive,required,url"`
	CategoryID  *uint    `json:"categoryId"  validate:"omitnil,gt=0"`
	IsSold      *bool    `json:"isSold"`
}

// ProductQuery holds the browse parameters accepted by List.
type ProductQuery struct {
	Search     string
	CategoryID uint
	Location   string
	SortBy     string
	Page       int
	Limit      int
}

// CatalogService manages products and categories.
type CatalogService struct {
	DB *gorm.DB
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

// Create validates in and stores a new listing owned by sellerID.
//
// Errors:
//   - ValidationError on malformed input
//   - ErrInvalidCategory when the category does not exist
func (s *CatalogService) Create(ctx context.Context, sellerID string, in ProductInput) (*domain.Product, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Create", trace.WithAttributes(attribute.String("user.id", sellerID)))
	defer span.End()

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	p := &domain.Product{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Location:    in.Location,
		Images:      in.Images,
		CategoryID:  in.CategoryID,
		SellerID:    sellerID,
	}
	if err := repo.CreateProduct(ctx, s.DB, p); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("product.id", p.ID))
	return p, nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id uint) error {
	exists, err := repo.CategoryExists(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrInvalidCategory
	}
	return nil
}

// List returns unsold products matching q. Page and Limit are clamped to
// [1, ∞) and [1, MaxPageSize]; zero values select the defaults.
func (s *CatalogService) List(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("search", q.Search),
			attribute.Int("page", q.Page),
			attribute.Int("limit", q.Limit),
		),
	)
	defer span.End()

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	sortBy := q.SortBy
	switch sortBy {
	case repo.SortPriceAsc, repo.SortPriceDesc, repo.SortNewest:
	default:
		sortBy = repo.SortNewest
	}

	return repo.ListProducts(ctx, s.DB, repo.ProductFilter{
		Search:     normalizeKey(q.Search),
		CategoryID: q.CategoryID,
		Location:   normalizeKey(q.Location),
		SortBy:     sortBy,
		Offset:     (page - 1) * limit,
		Limit:      limit,
	})
}

// Get returns a product with its category and seller summary.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	p, err := repo.GetProductDetail(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// owned loads product id and checks that sellerID owns it.
func (s *CatalogService) owned(ctx context.Context, id, sellerID string) (*domain.Product, error) {
	p, err := repo.GetProduct(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.SellerID != sellerID {
		return nil, ErrForbidden
	}
	return p, nil
}

// Update applies patch to a product owned by sellerID.
//
// Errors: ErrProductNotFound, ErrForbidden, ValidationError, ErrInvalidCategory.
func (s *CatalogService) Update(ctx context.Context, id, sellerID string, patch ProductPatch) (*domain.Product, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(
			attribute.String("product.id", id),
			attribute.String("user.id", sellerID),
		),
	)
	defer span.End()

	current, err := s.owned(ctx, id, sellerID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Title != nil {
		v := strings.TrimSpace(*patch.Title)
		patch.Title, fields["title"] = &v, v
	}
	if patch.Description != nil {
		v := strings.TrimSpace(*patch.Description)
		patch.Description, fields["description"] = &v, v
	}
	if patch.Location != nil {
		v := strings.TrimSpace(*patch.Location)
		patch.Location, fields["location"] = &v, v
	}
	if patch.Price != nil {
		fields["price"] = *patch.Price
	}
	if patch.IsSold != nil {
		fields["is_sold"] = *patch.IsSold
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	if len(patch.Images) > 0 {
		fields["images"] = patch.Images
	}
	if patch.CategoryID != nil {
		if err := s.checkCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *patch.CategoryID
	}
	if len(fields) == 0 {
		return current, nil
	}
	return repo.UpdateProduct(ctx, s.DB, id, fields)
}

// MarkSold flags a product owned by sellerID as sold.
func (s *CatalogService) MarkSold(ctx context.Context, id, sellerID string) (*domain.Product, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "MarkSold",
		trace.WithAttributes(
			attribute.String("product.id", id),
			attribute.String("user.id", sellerID),
		),
	)
	defer span.End()

	if _, err := s.owned(ctx, id, sellerID); err != nil {
		return nil, err
	}
	return repo.UpdateProduct(ctx, s.DB, id, map[string]any{"is_sold": true})
}

// Delete removes a product owned by sellerID together with its favorites,
// conversations and messages. Deleting a product that does not exist
// succeeds.
func (s *CatalogService) Delete(ctx context.Context, id, sellerID string) error {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("product.id", id),
			attribute.String("user.id", sellerID),
		),
	)
	defer span.End()

	if _, err := s.owned(ctx, id, sellerID); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil
		}
		return err
	}
	return repo.DeleteProductCascade(ctx, s.DB, id)
}

// Mine returns every product listed by sellerID, sold ones included.
func (s *CatalogService) Mine(ctx context.Context, sellerID string) ([]domain.Product, error) {
	return repo.ListProductsBySeller(ctx, s.DB, sellerID)
}
