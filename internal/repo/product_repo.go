// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Product
// model: creation, filtered browsing, ownership-scoped updates, and the
// transactional cascade delete.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
)

// Product sort orders accepted by ListProducts.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "priceAsc"
	SortPriceDesc = "priceDesc"
)

// ProductFilter narrows ListProducts. Search and Location are matched
// case-insensitively and must already be lower-cased by the caller.
type ProductFilter struct {
	Search     string
	CategoryID uint
	Location   string
	SortBy     string
	Offset     int
	Limit      int
}

// sellerSummary restricts the preloaded seller to public profile columns.
func sellerSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "location", "phone")
}

// CreateProduct inserts p with a fresh UUID and UTC timestamps.
func CreateProduct(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.IsSold = false
	p.CreatedAt = now
	p.UpdatedAt = now
	return db.WithContext(ctx).Omit("Category", "Seller").Create(p).Error
}

// ListProducts returns unsold products matching f, with category and seller
// summary preloaded.
func ListProducts(ctx context.Context, db *gorm.DB, f ProductFilter) ([]domain.Product, error) {
	q := db.WithContext(ctx).
		Model(&domain.Product{}).
		Preload("Category").
		Preload("Seller", sellerSummary).
		Where("is_sold = ?", false)

	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if f.CategoryID > 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Location != "" {
		q = q.Where("LOWER(location) = ?", f.Location)
	}

	switch f.SortBy {
	case SortPriceAsc:
		q = q.Order("price ASC").Order("id ASC")
	case SortPriceDesc:
		q = q.Order("price DESC").Order("id ASC")
	default:
		q = q.Order("created_at DESC").Order("id ASC")
	}
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}

	out := []domain.Product{}
	err := q.Find(&out).Error
	return out, err
}

// GetProduct fetches a single product by ID without associations.
func GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductDetail fetches a product with its category and seller summary.
func GetProductDetail(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).
		Preload("Category").
		Preload("Seller", sellerSummary).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct applies fields to product id and returns the fresh row. An
// "images" entry must be a []string; it is written through the column's JSON
// serializer, which map updates would otherwise bypass.
func UpdateProduct(ctx context.Context, db *gorm.DB, id string, fields map[string]any) (*domain.Product, error) {
	images, hasImages := fields["images"].([]string)
	delete(fields, "images")
	fields["updated_at"] = time.Now().UTC()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Product{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if hasImages {
			return tx.Model(&domain.Product{ID: id}).
				Select("images").
				Updates(&domain.Product{Images: images}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetProduct(ctx, db, id)
}

// DeleteProductCascade removes a product together with its favorites, the
// messages of its conversations, and the conversations themselves, in one
// transaction. Dependents are deleted explicitly so the result does not hinge
// on the connection having foreign keys enabled.
func DeleteProductCascade(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&domain.Favorite{}).Error; err != nil {
			return err
		}
		convIDs := tx.Model(&domain.Conversation{}).Select("id").Where("product_id = ?", id)
		if err := tx.Where("conversation_id IN (?)", convIDs).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&domain.Conversation{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Product{}).Error
	})
}

// ListProductsBySeller returns every product owned by sellerID, newest first,
// including sold ones.
func ListProductsBySeller(ctx context.Context, db *gorm.DB, sellerID string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := db.WithContext(ctx).
		Preload("Category").
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}
