package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
)

// DeleteFavorite removes the (userID, productID) favorite and reports whether
// a row existed.
func DeleteFavorite(ctx context.Context, db *gorm.DB, userID, productID string) (bool, error) {
	res := db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&domain.Favorite{})
	return res.RowsAffected > 0, res.Error
}

// AddFavorite inserts the (userID, productID) favorite. A concurrent insert of
// the same pair is absorbed by the unique index.
func AddFavorite(ctx context.Context, db *gorm.DB, userID, productID string) error {
	fav := &domain.Favorite{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Omit("User", "Product").
		Create(fav).Error
}

// ListFavoriteProducts returns the products favorited by userID, ordered by
// product creation time descending.
func ListFavoriteProducts(ctx context.Context, db *gorm.DB, userID string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := db.WithContext(ctx).
		Preload("Category").
		Preload("Seller", sellerSummary).
		Select("products.*").
		Joins("JOIN favorites ON favorites.product_id = products.id").
		Where("favorites.user_id = ?", userID).
		Order("products.created_at DESC").
		Find(&out).Error
	return out, err
}
