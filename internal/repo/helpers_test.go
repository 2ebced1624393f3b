package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
)

// newRepoDB opens a private in-memory database. With migrate=false the schema
// is left empty so error paths can be exercised.
func newRepoDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	db.Exec("PRAGMA foreign_keys=ON;")

	if migrate {
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
		if err := SeedCategories(context.Background(), db); err != nil {
			t.Fatalf("seed categories: %v", err)
		}
	}
	return db
}

func mustUser(t *testing.T, db *gorm.DB, name string) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: "hash",
		Location:     "Pune",
	}
	if err := CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return u
}

func mustProduct(t *testing.T, db *gorm.DB, sellerID, title string, price float64, created time.Time) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Title:       title,
		Description: "A perfectly good item in great condition",
		Price:       price,
		Location:    "Pune",
		Images:      []string{"https://img.example.com/1.jpg"},
		CategoryID:  1,
		SellerID:    sellerID,
	}
	if err := CreateProduct(context.Background(), db, p); err != nil {
		t.Fatalf("CreateProduct(%s): %v", title, err)
	}
	if !created.IsZero() {
		if err := db.Model(&domain.Product{}).Where("id = ?", p.ID).UpdateColumn("created_at", created).Error; err != nil {
			t.Fatalf("set created_at: %v", err)
		}
		p.CreatedAt = created
	}
	return p
}
