package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
	"github.com/tbourn/go-classifieds-backend/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
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

	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := repo.SeedCategories(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: "x",
		Location:     "Mumbai",
	}
	if err := repo.CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, sellerID, title string) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Title:       title,
		Description: "Lightly used and in excellent shape",
		Price:       100,
		Location:    "Mumbai",
		Images:      []string{"https://img.example.com/a.jpg"},
		CategoryID:  1,
		SellerID:    sellerID,
	}
	if err := repo.CreateProduct(context.Background(), db, p); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return p
}

// fixedIssuer hands out a deterministic token.
type fixedIssuer struct{ err error }

func (f fixedIssuer) Issue(userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "tok-" + userID, nil
}
