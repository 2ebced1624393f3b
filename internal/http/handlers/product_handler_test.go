package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
	"github.com/tbourn/go-classifieds-backend/internal/services"
)

func sampleProduct(id, seller string) *domain.Product {
	return &domain.Product{
		ID:          id,
		Title:       "Road bike",
		Description: "Aluminium frame, recently serviced",
		Price:       350,
		Location:    "Athens",
		Images:      []string{"https://img.example.com/bike.jpg"},
		CategoryID:  2,
		SellerID:    seller,
		Category:    &domain.Category{ID: 2, Name: "Mobiles"},
		Seller:      &domain.User{ID: seller, Name: "Sam", Location: "Athens", Phone: strPtr("555-0100")},
	}
}

func TestListCategories(t *testing.T) {
	h := New(nil, stubCatalog{
		categories: func() ([]domain.Category, error) {
			return []domain.Category{{ID: 1, Name: "Electronics"}, {ID: 2, Name: "Mobiles"}}, nil
		},
	}, nil, nil, nil)
	w := call(newTestRouter(h), http.MethodGet, "/categories", "", nil, nil)
	wantStatus(t, w, http.StatusOK)
	if cats := decode[[]domain.Category](t, w); len(cats) != 2 || cats[0].Name != "Electronics" {
		t.Fatalf("cats=%+v", cats)
	}
}

func TestListProducts_ParsesQueryAndHidesPhone(t *testing.T) {
	var got services.ProductQuery
	h := New(nil, stubCatalog{
		list: func(q services.ProductQuery) ([]domain.Product, error) {
			got = q
			return []domain.Product{*sampleProduct("p1", "s1")}, nil
		},
	}, nil, nil, nil)

	w := call(newTestRouter(h), http.MethodGet,
		"/products?search=bike&categoryId=2&location=athens&sortBy=priceAsc&page=3&limit=5", "", nil, nil)
	wantStatus(t, w, http.StatusOK)

	want := services.ProductQuery{Search: "bike", CategoryID: 2, Location: "athens", SortBy: "priceAsc", Page: 3, Limit: 5}
	if got != want {
		t.Fatalf("query=%+v want %+v", got, want)
	}
	items := decode[[]ProductResponse](t, w)
	if len(items) != 1 || items[0].Seller == nil || items[0].Category == nil {
		t.Fatalf("items=%+v", items)
	}
	if items[0].Seller.Phone != nil {
		t.Fatal("list view must not expose seller phone")
	}
}

func TestListProducts_DefaultsAndEmpty(t *testing.T) {
	var got services.ProductQuery
	h := New(nil, stubCatalog{
		list: func(q services.ProductQuery) ([]domain.Product, error) {
			got = q
			return []domain.Product{}, nil
		},
	}, nil, nil, nil)

	w := call(newTestRouter(h), http.MethodGet, "/products?categoryId=abc&page=x", "", nil, nil)
	wantStatus(t, w, http.StatusOK)
	if got.CategoryID != 0 || got.Page != 1 || got.Limit != services.DefaultPageSize {
		t.Fatalf("defaults not applied: %+v", got)
	}
	if w.Body.String() != "[]" {
		t.Fatalf("empty list must render [], got %s", w.Body.String())
	}
}

func TestGetProduct_DetailShowsPhone(t *testing.T) {
	h := New(nil, stubCatalog{
		get: func(id string) (*domain.Product, error) {
			if id == "missing" {
				return nil, services.ErrProductNotFound
			}
			return sampleProduct(id, "s1"), nil
		},
	}, nil, nil, nil)
	r := newTestRouter(h)

	w := call(r, http.MethodGet, "/products/p1", "", nil, nil)
	wantStatus(t, w, http.StatusOK)
	p := decode[ProductResponse](t, w)
	if p.Seller == nil || p.Seller.Phone == nil || *p.Seller.Phone != "555-0100" {
		t.Fatalf("detail should include phone: %+v", p.Seller)
	}

	er := wantError(t, call(r, http.MethodGet, "/products/missing", "", nil, nil), http.StatusNotFound, ErrCodeNotFound)
	if er.Message != "Product not found." {
		t.Fatalf("message=%q", er.Message)
	}
}

func TestCreateProduct(t *testing.T) {
	var seller string
	h := New(nil, stubCatalog{
		create: func(uid string, in services.ProductInput) (*domain.Product, error) {
			seller = uid
			if in.CategoryID == 99 {
				return nil, services.ErrInvalidCategory
			}
			return sampleProduct("p-new", uid), nil
		},
	}, nil, nil, nil)
	r := newTestRouter(h)

	body := map[string]any{"title": "Road bike", "categoryId": 2}
	wantError(t, call(r, http.MethodPost, "/products", "", body, nil), http.StatusUnauthorized, ErrCodeUnauthorized)

	w := call(r, http.MethodPost, "/products", "s9", body, nil)
	wantStatus(t, w, http.StatusCreated)
	if seller != "s9" {
		t.Fatalf("seller=%q", seller)
	}

	er := wantError(t, call(r, http.MethodPost, "/products", "s9", map[string]any{"categoryId": 99}, nil), http.StatusBadRequest, ErrCodeBadRequest)
	if er.Message != "Invalid category ID." {
		t.Fatalf("message=%q", er.Message)
	}
}

func TestOwnerOnlyEndpoints(t *testing.T) {
	owned := func(id, uid string) error {
		switch {
		case id == "missing":
			return services.ErrProductNotFound
		case uid != "owner":
			return services.ErrForbidden
		}
		return nil
	}
	h := New(nil, stubCatalog{
		update: func(id, uid string, p services.ProductPatch) (*domain.Product, error) {
			if err := owned(id, uid); err != nil {
				return nil, err
			}
			out := sampleProduct(id, uid)
			out.Price = *p.Price
			return out, nil
		},
		markSold: func(id, uid string) (*domain.Product, error) {
			if err := owned(id, uid); err != nil {
				return nil, err
			}
			out := sampleProduct(id, uid)
			out.IsSold = true
			return out, nil
		},
		del: func(id, uid string) error {
			if id == "missing" {
				return nil
			}
			return owned(id, uid)
		},
	}, nil, nil, nil)
	r := newTestRouter(h)
	patch := map[string]any{"price": 99.5}

	w := call(r, http.MethodPut, "/products/p1", "owner", patch, nil)
	wantStatus(t, w, http.StatusOK)
	if p := decode[ProductResponse](t, w); p.Price != 99.5 {
		t.Fatalf("price=%v", p.Price)
	}
	wantError(t, call(r, http.MethodPut, "/products/p1", "intruder", patch, nil), http.StatusForbidden, ErrCodeForbidden)
	wantError(t, call(r, http.MethodPut, "/products/missing", "owner", patch, nil), http.StatusNotFound, ErrCodeNotFound)

	w = call(r, http.MethodPatch, "/products/p1/sold", "owner", nil, nil)
	wantStatus(t, w, http.StatusOK)
	if p := decode[ProductResponse](t, w); !p.IsSold {
		t.Fatal("expected isSold")
	}
	wantError(t, call(r, http.MethodPatch, "/products/p1/sold", "intruder", nil, nil), http.StatusForbidden, ErrCodeForbidden)

	wantStatus(t, call(r, http.MethodDelete, "/products/p1", "owner", nil, nil), http.StatusNoContent)
	wantStatus(t, call(r, http.MethodDelete, "/products/missing", "owner", nil, nil), http.StatusNoContent)
	wantError(t, call(r, http.MethodDelete, "/products/p1", "intruder", nil, nil), http.StatusForbidden, ErrCodeForbidden)
}
