// Catalog HTTP handlers.
//
// This file exposes:
//   - GET    /categories          (all categories)
//   - GET    /products            (browse unsold listings)
//   - GET    /products/{id}       (listing detail with seller contact)
//   - POST   /products            (create, owner = caller)
//   - PUT    /products/{id}       (owner-only partial update)
//   - PATCH  /products/{id}/sold  (owner-only)
//   - DELETE /products/{id}       (owner-only, idempotent)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-classifieds-backend/internal/http/middleware"
	"github.com/tbourn/go-classifieds-backend/internal/services"
	"github.com/tbourn/go-classifieds-backend/internal/utils"
)

// ListCategories godoc
// @ID          listCategories
// @Summary     List categories
// @Tags        Catalog
// @Produce     json
// @Success     200  {array}   domain.Category
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	cats, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, cats)
}

// ListProducts godoc
// @ID          listProducts
// @Summary     Browse listings
// @Description Returns unsold listings. Search matches title or description
// @Description case-insensitively; location must match exactly, ignoring case.
// @Tags        Catalog
// @Produce     json
// @Param       search      query  string  false  "Text to look for"
// @Param       categoryId  query  int     false  "Category filter"
// @Param       location    query  string  false  "Location filter"
// @Param       sortBy      query  string  false  "Sort order"  Enums(newest, priceAsc, priceDesc) default(newest)
// @Param       page        query  int     false  "Page number"     minimum(1) default(1)
// @Param       limit       query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {array}   handlers.ProductResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	q := services.ProductQuery{
		Search:     c.Query("search"),
		CategoryID: utils.UintDefault(c.Query("categoryId"), 0),
		Location:   c.Query("location"),
		SortBy:     c.Query("sortBy"),
		Page:       utils.AtoiDefault(c.Query("page"), 1),
		Limit:      utils.AtoiDefault(c.Query("limit"), services.DefaultPageSize),
	}
	items, err := h.catalog.List(c.Request.Context(), q)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, presentProducts(items))
}

// GetProduct godoc
// @ID          getProduct
// @Summary     Get a listing
// @Tags        Catalog
// @Produce     json
// @Param       id   path      string  true  "Product ID"  format(uuid)
// @Success     200  {object}  handlers.ProductResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Router      /products/{id} [get]
func (h *Handlers) GetProduct(c *gin.Context) {
	p, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, presentProduct(p, true))
}

// CreateProduct godoc
// @ID          createProduct
// @Summary     Create a listing
// @Tags        Catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      services.ProductInput  true  "Listing"
// @Success     201   {object}  handlers.ProductResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed or unknown category"
// @Failure     401   {object}  handlers.ErrorResponse  "No token"
// @Failure     403   {object}  handlers.ErrorResponse  "Invalid token"
// @Router      /products [post]
func (h *Handlers) CreateProduct(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	var in services.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.catalog.Create(c.Request.Context(), id.UserID, in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, presentProduct(p, false))
}

// UpdateProduct godoc
// @ID          updateProduct
// @Summary     Update a listing
// @Description Only the owner may update. Omitted fields are unchanged.
// @Tags        Catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string                 true  "Product ID"  format(uuid)
// @Param       body  body      services.ProductPatch  true  "Fields to change"
// @Success     200   {object}  handlers.ProductResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     403   {object}  handlers.ErrorResponse  "Not the owner"
// @Failure     404   {object}  handlers.ErrorResponse  "Product not found"
// @Router      /products/{id} [put]
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	var patch services.ProductPatch
	if !bindJSON(c, &patch) {
		return
	}
	p, err := h.catalog.Update(c.Request.Context(), c.Param("id"), id.UserID, patch)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, presentProduct(p, false))
}

// MarkProductSold godoc
// @ID          markProductSold
// @Summary     Mark a listing as sold
// @Tags        Catalog
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Product ID"  format(uuid)
// @Success     200  {object}  handlers.ProductResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Router      /products/{id}/sold [patch]
func (h *Handlers) MarkProductSold(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	p, err := h.catalog.MarkSold(c.Request.Context(), c.Param("id"), id.UserID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, presentProduct(p, false))
}

// DeleteProduct godoc
// @ID          deleteProduct
// @Summary     Delete a listing
// @Description Removes the listing with its favorites, conversations and
// @Description messages. Deleting a missing listing succeeds.
// @Tags        Catalog
// @Security    BearerAuth
// @Param       id   path  string  true  "Product ID"  format(uuid)
// @Success     204  "Deleted"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the owner"
// @Router      /products/{id} [delete]
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id"), id.UserID); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
