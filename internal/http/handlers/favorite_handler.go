// Favorite HTTP handlers.
//
//   - POST /favorites  (toggle; 201 when added, 200 when removed)
//   - GET  /favorites  (caller's saved listings)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-classifieds-backend/internal/http/middleware"
)

// ToggleFavoriteRequest is the JSON payload for toggling a favorite.
type ToggleFavoriteRequest struct {
	ProductID string `json:"productId" example:"0b6f1d1e-8f0c-4d4a-9d67-7a1c2e3f4a5b"`
}

// ToggleFavorite godoc
// @ID          toggleFavorite
// @Summary     Add or remove a favorite
// @Tags        Favorites
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.ToggleFavoriteRequest  true  "Product to toggle"
// @Success     201   {object}  handlers.FavoriteResponse  "Added"
// @Success     200   {object}  handlers.FavoriteResponse  "Removed"
// @Failure     400   {object}  handlers.ErrorResponse     "Missing product id"
// @Failure     404   {object}  handlers.ErrorResponse     "Product not found"
// @Router      /favorites [post]
func (h *Handlers) ToggleFavorite(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	var req ToggleFavoriteRequest
	if !bindJSON(c, &req) {
		return
	}
	favorited, err := h.favs.Toggle(c.Request.Context(), id.UserID, req.ProductID)
	if err != nil {
		failErr(c, err)
		return
	}
	if favorited {
		ok(c, http.StatusCreated, FavoriteResponse{Favorited: true, Message: "Added to favorites."})
		return
	}
	ok(c, http.StatusOK, FavoriteResponse{Favorited: false, Message: "Removed from favorites."})
}

// ListFavorites godoc
// @ID          listFavorites
// @Summary     List favorite listings
// @Tags        Favorites
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   handlers.ProductResponse
// @Failure     401  {object}  handlers.ErrorResponse  "No token"
// @Router      /favorites [get]
func (h *Handlers) ListFavorites(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	items, err := h.favs.List(c.Request.Context(), id.UserID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, presentProducts(items))
}
