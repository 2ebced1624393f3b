// Account HTTP handlers.
//
// This file exposes:
//   - POST /auth/register  (create an account, returns a token)
//   - POST /auth/login     (exchange credentials for a token)
//   - GET  /auth/me        (caller's profile)
//   - PUT  /auth/me        (partial profile update)
//   - GET  /auth/me/products (caller's own listings, sold included)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-classifieds-backend/internal/http/middleware"
	"github.com/tbourn/go-classifieds-backend/internal/services"
)

// LoginRequest is the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email"    example:"jane@example.com"`
	Password string `json:"password" example:"correct-horse-battery"`
}

// Register godoc
// @ID          register
// @Summary     Register an account
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      services.RegisterInput  true  "Account details"
// @Success     201   {object}  handlers.AuthResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     409   {object}  handlers.ErrorResponse  "Email already registered"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var in services.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.accounts.Register(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, AuthResponse{
		Message: "Registration successful",
		Token:   res.Token,
		User:    presentUser(res.User),
	})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  handlers.AuthResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing email or password"
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, AuthResponse{
		Message: "Login successful",
		Token:   res.Token,
		User:    presentUser(res.User),
	})
}

// Me godoc
// @ID          getProfile
// @Summary     Get the caller's profile
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.UserResponse
// @Failure     401  {object}  handlers.ErrorResponse  "No token"
// @Failure     403  {object}  handlers.ErrorResponse  "Invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	u, err := h.accounts.Profile(c.Request.Context(), id.UserID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, presentUser(u))
}

// UpdateMe godoc
// @ID          updateProfile
// @Summary     Update the caller's profile
// @Description Only the supplied fields change. An empty phone clears it.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      services.ProfilePatch  true  "Fields to change"
// @Success     200   {object}  handlers.UserResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404   {object}  handlers.ErrorResponse  "User not found"
// @Router      /auth/me [put]
func (h *Handlers) UpdateMe(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	var patch services.ProfilePatch
	if !bindJSON(c, &patch) {
		return
	}
	u, err := h.accounts.UpdateProfile(c.Request.Context(), id.UserID, patch)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, presentUser(u))
}

// MyProducts godoc
// @ID          listMyProducts
// @Summary     List the caller's own listings
// @Description Includes sold listings, newest first.
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   handlers.ProductResponse
// @Failure     401  {object}  handlers.ErrorResponse  "No token"
// @Router      /auth/me/products [get]
func (h *Handlers) MyProducts(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	items, err := h.catalog.Mine(c.Request.Context(), id.UserID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, presentProducts(items))
}
