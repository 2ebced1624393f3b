// Conversation HTTP handlers.
//
// This file exposes the chat endpoints that operate on whole threads:
//   - POST /chat/conversations             (start or resume a thread)
//   - GET  /chat/conversations             (caller's threads, ETag support)
//   - GET  /chat/unseen/count              (unread messages addressed to caller)
//   - PUT  /chat/conversations/{id}/read   (mark the other side's messages read)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-classifieds-backend/internal/http/middleware"
	"github.com/tbourn/go-classifieds-backend/internal/utils"
)

// StartConversationRequest is the JSON payload for contacting a seller.
type StartConversationRequest struct {
	ProductID string `json:"productId" example:"0b6f1d1e-8f0c-4d4a-9d67-7a1c2e3f4a5b"`
}

// StartConversation godoc
// @ID          startConversation
// @Summary     Start or resume a conversation about a product
// @Description Returns the single (product, buyer) thread, creating it on
// @Description first contact. Repeating the call returns the same thread.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.StartConversationRequest  true  "Product to ask about"
// @Success     200   {object}  handlers.ConversationResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing product id or own product"
// @Failure     401   {object}  handlers.ErrorResponse  "No token"
// @Failure     403   {object}  handlers.ErrorResponse  "Invalid token"
// @Failure     404   {object}  handlers.ErrorResponse  "Product not found"
// @Router      /chat/conversations [post]
func (h *Handlers) StartConversation(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	var req StartConversationRequest
	if !bindJSON(c, &req) {
		return
	}
	conv, err := h.convs.StartOrGet(c.Request.Context(), id.UserID, req.ProductID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, presentConversation(conv))
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List the caller's conversations
// @Description Threads where the caller is buyer or seller, most recently
// @Description active first. Honors If-None-Match with a weak ETag.
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {array}   handlers.ConversationResponse
// @Success     304  "Not modified"
// @Failure     401  {object}  handlers.ErrorResponse  "No token"
// @Failure     403  {object}  handlers.ErrorResponse  "Invalid token"
// @Router      /chat/conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if count, latest, err := h.convs.Stats(ctx, id.UserID); err == nil {
		var ts int64
		if latest != nil {
			ts = latest.UnixNano()
		}
		etag := utils.WeakETag("conversations", id.UserID, count, ts)
		c.Header("ETag", etag)
		if utils.ETagMatches(c.GetHeader("If-None-Match"), etag) {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.convs.List(ctx, id.UserID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, presentConversations(items))
}

// UnseenCount godoc
// @ID          unseenCount
// @Summary     Count unread messages
// @Description Unread messages sent by others in the caller's conversations.
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.CountResponse
// @Failure     401  {object}  handlers.ErrorResponse  "No token"
// @Router      /chat/unseen/count [get]
func (h *Handlers) UnseenCount(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	n, err := h.msgs.UnseenCount(c.Request.Context(), id.UserID)
	if err != nil {
		failErr(c, err)
		return
	}
	middleware.NoStore(c)
	ok(c, http.StatusOK, CountResponse{Count: n})
}

// MarkRead godoc
// @ID          markConversationRead
// @Summary     Mark a conversation as read
// @Description Flags every message from the other participant as read.
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Conversation ID"  format(uuid)
// @Success     200  {object}  handlers.UpdatedResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Router      /chat/conversations/{id}/read [put]
func (h *Handlers) MarkRead(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	n, err := h.msgs.MarkRead(c.Request.Context(), c.Param("id"), id.UserID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UpdatedResponse{Updated: n})
}
