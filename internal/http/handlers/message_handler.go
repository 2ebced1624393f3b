// Message HTTP handlers.
//
// This file exposes REST endpoints for conversation messages:
//   - GET  /chat/conversations/{id}/messages   (full history, ETag support)
//   - POST /chat/conversations/{id}/messages   (append a message)
//
// Only the buyer and seller of a conversation may read or write it. A
// missing conversation answers 403 exactly like a foreign one.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous send with
// that key exists for (user, conversation), the recorded message is returned
// with `Idempotency-Replayed: true` and nothing new is stored.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-classifieds-backend/internal/http/middleware"
	"github.com/tbourn/go-classifieds-backend/internal/utils"
)

// SendMessageRequest is the JSON payload for sending a message.
type SendMessageRequest struct {
	// Content must be non-empty after trimming.
	Content string `json:"content" example:"Hi, is the bike still available?"`
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages in a conversation
// @Description Full history, oldest first. Honors If-None-Match with a weak
// @Description ETag that also changes when messages are marked read.
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
// @Param       id             path    string  true   "Conversation ID"  format(uuid)
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {array}   handlers.MessageResponse
// @Success     304  "Not modified"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Router      /chat/conversations/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	ctx := c.Request.Context()
	convID := c.Param("id")

	// Stats also performs the participant check, so a 304 is never served
	// to an outsider.
	count, unread, latest, err := h.msgs.Stats(ctx, convID, id.UserID)
	if err != nil {
		failErr(c, err)
		return
	}
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	etag := utils.WeakETag("messages", convID, count, unread, ts)
	c.Header("ETag", etag)
	if utils.ETagMatches(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}

	items, err := h.msgs.List(ctx, convID, id.UserID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, presentMessages(items))
}

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a message
// @Description Appends a message and moves the conversation to the top of
// @Description both participants' lists. Safe to retry with Idempotency-Key.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id               path    string                       true   "Conversation ID"  format(uuid)
// @Param       Idempotency-Key  header  string                       false  "Key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.SendMessageRequest  true   "Message"
// @Success     201  {object}  handlers.MessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or too long"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Router      /chat/conversations/{id}/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	id, okID := middleware.RequireIdentity(c)
	if !okID {
		return
	}
	var req SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	m, replayed, err := h.msgs.SendIdempotent(c.Request.Context(), c.Param("id"), id.UserID, req.Content, key)
	if err != nil {
		failErr(c, err)
		return
	}
	if replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusCreated, presentMessage(m))
}
