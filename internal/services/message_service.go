// Package services – MessageService
//
// This file implements MessageService, the append-only log of messages inside
// a conversation. Only the conversation's buyer and seller may read or write
// it; a missing conversation and a foreign one produce the same error so that
// callers cannot probe for existence.
//
// Sending inserts the message and moves the conversation's updated_at forward
// in one transaction, message first. An optional idempotency key makes
// retried sends return the original message instead of appending a duplicate.
//
// Observability: all public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
	"github.com/tbourn/go-classifieds-backend/internal/observability"
	"github.com/tbourn/go-classifieds-backend/internal/repo"
)

// DefaultMaxContentRunes caps a single message.
const DefaultMaxContentRunes = 4000

// MessageService reads and appends conversation messages.
type MessageService struct {
	DB *gorm.DB

	// MaxContentRunes caps message length; <= 0 disables the check.
	MaxContentRunes int
	// IdempotencyTTL is how long a send can be replayed by key.
	IdempotencyTTL time.Duration
	// Now is the clock used for message timestamps.
	Now func() time.Time
}

// NewMessageService constructs a MessageService with default limits.
func NewMessageService(db *gorm.DB, idempotencyTTL time.Duration) *MessageService {
	if idempotencyTTL <= 0 {
		idempotencyTTL = 24 * time.Hour
	}
	return &MessageService{
		DB:              db,
		MaxContentRunes: DefaultMaxContentRunes,
		IdempotencyTTL:  idempotencyTTL,
		Now:             time.Now,
	}
}

func (s *MessageService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// authorize loads the conversation and checks that userID takes part in it.
// Absence and non-membership are both reported as ErrNotParticipant.
func (s *MessageService) authorize(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, ErrNotParticipant
	}
	conv, err := repo.GetConversation(ctx, s.DB, conversationID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotParticipant
	}
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

// List returns the full history of a conversation, oldest first, with sender
// summaries. The result is never nil.
func (s *MessageService) List(ctx context.Context, conversationID, callerID string) ([]domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", callerID),
		),
	)
	defer span.End()

	if _, err := s.authorize(ctx, conversationID, callerID); err != nil {
		return nil, err
	}
	return repo.ListMessages(ctx, s.DB, conversationID)
}

// Send appends content to the conversation on behalf of senderID.
func (s *MessageService) Send(ctx context.Context, conversationID, senderID, content string) (*domain.Message, error) {
	m, _, err := s.SendIdempotent(ctx, conversationID, senderID, content, "")
	return m, err
}

// SendIdempotent is Send with an optional idempotency key. When key matches a
// previous, unexpired send by the same user in the same conversation, the
// original message is returned with replayed=true and nothing is written.
//
// Errors:
//   - ErrEmptyContent when content is blank after trimming
//   - ErrContentTooLong when content exceeds MaxContentRunes
//   - ErrNotParticipant when the conversation is missing or foreign
func (s *MessageService) SendIdempotent(ctx context.Context, conversationID, senderID, content, key string) (msg *domain.Message, replayed bool, err error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", senderID),
			attribute.Bool("idempotent", key != ""),
		),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, false, ErrEmptyContent
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return nil, false, ErrContentTooLong
	}

	if _, err := s.authorize(ctx, conversationID, senderID); err != nil {
		return nil, false, err
	}

	if key != "" {
		if prev, ok := s.replay(ctx, senderID, conversationID, key); ok {
			span.SetAttributes(attribute.Bool("replayed", true))
			return prev, true, nil
		}
	}

	at := s.now()
	var created *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.CreateMessage(ctx, tx, conversationID, senderID, content, at)
		if err != nil {
			return err
		}
		if err := repo.TouchConversation(ctx, tx, conversationID, at); err != nil {
			return err
		}
		if key != "" {
			if _, err := repo.CreateIdempotency(ctx, tx, senderID, conversationID, key, m.ID, http.StatusCreated, at, s.IdempotencyTTL); err != nil {
				return err
			}
		}
		created = m
		return nil
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// A concurrent request with the same key committed first.
		if prev, ok := s.replay(ctx, senderID, conversationID, key); ok {
			return prev, true, nil
		}
	}
	if err != nil {
		return nil, false, err
	}

	observability.MessagesSent.Inc()

	if full, gerr := repo.GetMessage(ctx, s.DB, created.ID); gerr == nil {
		return full, false, nil
	}
	return created, false, nil
}

// replay returns the message recorded for (userID, conversationID, key).
func (s *MessageService) replay(ctx context.Context, userID, conversationID, key string) (*domain.Message, bool) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, conversationID, key, s.now())
	if err != nil {
		return nil, false
	}
	m, err := repo.GetMessage(ctx, s.DB, rec.MessageID)
	if err != nil {
		return nil, false
	}
	return m, true
}

// HasReplay reports whether a send with key can be replayed. It matches the
// middleware.IdempotencyLookup signature.
func (s *MessageService) HasReplay(ctx context.Context, userID, conversationID, key string, now time.Time) (bool, error) {
	_, err := repo.GetIdempotency(ctx, s.DB, userID, conversationID, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// UnseenCount returns how many messages sent by others are still unread in
// the conversations userID takes part in.
func (s *MessageService) UnseenCount(ctx context.Context, userID string) (int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "UnseenCount", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	return repo.CountUnseen(ctx, s.DB, userID)
}

// MarkRead flags the other participant's messages in the conversation as read
// and returns how many changed.
func (s *MessageService) MarkRead(ctx context.Context, conversationID, userID string) (int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "MarkRead",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if _, err := s.authorize(ctx, conversationID, userID); err != nil {
		return 0, err
	}
	return repo.MarkConversationRead(ctx, s.DB, conversationID, userID)
}

// Stats returns message count, unread count and latest CreatedAt for a
// conversation the caller takes part in, used to build a weak ETag.
func (s *MessageService) Stats(ctx context.Context, conversationID, callerID string) (count, unread int64, latest *time.Time, err error) {
	if _, err = s.authorize(ctx, conversationID, callerID); err != nil {
		return 0, 0, nil, err
	}
	return repo.MessagesStats(ctx, s.DB, conversationID)
}
