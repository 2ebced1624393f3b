// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
)

// CreateMessage inserts a new unread message row stamped with at.
func CreateMessage(ctx context.Context, db *gorm.DB, conversationID, senderID, content string, at time.Time) (*domain.Message, error) {
	m := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      at,
	}
	return m, db.WithContext(ctx).Omit("Conversation", "Sender").Create(m).Error
}

// ListMessages returns the full history of a conversation ordered
// deterministically (CreatedAt ASC, ID ASC), with sender id/name preloaded.
func ListMessages(ctx context.Context, db *gorm.DB, conversationID string) ([]domain.Message, error) {
	out := []domain.Message{}
	err := db.WithContext(ctx).
		Preload("Sender", participantSummary).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// GetMessage fetches a message by ID with its sender summary.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).
		Preload("Sender", participantSummary).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CountUnseen counts unread messages addressed to userID: messages sent by
// someone else in conversations where userID is buyer or seller.
func CountUnseen(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	convIDs := db.Model(&domain.Conversation{}).
		Select("id").
		Where("buyer_id = ? OR seller_id = ?", userID, userID)
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id IN (?)", convIDs).
		Where("sender_id <> ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// MarkConversationRead flags as read every message in the conversation that
// was not sent by readerID and returns the number of rows changed.
func MarkConversationRead(ctx context.Context, db *gorm.DB, conversationID, readerID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
