// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (weak ETags) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
)

// ConversationsStats returns the number of conversations userID takes part in
// and the greatest UpdatedAt across those conversations and the products and
// users embedded in their summaries, so renaming a listing or a participant
// moves it too. When there are none, the count is 0 and latest is nil.
func ConversationsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, latest *time.Time, err error) {
	mine := "conversations.buyer_id = ? OR conversations.seller_id = ?"

	if err = db.WithContext(ctx).Model(&domain.Conversation{}).Where(mine, userID, userID).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	sources := []*gorm.DB{
		db.WithContext(ctx).Table("conversations").
			Select("conversations.updated_at AS ts").
			Where(mine, userID, userID),
		db.WithContext(ctx).Table("products").
			Select("products.updated_at AS ts").
			Joins("JOIN conversations ON conversations.product_id = products.id").
			Where(mine, userID, userID),
		db.WithContext(ctx).Table("users").
			Select("users.updated_at AS ts").
			Joins("JOIN conversations ON conversations.buyer_id = users.id OR conversations.seller_id = users.id").
			Where(mine, userID, userID),
	}
	var newest time.Time
	for _, q := range sources {
		// ORDER BY + LIMIT rather than MAX(): SQLite returns MAX() of a
		// datetime column as TEXT.
		var row struct{ Ts time.Time }
		if err = q.Order("ts DESC").Limit(1).Scan(&row).Error; err != nil {
			return 0, nil, err
		}
		if row.Ts.After(newest) {
			newest = row.Ts
		}
	}
	return count, &newest, nil
}

// MessagesStats returns, for one conversation, the number of messages, how
// many of them are still unread, and the greatest CreatedAt. Unread is part
// of the result because marking messages read changes the rendered list
// without adding rows.
func MessagesStats(ctx context.Context, db *gorm.DB, conversationID string) (count, unread int64, latest *time.Time, err error) {
	base := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Message{}).Where("conversation_id = ?", conversationID)
	}

	if err = base().Count(&count).Error; err != nil {
		return 0, 0, nil, err
	}
	if count == 0 {
		return 0, 0, nil, nil
	}
	if err = base().Where("is_read = ?", false).Count(&unread).Error; err != nil {
		return 0, 0, nil, err
	}

	var row struct {
		CreatedAt time.Time
	}
	if err = base().Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, nil, err
	}
	return count, unread, &row.CreatedAt, nil
}
