// Package domain defines the persistence models for the marketplace: users,
// categories, product listings, favorites, and the buyer/seller conversations
// with their messages. These types are mapped with GORM and form the core
// data layer of the application.
//
// JSON tags use camelCase to match the public API payloads. Associations are
// never serialized directly (json:"-"); the HTTP layer renders explicit
// summaries so that credentials and contact details do not leak.
package domain

import (
	"time"
)

// User is a registered marketplace account.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Email: unique, stored lower-cased.
//   - PasswordHash: bcrypt hash; never serialized.
//   - Phone: optional contact number.
type User struct {
	ID           string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name"      gorm:"type:varchar(50);not null"`
	Email        string    `json:"email"     gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string    `json:"-"         gorm:"type:varchar(100);not null"`
	Phone        *string   `json:"phone,omitempty" gorm:"type:varchar(32)"`
	Location     string    `json:"location"  gorm:"type:varchar(100);not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Category is one of the predefined listing categories.
type Category struct {
	ID   uint   `json:"id"   gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"type:varchar(64);not null;uniqueIndex:ux_categories_name"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// Product is a classified listing owned by a seller.
//
// Images holds the public URLs uploaded by the client and is stored as a
// JSON array in a single text column, which works for both SQLite and
// Postgres. Sold listings stay in the table but are hidden from browsing.
type Product struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Title       string    `json:"title"       gorm:"type:varchar(100);not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Price       float64   `json:"price"       gorm:"not null;check:price > 0"`
	Location    string    `json:"location"    gorm:"type:varchar(100);not null;index"`
	Images      []string  `json:"images"      gorm:"type:text;serializer:json"`
	CategoryID  uint      `json:"categoryId"  gorm:"not null;index"`
	SellerID    string    `json:"sellerId"    gorm:"type:char(36);not null;index"`
	IsSold      bool      `json:"isSold"      gorm:"not null;default:false;index"`
	CreatedAt   time.Time `json:"createdAt"   gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Category *Category `json:"-" gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Seller   *User     `json:"-" gorm:"foreignKey:SellerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// Favorite marks a product as saved by a user. A user can favorite a product
// at most once (enforced by unique index).
type Favorite struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"userId"    gorm:"type:char(36);not null;uniqueIndex:ux_favorite_user_product,priority:1"`
	ProductID string    `json:"productId" gorm:"type:char(36);not null;index;uniqueIndex:ux_favorite_user_product,priority:2"`
	CreatedAt time.Time `json:"createdAt"`

	User    *User    `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Product *Product `json:"-" gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }

// Conversation is the single thread between a buyer and the seller of one
// product.
//
// Invariants:
//   - (ProductID, BuyerID) is unique; repeated contact returns the same row.
//   - SellerID is copied from the product owner at creation time.
//   - BuyerID != SellerID (checked by the service before insert).
//   - UpdatedAt moves forward on every new message and drives list ordering.
type Conversation struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	ProductID string    `json:"productId" gorm:"type:char(36);not null;uniqueIndex:ux_conversation_product_buyer,priority:1"`
	BuyerID   string    `json:"buyerId"   gorm:"type:char(36);not null;uniqueIndex:ux_conversation_product_buyer,priority:2;index:idx_conversation_buyer"`
	SellerID  string    `json:"sellerId"  gorm:"type:char(36);not null;index:idx_conversation_seller"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"index"`

	Product *Product `json:"-" gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Buyer   *User    `json:"-" gorm:"foreignKey:BuyerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Seller  *User    `json:"-" gorm:"foreignKey:SellerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// HasParticipant reports whether userID is the buyer or the seller.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.BuyerID == userID || c.SellerID == userID)
}

// Message is a single immutable entry in a conversation. Only IsRead changes
// after creation.
type Message struct {
	ID             string    `json:"id"             gorm:"type:char(36);primaryKey"`
	ConversationID string    `json:"conversationId" gorm:"type:char(36);not null;index:idx_conversation_msgs,priority:1"`
	SenderID       string    `json:"senderId"       gorm:"type:char(36);not null;index"`
	Content        string    `json:"content"        gorm:"type:text;not null"`
	IsRead         bool      `json:"isRead"         gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"createdAt"      gorm:"index:idx_conversation_msgs,priority:2"`

	Conversation *Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Sender       *User         `json:"-" gorm:"foreignKey:SenderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Models lists every persistent type in migration order.
func Models() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&Favorite{},
		&Conversation{},
		&Message{},
		&Idempotency{},
	}
}
