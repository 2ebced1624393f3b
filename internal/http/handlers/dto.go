package handlers

import (
	"time"

	"github.com/tbourn/go-classifieds-backend/internal/domain"
)

// Response shapes. Domain models never go on the wire directly: associations
// are rendered as summaries so password hashes and contact details only
// appear where intended.

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"        example:"6f1c2a9e-3b7d-4c1e-9a0b-2d4e5f607182"`
	Name      string    `json:"name"      example:"Jane Doe"`
	Email     string    `json:"email"     example:"jane@example.com"`
	Phone     *string   `json:"phone,omitempty" example:"+30 210 1234567"`
	Location  string    `json:"location"  example:"Athens"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string       `json:"message" example:"Login successful."`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

// SellerSummary is the seller as shown on a listing. Phone is only filled on
// the product detail view.
type SellerSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Location string  `json:"location"`
	Phone    *string `json:"phone,omitempty"`
}

// ProductResponse is a listing with its category and seller.
type ProductResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"       example:"Road bike, 54cm frame"`
	Description string           `json:"description"`
	Price       float64          `json:"price"       example:"350"`
	Location    string           `json:"location"    example:"Athens"`
	Images      []string         `json:"images"`
	CategoryID  uint             `json:"categoryId"  example:"3"`
	SellerID    string           `json:"sellerId"`
	IsSold      bool             `json:"isSold"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Category    *domain.Category `json:"category,omitempty"`
	Seller      *SellerSummary   `json:"seller,omitempty"`
}

// ProductSummary is the product as embedded in a conversation.
type ProductSummary struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Images   []string `json:"images"`
	SellerID string   `json:"sellerId"`
}

// ParticipantSummary identifies a buyer, seller or message sender.
type ParticipantSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ConversationResponse is a buyer/seller thread.
type ConversationResponse struct {
	ID        string              `json:"id"`
	ProductID string              `json:"productId"`
	BuyerID   string              `json:"buyerId"`
	SellerID  string              `json:"sellerId"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
	Product   *ProductSummary     `json:"product,omitempty"`
	Buyer     *ParticipantSummary `json:"buyer,omitempty"`
	Seller    *ParticipantSummary `json:"seller,omitempty"`
}

// MessageResponse is a single chat message.
type MessageResponse struct {
	ID             string              `json:"id"`
	ConversationID string              `json:"conversationId"`
	SenderID       string              `json:"senderId"`
	Content        string              `json:"content" example:"Is it still available?"`
	IsRead         bool                `json:"isRead"`
	CreatedAt      time.Time           `json:"createdAt"`
	Sender         *ParticipantSummary `json:"sender,omitempty"`
}

// FavoriteResponse reports the state after a toggle.
type FavoriteResponse struct {
	Favorited bool   `json:"favorited"`
	Message   string `json:"message" example:"Added to favorites."`
}

// CountResponse carries the unseen message count.
type CountResponse struct {
	Count int64 `json:"count" example:"3"`
}

// UpdatedResponse carries the number of messages marked read.
type UpdatedResponse struct {
	Updated int64 `json:"updated" example:"2"`
}

func presentUser(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Location:  u.Location,
		CreatedAt: u.CreatedAt,
	}
}

func presentProduct(p *domain.Product, withPhone bool) ProductResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	out := ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Location:    p.Location,
		Images:      images,
		CategoryID:  p.CategoryID,
		SellerID:    p.SellerID,
		IsSold:      p.IsSold,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Category:    p.Category,
	}
	if p.Seller != nil {
		out.Seller = &SellerSummary{ID: p.Seller.ID, Name: p.Seller.Name, Location: p.Seller.Location}
		if withPhone {
			out.Seller.Phone = p.Seller.Phone
		}
	}
	return out
}

func presentProducts(ps []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(ps))
	for i := range ps {
		out = append(out, presentProduct(&ps[i], false))
	}
	return out
}

func presentParticipant(u *domain.User) *ParticipantSummary {
	if u == nil {
		return nil
	}
	return &ParticipantSummary{ID: u.ID, Name: u.Name}
}

func presentConversation(cv *domain.Conversation) ConversationResponse {
	out := ConversationResponse{
		ID:        cv.ID,
		ProductID: cv.ProductID,
		BuyerID:   cv.BuyerID,
		SellerID:  cv.SellerID,
		CreatedAt: cv.CreatedAt,
		UpdatedAt: cv.UpdatedAt,
		Buyer:     presentParticipant(cv.Buyer),
		Seller:    presentParticipant(cv.Seller),
	}
	if p := cv.Product; p != nil {
		images := p.Images
		if images == nil {
			images = []string{}
		}
		out.Product = &ProductSummary{ID: p.ID, Title: p.Title, Images: images, SellerID: p.SellerID}
	}
	return out
}

func presentConversations(cs []domain.Conversation) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(cs))
	for i := range cs {
		out = append(out, presentConversation(&cs[i]))
	}
	return out
}

func presentMessage(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt,
		Sender:         presentParticipant(m.Sender),
	}
}

func presentMessages(ms []domain.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(ms))
	for i := range ms {
		out = append(out, presentMessage(&ms[i]))
	}
	return out
}
