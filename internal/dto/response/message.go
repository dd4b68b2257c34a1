package response

import (
	"time"

	"myvillage-api/internal/data/entity"
)

type MessageResponse struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	SenderID       string     `json:"senderId"`
	Text           string     `json:"text"`
	ReadAt         *time.Time `json:"readAt"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func MessageToResponse(m *entity.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Text:           m.Text,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}

type ConversationResponse struct {
	ID            string             `json:"id"`
	ListingID     string             `json:"listingId"`
	ListingTitle  string             `json:"listingTitle"`
	BuyerID       string             `json:"buyerId"`
	SellerID      string             `json:"sellerId"`
	Counterpart   entity.UserSummary `json:"counterpart"`
	LastMessage   *string            `json:"lastMessage"`
	UnreadCount   int64              `json:"unreadCount"`
	LastMessageAt time.Time          `json:"lastMessageAt"`
}

func ConversationToResponse(s *entity.ConversationSummary) ConversationResponse {
	return ConversationResponse{
		ID:            s.ID.String(),
		ListingID:     s.ListingID.String(),
		ListingTitle:  s.ListingTitle,
		BuyerID:       s.BuyerID.String(),
		SellerID:      s.SellerID.String(),
		Counterpart:   s.Counterpart,
		LastMessage:   s.LastMessage,
		UnreadCount:   s.UnreadCount,
		LastMessageAt: s.LastMessageAt,
	}
}

type ConversationThreadResponse struct {
	Conversation ConversationResponse                `json:"conversation"`
	Messages     *PaginatedResponse[MessageResponse] `json:"messages"`
}
