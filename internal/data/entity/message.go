package entity

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	BaseSimple
	ListingID     uuid.UUID `db:"listing_id"`
	BuyerID       uuid.UUID `db:"buyer_id"`
	SellerID      uuid.UUID `db:"seller_id"`
	LastMessageAt time.Time `db:"last_message_at"`
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// Counterpart returns the other participant.
func (c *Conversation) Counterpart(userID uuid.UUID) uuid.UUID {
	if c.BuyerID == userID {
		return c.SellerID
	}
	return c.BuyerID
}

type Message struct {
	BaseSimple
	ConversationID uuid.UUID  `db:"conversation_id"`
	SenderID       uuid.UUID  `db:"sender_id"`
	Text           string     `db:"text"`
	ReadAt         *time.Time `db:"read_at"`
}

// ConversationSummary is a conversation row as listed in a user's inbox.
type ConversationSummary struct {
	Conversation
	ListingTitle string
	Counterpart  UserSummary
	LastMessage  *string
	UnreadCount  int64
}
