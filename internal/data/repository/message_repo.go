package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myvillage-api/internal/data/entity"
	"myvillage-api/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type MessageRepository interface {
	CreateConversation(ctx context.Context, c *entity.Conversation) error
	FindConversationByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)
	// FindConversation looks up the thread of buyer about listing.
	FindConversation(ctx context.Context, listingID, buyerID uuid.UUID) (*entity.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*entity.ConversationSummary, error)
	CreateMessage(ctx context.Context, m *entity.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*entity.Message, error)
	CountMessages(ctx context.Context, conversationID uuid.UUID) (int64, error)
	// MarkRead marks messages addressed to readerID as read and returns how many changed.
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID, at time.Time) (int64, error)
}

type messageRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewMessageRepository(db database.DBTX, log *zap.Logger) MessageRepository {
	return &messageRepository{
		db:  db,
		log: log.With(zap.String("repository", "message")),
	}
}

func (r *messageRepository) CreateConversation(ctx context.Context, c *entity.Conversation) error {
	query := `
		INSERT INTO conversations (id, listing_id, buyer_id, seller_id, last_message_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := r.db.Exec(ctx, query, c.ID, c.ListingID, c.BuyerID, c.SellerID, c.LastMessageAt, c.CreatedAt); err != nil {
		r.log.Error("Failed to create conversation",
			zap.Error(err),
			zap.String("listing_id", c.ListingID.String()),
		)
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (r *messageRepository) findConversation(ctx context.Context, where string, args ...any) (*entity.Conversation, error) {
	query := `
		SELECT id, listing_id, buyer_id, seller_id, last_message_at, created_at
		FROM conversations
		WHERE ` + where

	var c entity.Conversation
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&c.ID,
		&c.ListingID,
		&c.BuyerID,
		&c.SellerID,
		&c.LastMessageAt,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find conversation", zap.Error(err))
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return &c, nil
}

func (r *messageRepository) FindConversationByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	return r.findConversation(ctx, "id = $1", id)
}

func (r *messageRepository) FindConversation(ctx context.Context, listingID, buyerID uuid.UUID) (*entity.Conversation, error) {
	return r.findConversation(ctx, "listing_id = $1 AND buyer_id = $2", listingID, buyerID)
}

func (r *messageRepository) ListConversations(ctx context.Context, userID uuid.UUID) ([]*entity.ConversationSummary, error) {
	query := `
		SELECT c.id, c.listing_id, c.buyer_id, c.seller_id, c.last_message_at, c.created_at,
		       COALESCE(l.title, mi.title, ''),
		       u.id::text, u.name, u.avatar, u.phone, u.telegram_id,
		       (SELECT m.text FROM messages m
		         WHERE m.conversation_id = c.id
		         ORDER BY m.created_at DESC LIMIT 1),
		       (SELECT COUNT(*) FROM messages m
		         WHERE m.conversation_id = c.id AND m.sender_id <> $1 AND m.read_at IS NULL)
		FROM conversations c
		LEFT JOIN listings l ON l.id = c.listing_id
		LEFT JOIN marketplace_items mi ON mi.id = c.listing_id
		JOIN users u ON u.id = CASE WHEN c.buyer_id = $1 THEN c.seller_id ELSE c.buyer_id END
		WHERE c.buyer_id = $1 OR c.seller_id = $1
		ORDER BY c.last_message_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list conversations",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("list conversations for %s: %w", userID, err)
	}
	defer rows.Close()

	out := make([]*entity.ConversationSummary, 0)
	for rows.Next() {
		var s entity.ConversationSummary
		if err := rows.Scan(
			&s.ID,
			&s.ListingID,
			&s.BuyerID,
			&s.SellerID,
			&s.LastMessageAt,
			&s.CreatedAt,
			&s.ListingTitle,
			&s.Counterpart.ID,
			&s.Counterpart.Name,
			&s.Counterpart.Avatar,
			&s.Counterpart.Phone,
			&s.Counterpart.TelegramID,
			&s.LastMessage,
			&s.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation rows: %w", err)
	}

	return out, nil
}

// CreateMessage stores m and bumps the conversation's activity timestamp.
func (r *messageRepository) CreateMessage(ctx context.Context, m *entity.Message) error {
	query := `
		WITH inserted AS (
			INSERT INTO messages (id, conversation_id, sender_id, text, read_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING conversation_id, created_at
		)
		UPDATE conversations c
		SET last_message_at = inserted.created_at
		FROM inserted
		WHERE c.id = inserted.conversation_id
	`

	if _, err := r.db.Exec(ctx, query, m.ID, m.ConversationID, m.SenderID, m.Text, m.ReadAt, m.CreatedAt); err != nil {
		r.log.Error("Failed to create message",
			zap.Error(err),
			zap.String("conversation_id", m.ConversationID.String()),
		)
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (r *messageRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, text, read_at, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, conversationID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list messages",
			zap.Error(err),
			zap.String("conversation_id", conversationID.String()),
		)
		return nil, fmt.Errorf("list messages for %s: %w", conversationID, err)
	}
	defer rows.Close()

	messages := make([]*entity.Message, 0)
	for rows.Next() {
		var m entity.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Text, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	return messages, nil
}

func (r *messageRepository) CountMessages(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, conversationID).Scan(&count); err != nil {
		r.log.Error("Failed to count messages", zap.Error(err))
		return 0, fmt.Errorf("count messages for %s: %w", conversationID, err)
	}
	return count, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID, at time.Time) (int64, error) {
	query := `
		UPDATE messages
		SET read_at = $3
		WHERE conversation_id = $1 AND sender_id <> $2 AND read_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, conversationID, readerID, at)
	if err != nil {
		r.log.Error("Failed to mark messages read",
			zap.Error(err),
			zap.String("conversation_id", conversationID.String()),
		)
		return 0, fmt.Errorf("mark messages read in %s: %w", conversationID, err)
	}
	return result.RowsAffected(), nil
}
