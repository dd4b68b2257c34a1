package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/data/repository"
	"myvillage-api/internal/dto/request"
	"myvillage-api/internal/dto/response"
	"myvillage-api/pkg/database"
	"myvillage-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MessageService interface {
	// StartConversation sends the first (or next) message of a buyer about a listing.
	StartConversation(ctx context.Context, buyerID uuid.UUID, listingID string, req *request.SendMessageRequest) (*response.MessageResponse, error)
	Reply(ctx context.Context, userID uuid.UUID, conversationID string, req *request.SendMessageRequest) (*response.MessageResponse, error)
	Conversations(ctx context.Context, userID uuid.UUID) ([]response.ConversationResponse, error)
	Thread(ctx context.Context, userID uuid.UUID, conversationID string, req *request.PaginatedRequest) (*response.ConversationThreadResponse, error)
	MarkRead(ctx context.Context, userID uuid.UUID, conversationID string) (int64, error)
}

type messageService struct {
	repo     *repository.Repository
	catalogs []CatalogService
	now      func() time.Time
	log      *zap.Logger
}

func NewMessageService(repo *repository.Repository, log *zap.Logger, catalogs ...CatalogService) MessageService {
	return &messageService{
		repo:     repo,
		catalogs: catalogs,
		now:      time.Now,
		log:      log.With(zap.String("service", "message")),
	}
}

func (s *messageService) StartConversation(ctx context.Context, buyerID uuid.UUID, listingID string, req *request.SendMessageRequest) (*response.MessageResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	targetID, err := uuid.Parse(listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid listing ID", ErrValidation)
	}

	sellerID, err := s.sellerOf(ctx, buyerID, targetID)
	if err != nil {
		return nil, err
	}
	if sellerID == buyerID {
		return nil, fmt.Errorf("%w: cannot message your own listing", ErrValidation)
	}

	conv, err := s.repo.Message.FindConversation(ctx, targetID, buyerID)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}

	if conv == nil {
		now := s.now()
		conv = &entity.Conversation{
			BaseSimple: entity.BaseSimple{
				ID:        uuid.New(),
				CreatedAt: now,
			},
			ListingID:     targetID,
			BuyerID:       buyerID,
			SellerID:      sellerID,
			LastMessageAt: now,
		}
		if err := s.repo.Message.CreateConversation(ctx, conv); err != nil {
			if !database.IsUniqueViolation(err) {
				s.log.Error("Failed to create conversation", zap.Error(err))
				return nil, fmt.Errorf("create conversation: %w", err)
			}
			// opened concurrently by the same buyer
			conv, err = s.repo.Message.FindConversation(ctx, targetID, buyerID)
			if err != nil || conv == nil {
				return nil, fmt.Errorf("reload conversation: %w", err)
			}
		} else {
			s.log.Info("Conversation opened",
				zap.String("conversation_id", conv.ID.String()),
				zap.String("listing_id", listingID))
		}
	}

	return s.send(ctx, conv, buyerID, req.Text)
}

func (s *messageService) Reply(ctx context.Context, userID uuid.UUID, conversationID string, req *request.SendMessageRequest) (*response.MessageResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	conv, err := s.participantConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, conv, userID, req.Text)
}

func (s *messageService) Conversations(ctx context.Context, userID uuid.UUID) ([]response.ConversationResponse, error) {
	summaries, err := s.repo.Message.ListConversations(ctx, userID)
	if err != nil {
		s.log.Error("Failed to list conversations", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	out := make([]response.ConversationResponse, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, response.ConversationToResponse(summary))
	}
	return out, nil
}

func (s *messageService) Thread(ctx context.Context, userID uuid.UUID, conversationID string, req *request.PaginatedRequest) (*response.ConversationThreadResponse, error) {
	conv, err := s.participantConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	page := req.Normalize()
	messages, err := s.repo.Message.ListMessages(ctx, conv.ID, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	total, err := s.repo.Message.CountMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	data := make([]response.MessageResponse, 0, len(messages))
	for _, m := range messages {
		data = append(data, response.MessageToResponse(m))
	}

	summary := &entity.ConversationSummary{Conversation: *conv}
	if counterpart, err := s.repo.User.FindByID(ctx, conv.Counterpart(userID)); err == nil && counterpart != nil {
		summary.Counterpart = entity.UserSummary{
			ID:     counterpart.ID.String(),
			Name:   counterpart.Name,
			Avatar: counterpart.Avatar,
		}
	}
	if ref, err := s.refOf(ctx, conv.ListingID); err == nil {
		summary.ListingTitle = ref.Title
	}

	return &response.ConversationThreadResponse{
		Conversation: response.ConversationToResponse(summary),
		Messages:     response.NewPaginatedResponse(data, page.Page, page.PerPage, total),
	}, nil
}

func (s *messageService) MarkRead(ctx context.Context, userID uuid.UUID, conversationID string) (int64, error) {
	conv, err := s.participantConversation(ctx, userID, conversationID)
	if err != nil {
		return 0, err
	}

	n, err := s.repo.Message.MarkRead(ctx, conv.ID, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return n, nil
}

func (s *messageService) send(ctx context.Context, conv *entity.Conversation, senderID uuid.UUID, text string) (*response.MessageResponse, error) {
	msg := &entity.Message{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: s.now(),
		},
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           strings.TrimSpace(text),
	}
	if msg.Text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}

	if err := s.repo.Message.CreateMessage(ctx, msg); err != nil {
		s.log.Error("Failed to send message",
			zap.String("conversation_id", conv.ID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("create message: %w", err)
	}

	resp := response.MessageToResponse(msg)
	return &resp, nil
}

func (s *messageService) participantConversation(ctx context.Context, userID uuid.UUID, id string) (*entity.Conversation, error) {
	convID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid conversation ID", ErrValidation)
	}

	conv, err := s.repo.Message.FindConversationByID(ctx, convID)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	// strangers get the same answer as for a missing conversation
	if conv == nil || !conv.HasParticipant(userID) {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return conv, nil
}

// sellerOf returns the owner of an item buyerID may open a conversation on.
func (s *messageService) sellerOf(ctx context.Context, buyerID, id uuid.UUID) (uuid.UUID, error) {
	ref, err := s.refOf(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if !ref.OpenTo(buyerID) {
		return uuid.Nil, fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	return ref.OwnerID, nil
}

func (s *messageService) refOf(ctx context.Context, id uuid.UUID) (*ItemRef, error) {
	for _, catalog := range s.catalogs {
		ref, err := catalog.Ref(ctx, id)
		if err == nil {
			return ref, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("listing %s: %w", id, ErrNotFound)
}
