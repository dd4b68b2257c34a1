package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/data/repository"
	"myvillage-api/internal/dto/response"
	"myvillage-api/pkg/database"
	"myvillage-api/pkg/metrics"
	"myvillage-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultVerificationTTL = 15 * time.Minute

// ConfirmInput is what the bot (or the Mini App) reports back for a token.
type ConfirmInput struct {
	Token      string
	TelegramID string
	Phone      *string
	Name       *string
}

type VerificationService interface {
	// Issue creates a token, optionally owned by a registered user.
	Issue(ctx context.Context, owner *uuid.UUID) (*response.VerifyTokenResponse, error)
	// Resolve returns a live token and its owner (nil when the token has none).
	Resolve(ctx context.Context, token string) (*entity.PendingVerification, *entity.User, error)
	// Confirm links a Telegram identity to the token and returns the resulting user.
	Confirm(ctx context.Context, in ConfirmInput) (*entity.User, error)
	// Status is the polling view of a token; it never fails for unknown or expired tokens.
	Status(ctx context.Context, token string) (*response.VerificationStatusResponse, error)
}

type verificationService struct {
	repo        *repository.Repository
	jwt         *utils.JWTManager
	botUsername string
	ttl         time.Duration
	now         func() time.Time
	log         *zap.Logger
}

func NewVerificationService(
	repo *repository.Repository,
	jwt *utils.JWTManager,
	config *utils.Config,
	log *zap.Logger,
) VerificationService {
	ttl := time.Duration(config.Verification.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultVerificationTTL
	}
	return &verificationService{
		repo:        repo,
		jwt:         jwt,
		botUsername: config.Telegram.BotUsername,
		ttl:         ttl,
		now:         time.Now,
		log:         log.With(zap.String("service", "verification")),
	}
}

func (s *verificationService) Issue(ctx context.Context, owner *uuid.UUID) (*response.VerifyTokenResponse, error) {
	now := s.now()

	purged, err := s.repo.Verification.Purge(ctx, owner, now)
	if err != nil {
		// stale rows only cost space, issuing still works
		s.log.Warn("Failed to purge stale verification tokens", zap.Error(err))
	} else if purged > 0 {
		s.log.Debug("Purged stale verification tokens", zap.Int64("count", purged))
	}

	record := &entity.PendingVerification{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		UserID:    owner,
		Token:     utils.GenerateVerificationToken(),
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.repo.Verification.Create(ctx, record); err != nil {
		s.log.Error("Failed to create verification token", zap.Error(err))
		metrics.VerificationOutcomes.WithLabelValues("issue", "error").Inc()
		return nil, fmt.Errorf("create verification token: %w", err)
	}

	metrics.VerificationOutcomes.WithLabelValues("issue", "ok").Inc()
	s.log.Info("Verification token issued",
		zap.String("token", tokenPrefix(record.Token)),
		zap.Bool("owned", owner != nil))

	return &response.VerifyTokenResponse{
		VerifyToken:  record.Token,
		ExpiresAt:    record.ExpiresAt.UnixMilli(),
		TelegramLink: s.telegramLink(record.Token),
	}, nil
}

func (s *verificationService) Resolve(ctx context.Context, token string) (*entity.PendingVerification, *entity.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, ErrInvalidToken
	}

	record, err := s.repo.Verification.FindByToken(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("find verification token: %w", err)
	}
	if record == nil {
		metrics.VerificationOutcomes.WithLabelValues("resolve", "invalid").Inc()
		return nil, nil, ErrInvalidToken
	}

	if record.Expired(s.now()) {
		s.dropExpired(ctx, record.ID)
		metrics.VerificationOutcomes.WithLabelValues("resolve", "expired").Inc()
		return nil, nil, ErrTokenExpired
	}

	var owner *entity.User
	if record.UserID != nil {
		owner, err = s.repo.User.FindByID(ctx, *record.UserID)
		if err != nil {
			return nil, nil, fmt.Errorf("find token owner: %w", err)
		}
	}

	metrics.VerificationOutcomes.WithLabelValues("resolve", "ok").Inc()
	return record, owner, nil
}

func (s *verificationService) Confirm(ctx context.Context, in ConfirmInput) (*entity.User, error) {
	in.Token = strings.TrimSpace(in.Token)
	in.TelegramID = strings.TrimSpace(in.TelegramID)
	if in.Token == "" || in.TelegramID == "" {
		return nil, fmt.Errorf("%w: verifyToken and telegramId are required", ErrValidation)
	}

	now := s.now()
	var (
		result    *entity.User
		expiredID *uuid.UUID
	)

	err := s.repo.Tx.RunInTx(ctx, func(tx *repository.Repository) error {
		record, err := tx.Verification.FindByTokenForUpdate(ctx, in.Token)
		if err != nil {
			return fmt.Errorf("lock verification token: %w", err)
		}
		if record == nil {
			return ErrInvalidToken
		}
		if record.Expired(now) {
			id := record.ID
			expiredID = &id
			return ErrTokenExpired
		}

		linked, err := tx.User.FindByTelegramID(ctx, in.TelegramID)
		if err != nil {
			return fmt.Errorf("find user by telegram id: %w", err)
		}

		if record.Verified {
			result, err = s.replayConfirmed(ctx, tx, record, linked, in.TelegramID)
			return err
		}

		user, err := s.applyConfirmation(ctx, tx, record, linked, in, now)
		if err != nil {
			return err
		}

		ok, err := tx.Verification.MarkVerified(ctx, record.ID, user.ID, in.TelegramID, now)
		if err != nil {
			return fmt.Errorf("mark token verified: %w", err)
		}
		if !ok {
			return ErrTokenAlreadyUsed
		}

		result = user
		return nil
	})

	if expiredID != nil {
		s.dropExpired(ctx, *expiredID)
	}

	if err != nil {
		s.recordConfirmOutcome(err)
		if IsVerificationError(err) {
			s.log.Warn("Verification confirm rejected",
				zap.String("token", tokenPrefix(in.Token)),
				zap.Error(err))
		} else {
			s.log.Error("Verification confirm failed",
				zap.String("token", tokenPrefix(in.Token)),
				zap.Error(err))
		}
		return nil, err
	}

	metrics.VerificationOutcomes.WithLabelValues("confirm", "ok").Inc()
	s.log.Info("Telegram verification confirmed",
		zap.String("token", tokenPrefix(in.Token)),
		zap.String("user_id", result.ID.String()))

	return result, nil
}

// replayConfirmed answers a confirm call on a token that is already verified.
// The same Telegram account gets its user back; anything else is rejected.
func (s *verificationService) replayConfirmed(
	ctx context.Context,
	tx *repository.Repository,
	record *entity.PendingVerification,
	linked *entity.User,
	telegramID string,
) (*entity.User, error) {
	if record.TelegramID != nil && *record.TelegramID == telegramID && record.UserID != nil {
		user, err := tx.User.FindByID(ctx, *record.UserID)
		if err != nil {
			return nil, fmt.Errorf("find confirmed user: %w", err)
		}
		if user != nil {
			return user, nil
		}
	}

	if linked != nil && (record.UserID == nil || linked.ID != *record.UserID) {
		return nil, ErrTelegramAlreadyLinked
	}
	return nil, ErrTokenAlreadyUsed
}

// applyConfirmation updates, merges into or creates the user behind a token.
func (s *verificationService) applyConfirmation(
	ctx context.Context,
	tx *repository.Repository,
	record *entity.PendingVerification,
	linked *entity.User,
	in ConfirmInput,
	now time.Time,
) (*entity.User, error) {
	phone := trimmed(in.Phone)
	name := trimmed(in.Name)

	var owner *entity.User
	if record.UserID != nil {
		var err error
		owner, err = tx.User.FindByID(ctx, *record.UserID)
		if err != nil {
			return nil, fmt.Errorf("find token owner: %w", err)
		}
	}

	if owner != nil {
		if linked != nil && linked.ID != owner.ID {
			return nil, ErrTelegramAlreadyLinked
		}

		if phone != "" {
			holder, err := tx.User.FindByPhone(ctx, phone)
			if err != nil {
				return nil, fmt.Errorf("find user by phone: %w", err)
			}
			if holder != nil && holder.ID != owner.ID {
				return nil, ErrPhoneAlreadyRegistered
			}
			owner.Phone = &phone
		}
		if name != "" {
			owner.Name = name
		}
		owner.IsVerified = true
		owner.TelegramID = &in.TelegramID
		owner.UpdatedAt = now

		if err := tx.User.Update(ctx, owner); err != nil {
			if conflict := identityConflict(err); conflict != nil {
				return nil, conflict
			}
			return nil, fmt.Errorf("update token owner: %w", err)
		}
		return owner, nil
	}

	if phone != "" {
		existing, err := tx.User.FindByPhone(ctx, phone)
		if err != nil {
			return nil, fmt.Errorf("find user by phone: %w", err)
		}
		if existing != nil {
			if linked != nil && linked.ID != existing.ID {
				return nil, ErrTelegramAlreadyLinked
			}
			existing.IsVerified = true
			existing.TelegramID = &in.TelegramID
			existing.UpdatedAt = now
			if err := tx.User.Update(ctx, existing); err != nil {
				if conflict := identityConflict(err); conflict != nil {
					return nil, conflict
				}
				return nil, fmt.Errorf("merge telegram identity: %w", err)
			}
			return existing, nil
		}
	}

	if linked != nil {
		return nil, ErrTelegramAlreadyLinked
	}

	secret, err := utils.GenerateRandomSecret(32)
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hash, err := utils.HashPassword(secret)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if name == "" {
		name = "User " + in.TelegramID
	}

	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash: hash,
		Name:         name,
		TelegramID:   &in.TelegramID,
		Role:         entity.RoleUser,
		IsVerified:   true,
	}
	if phone != "" {
		user.Phone = &phone
	}

	if err := tx.User.Create(ctx, user); err != nil {
		if conflict := identityConflict(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("create telegram user: %w", err)
	}
	return user, nil
}

func (s *verificationService) Status(ctx context.Context, token string) (*response.VerificationStatusResponse, error) {
	notVerified := &response.VerificationStatusResponse{Verified: false}

	token = strings.TrimSpace(token)
	if token == "" {
		return notVerified, nil
	}

	record, err := s.repo.Verification.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("find verification token: %w", err)
	}
	if record == nil {
		return notVerified, nil
	}
	if record.Expired(s.now()) {
		s.dropExpired(ctx, record.ID)
		return notVerified, nil
	}
	if !record.Verified || record.UserID == nil {
		return notVerified, nil
	}

	user, err := s.repo.User.FindByID(ctx, *record.UserID)
	if err != nil {
		return nil, fmt.Errorf("find verified user: %w", err)
	}
	if user == nil {
		return notVerified, nil
	}

	pair, err := s.jwt.GeneratePair(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	userResp := response.UserToResponse(user)
	return &response.VerificationStatusResponse{
		Verified:     true,
		User:         &userResp,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *verificationService) telegramLink(token string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", s.botUsername, token)
}

func (s *verificationService) dropExpired(ctx context.Context, id uuid.UUID) {
	if err := s.repo.Verification.Delete(ctx, id); err != nil {
		s.log.Warn("Failed to delete expired verification token",
			zap.String("id", id.String()),
			zap.Error(err))
	}
}

func (s *verificationService) recordConfirmOutcome(err error) {
	outcome := "error"
	switch {
	case errors.Is(err, ErrInvalidToken):
		outcome = "invalid"
	case errors.Is(err, ErrTokenExpired):
		outcome = "expired"
	case errors.Is(err, ErrTokenAlreadyUsed):
		outcome = "already_used"
	case errors.Is(err, ErrTelegramAlreadyLinked):
		outcome = "telegram_linked"
	case errors.Is(err, ErrPhoneAlreadyRegistered):
		outcome = "phone_registered"
	case errors.Is(err, ErrValidation):
		outcome = "invalid_input"
	}
	metrics.VerificationOutcomes.WithLabelValues("confirm", outcome).Inc()
}

// identityConflict maps a unique violation on users, raised when a concurrent
// confirm linked the same identity first, to the matching handshake error.
func identityConflict(err error) error {
	constraint, ok := database.UniqueViolation(err)
	if !ok {
		return nil
	}
	if strings.Contains(constraint, "phone") {
		return ErrPhoneAlreadyRegistered
	}
	return ErrTelegramAlreadyLinked
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
