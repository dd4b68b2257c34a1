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

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	Refresh(ctx context.Context, req *request.RefreshRequest) (*utils.TokenPair, error)
	// RequestTelegramVerification issues a verification token owned by userID.
	RequestTelegramVerification(ctx context.Context, userID uuid.UUID) (*response.VerifyTokenResponse, error)
}

type authService struct {
	repo         *repository.Repository
	jwt          *utils.JWTManager
	verification VerificationService
	log          *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	jwt *utils.JWTManager,
	verification VerificationService,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:         repo,
		jwt:          jwt,
		verification: verification,
		log:          log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	// 1. Validasi input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}
	phone := strings.TrimSpace(req.Phone)

	// 2. Cek phone sudah terdaftar
	existing, err := s.repo.User.FindByPhone(ctx, phone)
	if err != nil {
		s.log.Error("Failed to check phone", zap.Error(err))
		return nil, fmt.Errorf("check phone: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: phone already registered", ErrConflict)
	}

	// 3. Hash password
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 4. Create user
	now := time.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Phone:        &phone,
		PasswordHash: hashedPassword,
		Name:         strings.TrimSpace(req.Name),
		Role:         entity.RoleUser,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: phone already registered", ErrConflict)
		}
		s.log.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("create user: %w", err)
	}

	// 5. Tokens + link verifikasi Telegram
	pair, err := s.jwt.GeneratePair(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	resp := &response.AuthResponse{
		User:         response.UserToResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}

	verify, err := s.verification.Issue(ctx, &user.ID)
	if err != nil {
		// user can request a new link later
		s.log.Warn("Failed to issue verification token after register",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	} else {
		resp.TelegramLink = verify.TelegramLink
		resp.VerifyToken = verify.VerifyToken
	}

	s.log.Info("User registered", zap.String("user_id", user.ID.String()))
	return resp, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	user, err := s.repo.User.FindByPhone(ctx, strings.TrimSpace(req.Phone))
	if err != nil {
		s.log.Error("Failed to find user for login", zap.Error(err))
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid login attempt")
		return nil, ErrInvalidCredentials
	}

	if err := s.checkBan(ctx, user); err != nil {
		return nil, err
	}

	pair, err := s.jwt.GeneratePair(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))

	return &response.AuthResponse{
		User:         response.UserToResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, req *request.RefreshRequest) (*utils.TokenPair, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	claims, err := s.jwt.Parse(req.RefreshToken, utils.RefreshToken)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidJWT) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.checkBan(ctx, user); err != nil {
		return nil, err
	}

	return s.jwt.GeneratePair(user.ID, string(user.Role))
}

func (s *authService) RequestTelegramVerification(ctx context.Context, userID uuid.UUID) (*response.VerifyTokenResponse, error) {
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if user.IsVerified {
		return nil, fmt.Errorf("%w: account is already verified", ErrConflict)
	}
	return s.verification.Issue(ctx, &user.ID)
}

// checkBan rejects actively banned users and lifts bans that ran out.
func (s *authService) checkBan(ctx context.Context, user *entity.User) error {
	if !user.IsBanned {
		return nil
	}
	if user.BanActive(time.Now()) {
		s.log.Warn("Banned user rejected", zap.String("user_id", user.ID.String()))
		if user.BanReason != nil && *user.BanReason != "" {
			return fmt.Errorf("%w: %s", ErrUserBanned, *user.BanReason)
		}
		return ErrUserBanned
	}

	if err := s.repo.User.SetBan(ctx, user.ID, false, nil, nil); err != nil {
		s.log.Warn("Failed to clear expired ban", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	user.IsBanned = false
	user.BanReason = nil
	user.BannedUntil = nil
	return nil
}
