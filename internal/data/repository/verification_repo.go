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

type VerificationRepository interface {
	Create(ctx context.Context, v *entity.PendingVerification) error
	FindByToken(ctx context.Context, token string) (*entity.PendingVerification, error)
	// FindByTokenForUpdate locks the row until the surrounding transaction ends.
	FindByTokenForUpdate(ctx context.Context, token string) (*entity.PendingVerification, error)
	// Purge removes expired unverified tokens before a new one is issued: the
	// owner's when owner is set, anonymous ones otherwise.
	Purge(ctx context.Context, owner *uuid.UUID, now time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// MarkVerified flips an unverified record to verified and back-fills its
	// owner. It reports false when the record was already verified.
	MarkVerified(ctx context.Context, id, userID uuid.UUID, telegramID string, at time.Time) (bool, error)
}

type verificationRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewVerificationRepository(db database.DBTX, log *zap.Logger) VerificationRepository {
	return &verificationRepository{
		db:  db,
		log: log.With(zap.String("repository", "verification")),
	}
}

// tokenPrefix keeps bearer tokens out of logs.
func tokenPrefix(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}

func (r *verificationRepository) Create(ctx context.Context, v *entity.PendingVerification) error {
	query := `
		INSERT INTO pending_verifications (id, user_id, token, expires_at, verified,
		                                   telegram_id, verified_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		v.ID,
		v.UserID,
		v.Token,
		v.ExpiresAt,
		v.Verified,
		v.TelegramID,
		v.VerifiedAt,
		v.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create verification",
			zap.Error(err),
			zap.String("token", tokenPrefix(v.Token)),
		)
		return fmt.Errorf("create verification %s: %w", v.ID, err)
	}

	return nil
}

func (r *verificationRepository) find(ctx context.Context, token string, lock bool) (*entity.PendingVerification, error) {
	query := `
		SELECT id, user_id, token, expires_at, verified, telegram_id, verified_at, created_at
		FROM pending_verifications
		WHERE token = $1
	`
	if lock {
		query += ` FOR UPDATE`
	}

	var v entity.PendingVerification
	err := r.db.QueryRow(ctx, query, token).Scan(
		&v.ID,
		&v.UserID,
		&v.Token,
		&v.ExpiresAt,
		&v.Verified,
		&v.TelegramID,
		&v.VerifiedAt,
		&v.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find verification",
			zap.Error(err),
			zap.String("token", tokenPrefix(token)),
		)
		return nil, fmt.Errorf("find verification %s: %w", tokenPrefix(token), err)
	}

	return &v, nil
}

func (r *verificationRepository) FindByToken(ctx context.Context, token string) (*entity.PendingVerification, error) {
	return r.find(ctx, token, false)
}

func (r *verificationRepository) FindByTokenForUpdate(ctx context.Context, token string) (*entity.PendingVerification, error) {
	return r.find(ctx, token, true)
}

func (r *verificationRepository) Purge(ctx context.Context, owner *uuid.UUID, now time.Time) (int64, error) {
	var (
		query string
		args  []any
	)
	if owner != nil {
		query = `DELETE FROM pending_verifications WHERE user_id = $1 AND verified = false AND expires_at <= $2`
		args = []any{*owner, now}
	} else {
		query = `DELETE FROM pending_verifications WHERE user_id IS NULL AND verified = false AND expires_at <= $1`
		args = []any{now}
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to purge verifications", zap.Error(err))
		return 0, fmt.Errorf("purge verifications: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *verificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM pending_verifications WHERE id = $1`, id); err != nil {
		r.log.Error("Failed to delete verification",
			zap.Error(err),
			zap.String("verification_id", id.String()),
		)
		return fmt.Errorf("delete verification %s: %w", id, err)
	}
	return nil
}

func (r *verificationRepository) MarkVerified(ctx context.Context, id, userID uuid.UUID, telegramID string, at time.Time) (bool, error) {
	query := `
		UPDATE pending_verifications
		SET verified = true, telegram_id = $2, verified_at = $3, user_id = $4
		WHERE id = $1 AND verified = false
	`

	result, err := r.db.Exec(ctx, query, id, telegramID, at, userID)
	if err != nil {
		r.log.Error("Failed to mark verification as verified",
			zap.Error(err),
			zap.String("verification_id", id.String()),
		)
		return false, fmt.Errorf("mark verification %s verified: %w", id, err)
	}

	return result.RowsAffected() == 1, nil
}
