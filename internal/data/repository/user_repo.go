package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/search"
	"myvillage-api/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByPhone(ctx context.Context, phone string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByTelegramID(ctx context.Context, telegramID string) (*entity.User, error)
	// List filters by a case-insensitive substring of name, phone or email.
	List(ctx context.Context, term string, limit, offset int) ([]*entity.User, error)
	Count(ctx context.Context, term string) (int64, error)
	Update(ctx context.Context, user *entity.User) error
	SetBan(ctx context.Context, id uuid.UUID, banned bool, reason *string, until *time.Time) error
}

type userRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewUserRepository(db database.DBTX, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

const userColumns = `id, phone, email, password, name, avatar, telegram_id, role,
	is_verified, is_banned, ban_reason, banned_until, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Phone,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Avatar,
		&user.TelegramID,
		&user.Role,
		&user.IsVerified,
		&user.IsBanned,
		&user.BanReason,
		&user.BannedUntil,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user record into the database
func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, phone, email, password, name, avatar, telegram_id, role,
		                   is_verified, is_banned, ban_reason, banned_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Phone,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Avatar,
		user.TelegramID,
		user.Role,
		user.IsVerified,
		user.IsBanned,
		user.BanReason,
		user.BannedUntil,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
		return fmt.Errorf("create user %s: %w", user.ID, err)
	}

	return nil
}

func (ur *userRepository) findOne(ctx context.Context, column string, value any) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	user, err := scanUser(ur.db.QueryRow(ctx, query, value))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user",
			zap.Error(err),
			zap.String("by", column),
		)
		return nil, fmt.Errorf("find user by %s: %w", column, err)
	}

	return user, nil
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return ur.findOne(ctx, "id", id)
}

func (ur *userRepository) FindByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return ur.findOne(ctx, "phone", phone)
}

func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return ur.findOne(ctx, "email", email)
}

func (ur *userRepository) FindByTelegramID(ctx context.Context, telegramID string) (*entity.User, error) {
	return ur.findOne(ctx, "telegram_id", telegramID)
}

func userSearchClause(term string, args *search.Args) string {
	if term == "" {
		return "TRUE"
	}
	p := args.Add(search.ContainsPattern(term))
	return "(name ILIKE " + p + " OR phone ILIKE " + p + " OR email ILIKE " + p + ")"
}

func (ur *userRepository) List(ctx context.Context, term string, limit, offset int) ([]*entity.User, error) {
	args := &search.Args{}
	where := userSearchClause(term, args)
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ` + args.Add(limit) + ` OFFSET ` + args.Add(offset)

	rows, err := ur.db.Query(ctx, query, args.Values()...)
	if err != nil {
		ur.log.Error("Failed to list users",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list users limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			ur.log.Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		ur.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate users rows: %w", err)
	}

	return users, nil
}

func (ur *userRepository) Count(ctx context.Context, term string) (int64, error) {
	args := &search.Args{}
	query := `SELECT COUNT(*) FROM users WHERE ` + userSearchClause(term, args)

	var count int64
	if err := ur.db.QueryRow(ctx, query, args.Values()...).Scan(&count); err != nil {
		ur.log.Error("Database error counting users", zap.Error(err))
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

func (ur *userRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET phone = $2, email = $3, password = $4, name = $5, avatar = $6,
		    telegram_id = $7, role = $8, is_verified = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Phone,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Avatar,
		user.TelegramID,
		user.Role,
		user.IsVerified,
		user.UpdatedAt,
	)
	if err != nil {
		ur.log.Error("Failed to update user",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
		return fmt.Errorf("update user %s: %w", user.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", user.ID, ErrNoRows)
	}

	return nil
}

func (ur *userRepository) SetBan(ctx context.Context, id uuid.UUID, banned bool, reason *string, until *time.Time) error {
	query := `
		UPDATE users
		SET is_banned = $2, ban_reason = $3, banned_until = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := ur.db.Exec(ctx, query, id, banned, reason, until)
	if err != nil {
		ur.log.Error("Failed to set user ban",
			zap.Error(err),
			zap.String("user_id", id.String()),
			zap.Bool("banned", banned),
		)
		return fmt.Errorf("set ban on user %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNoRows)
	}

	return nil
}
