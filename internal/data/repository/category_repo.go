package repository

import (
	"context"
	"errors"
	"fmt"

	"myvillage-api/internal/data/entity"
	"myvillage-api/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	// FindAll returns categories ordered by sort order then name.
	FindAll(ctx context.Context, activeOnly bool) ([]*entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type categoryRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewCategoryRepository(db database.DBTX, log *zap.Logger) CategoryRepository {
	return &categoryRepository{
		db:  db,
		log: log.With(zap.String("repository", "category")),
	}
}

const categoryColumns = `id, name, icon, parent_id, sort_order, is_active, created_at, updated_at`

func scanCategory(row pgx.Row) (*entity.Category, error) {
	var c entity.Category
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Icon,
		&c.ParentID,
		&c.Order,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *entity.Category) error {
	query := `INSERT INTO categories (` + categoryColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Icon,
		c.ParentID,
		c.Order,
		c.IsActive,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create category",
			zap.Error(err),
			zap.String("name", c.Name),
		)
		return fmt.Errorf("create category %s: %w", c.Name, err)
	}

	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find category",
			zap.Error(err),
			zap.String("category_id", id.String()),
		)
		return nil, fmt.Errorf("find category %s: %w", id, err)
	}
	return c, nil
}

func (r *categoryRepository) FindAll(ctx context.Context, activeOnly bool) ([]*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY sort_order ASC, name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to list categories", zap.Error(err))
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*entity.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, c *entity.Category) error {
	query := `
		UPDATE categories
		SET name = $2, icon = $3, parent_id = $4, sort_order = $5, is_active = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Icon,
		c.ParentID,
		c.Order,
		c.IsActive,
		c.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update category",
			zap.Error(err),
			zap.String("category_id", c.ID.String()),
		)
		return fmt.Errorf("update category %s: %w", c.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", c.ID, ErrNoRows)
	}

	return nil
}

// Deactivate is the category soft delete.
func (r *categoryRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `UPDATE categories SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to deactivate category",
			zap.Error(err),
			zap.String("category_id", id.String()),
		)
		return fmt.Errorf("deactivate category %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", id, ErrNoRows)
	}

	return nil
}
