package repository

import (
	"context"
	"errors"
	"fmt"

	"myvillage-api/internal/data/entity"
	"myvillage-api/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Repository struct {
	User         UserRepository
	Verification VerificationRepository
	Listing      CatalogRepository[*entity.Listing]
	Marketplace  CatalogRepository[*entity.MarketplaceItem]
	Review       ReviewRepository
	Category     CategoryRepository
	Message      MessageRepository

	// Tx runs fn against repositories bound to one transaction.
	Tx TxRunner
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(repo *Repository) error) error
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepository(db, log)
	repo.Tx = &pgxTxRunner{db: db, log: log}
	return repo
}

func newRepository(db database.DBTX, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(db, log),
		Verification: NewVerificationRepository(db, log),
		Listing:      NewListingRepository(db, log),
		Marketplace:  NewMarketplaceRepository(db, log),
		Review:       NewReviewRepository(db, log),
		Category:     NewCategoryRepository(db, log),
		Message:      NewMessageRepository(db, log),
	}
}

type pgxTxRunner struct {
	db  database.PgxIface
	log *zap.Logger
}

func (t *pgxTxRunner) RunInTx(ctx context.Context, fn func(repo *Repository) error) (err error) {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			t.log.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
	}()

	txRepo := newRepository(tx, t.log)
	// Nested calls join the outer transaction.
	txRepo.Tx = joinedTx{repo: txRepo}

	if err = fn(txRepo); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type joinedTx struct {
	repo *Repository
}

func (j joinedTx) RunInTx(ctx context.Context, fn func(repo *Repository) error) error {
	return fn(j.repo)
}
