//go:build integration

package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/search"
	"myvillage-api/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// openTestDB applies the migrations to a fresh schema of TEST_DATABASE_URL
// and drops it when the test ends.
func openTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	ctx := context.Background()
	schema := "it_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := pgx.Connect(ctx, url)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		_ = admin.Close(context.Background())
	})

	config, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	config.ConnConfig.RuntimeParams["search_path"] = schema

	pool, err := pgxpool.NewWithConfig(ctx, config)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	ddl, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(ddl))
	require.NoError(t, err)

	return pool
}

type catalogSeed struct {
	repo  *Repository
	owner *entity.User
	at    time.Time
}

func newCatalogSeed(t *testing.T) *catalogSeed {
	t.Helper()
	repo := NewRepository(openTestDB(t), zap.NewNop())
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	owner := &entity.User{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: at, UpdatedAt: at},
		PasswordHash: "x",
		Name:         "Иван",
		Role:         entity.RoleUser,
	}
	require.NoError(t, repo.User.Create(context.Background(), owner))

	return &catalogSeed{repo: repo, owner: owner, at: at}
}

func (s *catalogSeed) listing(t *testing.T, title, category, description string, price *float64, status entity.ItemStatus) *entity.Listing {
	t.Helper()
	s.at = s.at.Add(time.Minute)
	l := &entity.Listing{
		CatalogItem: entity.CatalogItem{
			Base:        entity.Base{ID: uuid.New(), CreatedAt: s.at, UpdatedAt: s.at},
			Title:       title,
			Description: description,
			Price:       price,
			Category:    category,
			Status:      status,
			UserID:      s.owner.ID,
		},
		Type: entity.ListingTypeListing,
	}
	require.NoError(t, s.repo.Listing.Create(context.Background(), l))
	return l
}

func (s *catalogSeed) review(t *testing.T, target uuid.UUID, rating int) {
	t.Helper()
	r := &entity.Review{
		Base:      entity.Base{ID: uuid.New(), CreatedAt: s.at, UpdatedAt: s.at},
		UserID:    s.owner.ID,
		ListingID: target,
		Rating:    rating,
	}
	require.NoError(t, s.repo.Review.Create(context.Background(), r))
}

func hitIDs[T entity.CatalogEntry](hits []*entity.CatalogHit[T]) []uuid.UUID {
	ids := make([]uuid.UUID, len(hits))
	for i, h := range hits {
		ids[i] = h.Item.Core().ID
	}
	return ids
}

func fptr(v float64) *float64 { return &v }

func TestCatalogSearch_Postgres(t *testing.T) {
	seed := newCatalogSeed(t)
	ctx := context.Background()
	active := []entity.ItemStatus{entity.StatusActive}

	roof := seed.listing(t, "Ремонт крыши", "Строительство", "Мягкая кровля", fptr(5000), entity.StatusActive)
	fence := seed.listing(t, "Покраска забора", "Строительство", "Ремонт и покраска", nil, entity.StatusActive)
	wiring := seed.listing(t, "Услуги электрика", "Ремонт", "Проводка", fptr(2000), entity.StatusActive)
	seed.listing(t, "Ремонт бани", "Строительство", "Печи", fptr(9000), entity.StatusPending)

	seed.review(t, roof.ID, 3)
	seed.review(t, roof.ID, 3)
	seed.review(t, fence.ID, 5)

	t.Run("relevance orders title over category", func(t *testing.T) {
		hits, total, err := seed.repo.Listing.Search(ctx, CatalogFilter{
			Query: "ремонт", Statuses: active, Kind: string(entity.ListingTypeListing), Limit: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total, "description-only matches are not members")
		assert.Equal(t, []uuid.UUID{roof.ID, wiring.ID}, hitIDs(hits))
		assert.Equal(t, 3, hits[0].Relevance)
		assert.Equal(t, 2, hits[1].Relevance)
	})

	t.Run("price sorts put missing prices last", func(t *testing.T) {
		asc, _, err := seed.repo.Listing.Search(ctx, CatalogFilter{Statuses: active, Sort: search.SortPriceAsc, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{wiring.ID, roof.ID, fence.ID}, hitIDs(asc))

		desc, _, err := seed.repo.Listing.Search(ctx, CatalogFilter{Statuses: active, Sort: search.SortPriceDesc, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{roof.ID, wiring.ID, fence.ID}, hitIDs(desc))
	})

	t.Run("rating sort aggregates reviews", func(t *testing.T) {
		hits, _, err := seed.repo.Listing.Search(ctx, CatalogFilter{Statuses: active, Sort: search.SortRating, Limit: 10})
		require.NoError(t, err)
		require.Equal(t, []uuid.UUID{fence.ID, roof.ID, wiring.ID}, hitIDs(hits))
		assert.InDelta(t, 3.0, hits[1].AverageRating, 0.001)
		assert.Equal(t, int64(2), hits[1].ReviewsCount)
		assert.Equal(t, "Иван", hits[1].Owner.Name)
		assert.Zero(t, hits[2].ReviewsCount)
	})

	t.Run("pages are newest first with a full total", func(t *testing.T) {
		first, total, err := seed.repo.Listing.Search(ctx, CatalogFilter{Statuses: active, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []uuid.UUID{wiring.ID, fence.ID}, hitIDs(first))

		second, total, err := seed.repo.Listing.Search(ctx, CatalogFilter{Statuses: active, Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []uuid.UUID{roof.ID}, hitIDs(second))
	})

	t.Run("price bounds and count", func(t *testing.T) {
		hits, _, err := seed.repo.Listing.Search(ctx, CatalogFilter{Statuses: active, MinPrice: fptr(3000), Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{roof.ID}, hitIDs(hits))

		pending, err := seed.repo.Listing.Count(ctx, CatalogFilter{Statuses: []entity.ItemStatus{entity.StatusPending}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), pending)
	})

	t.Run("search inside a transaction", func(t *testing.T) {
		err := seed.repo.Tx.RunInTx(ctx, func(tx *Repository) error {
			_, total, err := tx.Listing.Search(ctx, CatalogFilter{Query: "крыш", Statuses: active, Limit: 10})
			if err != nil {
				return err
			}
			assert.Equal(t, int64(1), total)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestUserIdentityConstraints_Postgres(t *testing.T) {
	seed := newCatalogSeed(t)
	ctx := context.Background()

	telegramID := "7007"
	seed.owner.TelegramID = &telegramID
	require.NoError(t, seed.repo.User.Update(ctx, seed.owner))

	other := &entity.User{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: seed.at, UpdatedAt: seed.at},
		PasswordHash: "x",
		Name:         "Пётр",
		Role:         entity.RoleUser,
		TelegramID:   &telegramID,
	}
	err := seed.repo.User.Create(ctx, other)
	constraint, ok := database.UniqueViolation(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, constraint, "telegram_id")
}
