package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/search"
	"myvillage-api/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CatalogFilter narrows a catalog search. Zero values mean "no filter".
type CatalogFilter struct {
	Query    string
	Category string
	Statuses []entity.ItemStatus
	// Kind filters on the table's kind column; tables without one ignore it.
	Kind     string
	UserID   *uuid.UUID
	MinPrice *float64
	MaxPrice *float64
	Sort     search.Sort
	Limit    int
	Offset   int
}

// CatalogRepository stores one kind of searchable catalog entity.
type CatalogRepository[T entity.CatalogEntry] interface {
	Create(ctx context.Context, item T) error
	// FindByID returns nil when the item does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.CatalogHit[T], error)
	Update(ctx context.Context, item T) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ItemStatus, note *string) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Search returns one page of hits and the total number of matches.
	Search(ctx context.Context, filter CatalogFilter) ([]*entity.CatalogHit[T], int64, error)
	Count(ctx context.Context, filter CatalogFilter) (int64, error)
}

// catalogSchema describes the table behind one catalog entity: the shared
// columns are fixed, extra columns are per entity.
type catalogSchema[T entity.CatalogEntry] struct {
	name         string
	table        string
	kindColumn   string
	extraColumns []string
	newItem      func() T
	extraDest    func(item T) []any
	extraValues  func(item T) []any
}

type catalogRepository[T entity.CatalogEntry] struct {
	db     database.DBTX
	schema catalogSchema[T]
	log    *zap.Logger
}

func NewListingRepository(db database.DBTX, log *zap.Logger) CatalogRepository[*entity.Listing] {
	return newCatalogRepository(db, log, catalogSchema[*entity.Listing]{
		name:         "listing",
		table:        "listings",
		kindColumn:   "type",
		extraColumns: []string{"type"},
		newItem:      func() *entity.Listing { return &entity.Listing{} },
		extraDest:    func(l *entity.Listing) []any { return []any{&l.Type} },
		extraValues:  func(l *entity.Listing) []any { return []any{l.Type} },
	})
}

func NewMarketplaceRepository(db database.DBTX, log *zap.Logger) CatalogRepository[*entity.MarketplaceItem] {
	return newCatalogRepository(db, log, catalogSchema[*entity.MarketplaceItem]{
		name:         "marketplace_item",
		table:        "marketplace_items",
		extraColumns: []string{"location"},
		newItem:      func() *entity.MarketplaceItem { return &entity.MarketplaceItem{} },
		extraDest:    func(m *entity.MarketplaceItem) []any { return []any{&m.Location} },
		extraValues:  func(m *entity.MarketplaceItem) []any { return []any{m.Location} },
	})
}

func newCatalogRepository[T entity.CatalogEntry](db database.DBTX, log *zap.Logger, schema catalogSchema[T]) *catalogRepository[T] {
	return &catalogRepository[T]{
		db:     db,
		schema: schema,
		log:    log.With(zap.String("repository", schema.name)),
	}
}

var coreColumns = []string{
	"id", "title", "description", "price", "category", "images",
	"status", "user_id", "moderation_note", "created_at", "updated_at",
}

var searchFields = search.Fields{
	Title:       "i.title",
	Category:    "i.category",
	Description: "i.description",
}

var orderColumns = search.OrderColumns{
	Relevance: "relevance",
	CreatedAt: "i.created_at",
	Price:     "i.price",
	Rating:    "average_rating",
	ID:        "i.id",
}

func (r *catalogRepository[T]) selectColumns() string {
	cols := make([]string, 0, len(coreColumns)+len(r.schema.extraColumns))
	for _, c := range coreColumns {
		cols = append(cols, "i."+c)
	}
	for _, c := range r.schema.extraColumns {
		cols = append(cols, "i."+c)
	}
	return strings.Join(cols, ", ")
}

// hitQuery joins owner and review aggregate onto the item rows.
func (r *catalogRepository[T]) hitQuery(relevance, where, tail string) string {
	return `SELECT ` + r.selectColumns() + `,
		       u.id::text, u.name, u.avatar, u.phone, u.telegram_id,
		       COALESCE(AVG(rv.rating), 0)::float8 AS average_rating,
		       COUNT(DISTINCT rv.id) AS reviews_count,
		       ` + relevance + ` AS relevance
		FROM ` + r.schema.table + ` i
		JOIN users u ON u.id = i.user_id
		LEFT JOIN reviews rv ON rv.listing_id = i.id
		WHERE ` + where + `
		GROUP BY i.id, u.id ` + tail
}

func (r *catalogRepository[T]) scanHit(row pgx.Row) (*entity.CatalogHit[T], error) {
	item := r.schema.newItem()
	core := item.Core()
	hit := &entity.CatalogHit[T]{Item: item}

	dest := []any{
		&core.ID,
		&core.Title,
		&core.Description,
		&core.Price,
		&core.Category,
		&core.Images,
		&core.Status,
		&core.UserID,
		&core.ModerationNote,
		&core.CreatedAt,
		&core.UpdatedAt,
	}
	dest = append(dest, r.schema.extraDest(item)...)
	dest = append(dest,
		&hit.Owner.ID,
		&hit.Owner.Name,
		&hit.Owner.Avatar,
		&hit.Owner.Phone,
		&hit.Owner.TelegramID,
		&hit.AverageRating,
		&hit.ReviewsCount,
		&hit.Relevance,
	)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if core.Images == nil {
		core.Images = []string{}
	}
	return hit, nil
}

func (r *catalogRepository[T]) Create(ctx context.Context, item T) error {
	core := item.Core()
	columns := append(append([]string{}, coreColumns...), r.schema.extraColumns...)

	args := &search.Args{}
	placeholders := []string{
		args.Add(core.ID),
		args.Add(core.Title),
		args.Add(core.Description),
		args.Add(core.Price),
		args.Add(core.Category),
		args.Add(nonNilImages(core.Images)),
		args.Add(core.Status),
		args.Add(core.UserID),
		args.Add(core.ModerationNote),
		args.Add(core.CreatedAt),
		args.Add(core.UpdatedAt),
	}
	for _, v := range r.schema.extraValues(item) {
		placeholders = append(placeholders, args.Add(v))
	}

	query := `INSERT INTO ` + r.schema.table + ` (` + strings.Join(columns, ", ") + `)
		VALUES (` + strings.Join(placeholders, ", ") + `)`

	if _, err := r.db.Exec(ctx, query, args.Values()...); err != nil {
		r.log.Error("Failed to create catalog item",
			zap.Error(err),
			zap.String("title", core.Title),
		)
		return fmt.Errorf("create %s: %w", r.schema.name, err)
	}

	return nil
}

func (r *catalogRepository[T]) FindByID(ctx context.Context, id uuid.UUID) (*entity.CatalogHit[T], error) {
	hit, err := r.scanHit(r.db.QueryRow(ctx, r.hitQuery("0", "i.id = $1", ""), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find catalog item",
			zap.Error(err),
			zap.String("id", id.String()),
		)
		return nil, fmt.Errorf("find %s %s: %w", r.schema.name, id, err)
	}

	return hit, nil
}

func (r *catalogRepository[T]) Update(ctx context.Context, item T) error {
	core := item.Core()

	args := &search.Args{}
	idPh := args.Add(core.ID)
	sets := []string{
		"title = " + args.Add(core.Title),
		"description = " + args.Add(core.Description),
		"price = " + args.Add(core.Price),
		"category = " + args.Add(core.Category),
		"images = " + args.Add(nonNilImages(core.Images)),
		"updated_at = " + args.Add(core.UpdatedAt),
	}
	for i, v := range r.schema.extraValues(item) {
		sets = append(sets, r.schema.extraColumns[i]+" = "+args.Add(v))
	}

	query := `UPDATE ` + r.schema.table + ` SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + idPh

	result, err := r.db.Exec(ctx, query, args.Values()...)
	if err != nil {
		r.log.Error("Failed to update catalog item",
			zap.Error(err),
			zap.String("id", core.ID.String()),
		)
		return fmt.Errorf("update %s %s: %w", r.schema.name, core.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", r.schema.name, core.ID, ErrNoRows)
	}

	return nil
}

func (r *catalogRepository[T]) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ItemStatus, note *string) error {
	query := `UPDATE ` + r.schema.table + `
		SET status = $2, moderation_note = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status, note)
	if err != nil {
		r.log.Error("Failed to update catalog item status",
			zap.Error(err),
			zap.String("id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update %s %s status: %w", r.schema.name, id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", r.schema.name, id, ErrNoRows)
	}

	return nil
}

func (r *catalogRepository[T]) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM `+r.schema.table+` WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete catalog item",
			zap.Error(err),
			zap.String("id", id.String()),
		)
		return fmt.Errorf("delete %s %s: %w", r.schema.name, id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", r.schema.name, id, ErrNoRows)
	}

	return nil
}

// where builds the shared predicate of the page and count queries.
func (r *catalogRepository[T]) where(f CatalogFilter, args *search.Args) (string, search.Bound) {
	var conds []string

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, "i.status = ANY("+args.Add(statuses)+")")
	}
	if f.Kind != "" && r.schema.kindColumn != "" {
		conds = append(conds, "i."+r.schema.kindColumn+" = "+args.Add(f.Kind))
	}
	if f.UserID != nil {
		conds = append(conds, "i.user_id = "+args.Add(*f.UserID))
	}
	if f.Category != "" {
		// Substring match so a parent category finds items stored under a path.
		conds = append(conds, "i.category ILIKE "+args.Add(search.ContainsPattern(f.Category)))
	}
	if f.MinPrice != nil {
		conds = append(conds, "i.price >= "+args.Add(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, "i.price <= "+args.Add(*f.MaxPrice))
	}

	bound := search.Parse(f.Query).Bind(args)
	if text := bound.Filter(searchFields); text != "" {
		conds = append(conds, text)
	}

	if len(conds) == 0 {
		return "TRUE", bound
	}
	return strings.Join(conds, " AND "), bound
}

func (r *catalogRepository[T]) Search(ctx context.Context, f CatalogFilter) ([]*entity.CatalogHit[T], int64, error) {
	args := &search.Args{}
	where, bound := r.where(f, args)
	countArgs := args.Values()

	order := search.OrderBy(f.Sort, !bound.Empty(), orderColumns)
	tail := `ORDER BY ` + order + ` LIMIT ` + args.Add(f.Limit) + ` OFFSET ` + args.Add(f.Offset)
	pageQuery := r.hitQuery(bound.Relevance(searchFields), where, tail)
	countQuery := `SELECT COUNT(*) FROM ` + r.schema.table + ` i WHERE ` + where

	var (
		hits  []*entity.CatalogHit[T]
		total int64
	)

	loadPage := func(ctx context.Context) error {
		var err error
		hits, err = r.queryHits(ctx, pageQuery, args.Values())
		return err
	}
	loadCount := func(ctx context.Context) error {
		if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
			return fmt.Errorf("count %s: %w", r.schema.name, err)
		}
		return nil
	}

	// A transaction cannot run statements concurrently; the pool can.
	if _, inTx := r.db.(pgx.Tx); inTx {
		if err := loadPage(ctx); err != nil {
			return nil, 0, err
		}
		if err := loadCount(ctx); err != nil {
			return nil, 0, err
		}
		return hits, total, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loadPage(gctx) })
	g.Go(func() error { return loadCount(gctx) })
	if err := g.Wait(); err != nil {
		r.log.Error("Failed to search catalog",
			zap.Error(err),
			zap.String("query", f.Query),
			zap.String("category", f.Category),
		)
		return nil, 0, err
	}

	return hits, total, nil
}

func (r *catalogRepository[T]) queryHits(ctx context.Context, query string, args []any) ([]*entity.CatalogHit[T], error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.schema.name, err)
	}
	defer rows.Close()

	hits := make([]*entity.CatalogHit[T], 0)
	for rows.Next() {
		hit, err := r.scanHit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", r.schema.name, err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", r.schema.name, err)
	}

	return hits, nil
}

func (r *catalogRepository[T]) Count(ctx context.Context, f CatalogFilter) (int64, error) {
	args := &search.Args{}
	where, _ := r.where(f, args)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM `+r.schema.table+` i WHERE `+where, args.Values()...).Scan(&total); err != nil {
		r.log.Error("Failed to count catalog items", zap.Error(err))
		return 0, fmt.Errorf("count %s: %w", r.schema.name, err)
	}
	return total, nil
}

func nonNilImages(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
