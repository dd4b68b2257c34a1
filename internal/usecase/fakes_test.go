package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/data/repository"
	"myvillage-api/internal/search"

	"github.com/google/uuid"
)

// memDB backs in-memory fakes of every repository interface.
type memDB struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*entity.User
	verifications map[uuid.UUID]*entity.PendingVerification
	listings      map[uuid.UUID]*entity.Listing
	market        map[uuid.UUID]*entity.MarketplaceItem
	reviews       map[uuid.UUID]*entity.Review
	categories    map[uuid.UUID]*entity.Category
	conversations map[uuid.UUID]*entity.Conversation
	messages      []*entity.Message
}

func newMemRepository() (*repository.Repository, *memDB) {
	db := &memDB{
		users:         map[uuid.UUID]*entity.User{},
		verifications: map[uuid.UUID]*entity.PendingVerification{},
		listings:      map[uuid.UUID]*entity.Listing{},
		market:        map[uuid.UUID]*entity.MarketplaceItem{},
		reviews:       map[uuid.UUID]*entity.Review{},
		categories:    map[uuid.UUID]*entity.Category{},
		conversations: map[uuid.UUID]*entity.Conversation{},
	}
	repo := &repository.Repository{
		User:         &memUsers{db},
		Verification: &memVerifications{db},
		Listing: &memCatalog[*entity.Listing]{db: db, rows: db.listings, clone: func(l *entity.Listing) *entity.Listing {
			c := *l
			c.Images = append([]string{}, l.Images...)
			return &c
		}, kind: func(l *entity.Listing) string { return string(l.Type) }},
		Marketplace: &memCatalog[*entity.MarketplaceItem]{db: db, rows: db.market, clone: func(m *entity.MarketplaceItem) *entity.MarketplaceItem {
			c := *m
			c.Images = append([]string{}, m.Images...)
			return &c
		}, kind: func(*entity.MarketplaceItem) string { return "" }},
		Review:   &memReviews{db},
		Category: &memCategories{db},
		Message:  &memMessages{db},
	}
	repo.Tx = memTx{repo: repo}
	return repo, db
}

type memTx struct {
	repo *repository.Repository
}

func (t memTx) RunInTx(ctx context.Context, fn func(repo *repository.Repository) error) error {
	return fn(t.repo)
}

func (db *memDB) addUser(u *entity.User) *entity.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = entity.RoleUser
	}
	c := *u
	db.users[u.ID] = &c
	return u
}

func (db *memDB) user(id uuid.UUID) *entity.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.users[id]
	if !ok {
		return nil
	}
	c := *u
	return &c
}

func (db *memDB) userCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users)
}

func (db *memDB) verification(token string) *entity.PendingVerification {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, v := range db.verifications {
		if v.Token == token {
			c := *v
			return &c
		}
	}
	return nil
}

// ==================== users ====================

type memUsers struct{ db *memDB }

func (r *memUsers) Create(ctx context.Context, user *entity.User) error {
	r.db.addUser(user)
	return nil
}

func (r *memUsers) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.db.user(id), nil
}

func (r *memUsers) findBy(match func(u *entity.User) bool) *entity.User {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if match(u) {
			c := *u
			return &c
		}
	}
	return nil
}

func (r *memUsers) FindByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return r.findBy(func(u *entity.User) bool { return u.Phone != nil && *u.Phone == phone }), nil
}

func (r *memUsers) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findBy(func(u *entity.User) bool { return u.Email != nil && *u.Email == email }), nil
}

func (r *memUsers) FindByTelegramID(ctx context.Context, telegramID string) (*entity.User, error) {
	return r.findBy(func(u *entity.User) bool { return u.TelegramID != nil && *u.TelegramID == telegramID }), nil
}

func (r *memUsers) List(ctx context.Context, term string, limit, offset int) ([]*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.User
	for _, u := range r.db.users {
		if term == "" || strings.Contains(strings.ToLower(u.Name), strings.ToLower(term)) {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func (r *memUsers) Count(ctx context.Context, term string) (int64, error) {
	users, _ := r.List(ctx, term, 0, 0)
	return int64(len(users)), nil
}

func (r *memUsers) Update(ctx context.Context, user *entity.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := *user
	r.db.users[user.ID] = &c
	return nil
}

func (r *memUsers) SetBan(ctx context.Context, id uuid.UUID, banned bool, reason *string, until *time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if u, ok := r.db.users[id]; ok {
		u.IsBanned = banned
		u.BanReason = reason
		u.BannedUntil = until
	}
	return nil
}

// ==================== verifications ====================

type memVerifications struct{ db *memDB }

func (r *memVerifications) Create(ctx context.Context, v *entity.PendingVerification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := *v
	r.db.verifications[v.ID] = &c
	return nil
}

func (r *memVerifications) FindByToken(ctx context.Context, token string) (*entity.PendingVerification, error) {
	return r.db.verification(token), nil
}

func (r *memVerifications) FindByTokenForUpdate(ctx context.Context, token string) (*entity.PendingVerification, error) {
	return r.db.verification(token), nil
}

func (r *memVerifications) Purge(ctx context.Context, owner *uuid.UUID, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, v := range r.db.verifications {
		stale := false
		if owner != nil {
			stale = v.UserID != nil && *v.UserID == *owner && !v.Verified && v.Expired(now)
		} else {
			stale = v.UserID == nil && !v.Verified && v.Expired(now)
		}
		if stale {
			delete(r.db.verifications, id)
			n++
		}
	}
	return n, nil
}

func (r *memVerifications) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.verifications, id)
	return nil
}

func (r *memVerifications) MarkVerified(ctx context.Context, id, userID uuid.UUID, telegramID string, at time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	v, ok := r.db.verifications[id]
	if !ok || v.Verified {
		return false, nil
	}
	v.Verified = true
	v.UserID = &userID
	v.TelegramID = &telegramID
	v.VerifiedAt = &at
	return true, nil
}

// ==================== catalog ====================

type memCatalog[T entity.CatalogEntry] struct {
	db    *memDB
	rows  map[uuid.UUID]T
	clone func(T) T
	kind  func(T) string
}

func (r *memCatalog[T]) Create(ctx context.Context, item T) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.rows[item.Core().ID] = r.clone(item)
	return nil
}

func (r *memCatalog[T]) hit(item T) *entity.CatalogHit[T] {
	core := item.Core()
	hit := &entity.CatalogHit[T]{Item: r.clone(item)}
	if owner, ok := r.db.users[core.UserID]; ok {
		hit.Owner = entity.UserSummary{ID: owner.ID.String(), Name: owner.Name}
	}
	var sum int
	for _, rv := range r.db.reviews {
		if rv.ListingID == core.ID {
			sum += rv.Rating
			hit.ReviewsCount++
		}
	}
	if hit.ReviewsCount > 0 {
		hit.AverageRating = float64(sum) / float64(hit.ReviewsCount)
	}
	return hit
}

func (r *memCatalog[T]) FindByID(ctx context.Context, id uuid.UUID) (*entity.CatalogHit[T], error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	item, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return r.hit(item), nil
}

func (r *memCatalog[T]) Update(ctx context.Context, item T) error {
	return r.Create(ctx, item)
}

func (r *memCatalog[T]) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ItemStatus, note *string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if item, ok := r.rows[id]; ok {
		item.Core().Status = status
		item.Core().ModerationNote = note
	}
	return nil
}

func (r *memCatalog[T]) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *memCatalog[T]) Search(ctx context.Context, f repository.CatalogFilter) ([]*entity.CatalogHit[T], int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	q := search.Parse(f.Query)
	var hits []*entity.CatalogHit[T]
	for _, item := range r.rows {
		core := item.Core()
		if !r.keep(item, f) {
			continue
		}
		doc := search.Document{Title: core.Title, Category: core.Category, Description: core.Description}
		if !q.Matches(doc) {
			continue
		}
		hit := r.hit(item)
		hit.Relevance = q.Score(doc)
		hits = append(hits, hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Relevance != hits[j].Relevance {
			return hits[i].Relevance > hits[j].Relevance
		}
		return hits[i].Item.Core().CreatedAt.After(hits[j].Item.Core().CreatedAt)
	})
	total := int64(len(hits))
	return paginate(hits, f.Limit, f.Offset), total, nil
}

func (r *memCatalog[T]) keep(item T, f repository.CatalogFilter) bool {
	core := item.Core()
	if f.Kind != "" && r.kind(item) != f.Kind {
		return false
	}
	if f.UserID != nil && core.UserID != *f.UserID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			found = found || s == core.Status
		}
		if !found {
			return false
		}
	}
	if f.Category != "" && !strings.Contains(strings.ToLower(core.Category), strings.ToLower(f.Category)) {
		return false
	}
	if f.MinPrice != nil && (core.Price == nil || *core.Price < *f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && (core.Price == nil || *core.Price > *f.MaxPrice) {
		return false
	}
	return true
}

func (r *memCatalog[T]) Count(ctx context.Context, f repository.CatalogFilter) (int64, error) {
	f.Limit, f.Offset = 0, 0
	_, total, err := r.Search(ctx, f)
	return total, err
}

// ==================== reviews ====================

type memReviews struct{ db *memDB }

func (r *memReviews) Create(ctx context.Context, review *entity.Review) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := *review
	r.db.reviews[review.ID] = &c
	return nil
}

func (r *memReviews) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rv, ok := r.db.reviews[id]
	if !ok {
		return nil, nil
	}
	c := *rv
	return &c, nil
}

func (r *memReviews) filter(listingID uuid.UUID, rating *int) []*entity.ReviewWithAuthor {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.ReviewWithAuthor
	for _, rv := range r.db.reviews {
		if rv.ListingID != listingID || (rating != nil && rv.Rating != *rating) {
			continue
		}
		item := &entity.ReviewWithAuthor{Review: *rv}
		if u, ok := r.db.users[rv.UserID]; ok {
			item.Author = entity.UserSummary{ID: u.ID.String(), Name: u.Name}
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memReviews) FindByListing(ctx context.Context, listingID uuid.UUID, rating *int, limit, offset int) ([]*entity.ReviewWithAuthor, error) {
	return paginate(r.filter(listingID, rating), limit, offset), nil
}

func (r *memReviews) CountByListing(ctx context.Context, listingID uuid.UUID, rating *int) (int64, error) {
	return int64(len(r.filter(listingID, rating))), nil
}

func (r *memReviews) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, rv := range r.db.reviews {
		if rv.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *memReviews) CountAll(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.db.reviews)), nil
}

func (r *memReviews) Update(ctx context.Context, review *entity.Review) error {
	return r.Create(ctx, review)
}

func (r *memReviews) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.reviews, id)
	return nil
}

func (r *memReviews) DeleteByListing(ctx context.Context, listingID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, rv := range r.db.reviews {
		if rv.ListingID == listingID {
			delete(r.db.reviews, id)
		}
	}
	return nil
}

// ==================== categories ====================

type memCategories struct{ db *memDB }

func (r *memCategories) Create(ctx context.Context, c *entity.Category) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *c
	r.db.categories[c.ID] = &cp
	return nil
}

func (r *memCategories) FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memCategories) FindAll(ctx context.Context, activeOnly bool) ([]*entity.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Category
	for _, c := range r.db.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *memCategories) Update(ctx context.Context, c *entity.Category) error {
	return r.Create(ctx, c)
}

func (r *memCategories) Deactivate(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if c, ok := r.db.categories[id]; ok {
		c.IsActive = false
	}
	return nil
}

// ==================== messages ====================

type memMessages struct{ db *memDB }

func (r *memMessages) CreateConversation(ctx context.Context, c *entity.Conversation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *c
	r.db.conversations[c.ID] = &cp
	return nil
}

func (r *memMessages) FindConversationByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.conversations[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memMessages) FindConversation(ctx context.Context, listingID, buyerID uuid.UUID) (*entity.Conversation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.conversations {
		if c.ListingID == listingID && c.BuyerID == buyerID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memMessages) ListConversations(ctx context.Context, userID uuid.UUID) ([]*entity.ConversationSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.ConversationSummary
	for _, c := range r.db.conversations {
		if !c.HasParticipant(userID) {
			continue
		}
		summary := &entity.ConversationSummary{Conversation: *c}
		for _, m := range r.db.messages {
			if m.ConversationID != c.ID {
				continue
			}
			text := m.Text
			summary.LastMessage = &text
			if m.SenderID != userID && m.ReadAt == nil {
				summary.UnreadCount++
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

func (r *memMessages) CreateMessage(ctx context.Context, m *entity.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *m
	r.db.messages = append(r.db.messages, &cp)
	if c, ok := r.db.conversations[m.ConversationID]; ok {
		c.LastMessageAt = m.CreatedAt
	}
	return nil
}

func (r *memMessages) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Message
	for _, m := range r.db.messages {
		if m.ConversationID == conversationID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return paginate(out, limit, offset), nil
}

func (r *memMessages) CountMessages(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	msgs, _ := r.ListMessages(ctx, conversationID, 0, 0)
	return int64(len(msgs)), nil
}

func (r *memMessages) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID, at time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, m := range r.db.messages {
		if m.ConversationID == conversationID && m.SenderID != readerID && m.ReadAt == nil {
			t := at
			m.ReadAt = &t
			n++
		}
	}
	return n, nil
}

// paginate applies limit/offset; limit 0 returns everything.
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		if offset == 0 {
			return items
		}
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (db *memDB) reviewCount() (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.reviews), nil
}
