package usecase

import (
	"testing"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func price(v float64) *float64 { return &v }

func newCatalogFixture(t *testing.T) (*Service, *memDB) {
	t.Helper()
	repo, db := newMemRepository()
	svc := NewService(repo, newTestJWT(), nil, newTestConfig(), zap.NewNop())
	return svc, db
}

func TestCatalog_ListingStartsPendingAndHiddenFromPublic(t *testing.T) {
	svc, db := newCatalogFixture(t)
	owner := db.addUser(&entity.User{Name: "Seller", IsVerified: true})

	created, err := svc.Listing.Create(ctxBG(), owner.ID, &request.CatalogItemRequest{
		Title:       "Установка бани под ключ",
		Description: "Строим бани из бруса и бревна",
		Category:    "Строительство домов и сооружений",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, created.Status)
	assert.Equal(t, entity.ListingTypeListing, created.Type)
	assert.Equal(t, []string{}, created.Images)

	_, err = svc.Listing.Get(ctxBG(), created.ID, Viewer{})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.Listing.Get(ctxBG(), created.ID, Viewer{UserID: owner.ID})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	page, err := svc.Listing.Search(ctxBG(), &request.CatalogSearchRequest{Search: "баня"})
	require.NoError(t, err)
	assert.Empty(t, page.Data)

	_, err = svc.Listing.SetStatus(ctxBG(), created.ID, entity.StatusActive, nil)
	require.NoError(t, err)

	page, err = svc.Listing.Search(ctxBG(), &request.CatalogSearchRequest{Search: "баня"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, created.ID, page.Data[0].ID)
	assert.Equal(t, "Seller", page.Data[0].User.Name)
}

func TestCatalog_SearchRequiresEveryToken(t *testing.T) {
	svc, db := newCatalogFixture(t)
	owner := db.addUser(&entity.User{Name: "Seller"})

	for _, title := range []string{"Вывоз мусора", "Аренда бытовки для мусора"} {
		created, err := svc.Listing.Create(ctxBG(), owner.ID, &request.CatalogItemRequest{
			Title:       title,
			Description: "Быстро и недорого, звоните",
			Category:    "Услуги",
		})
		require.NoError(t, err)
		_, err = svc.Listing.SetStatus(ctxBG(), created.ID, entity.StatusActive, nil)
		require.NoError(t, err)
	}

	page, err := svc.Listing.Search(ctxBG(), &request.CatalogSearchRequest{Search: "мусор бытовка"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Аренда бытовки для мусора", page.Data[0].Title)
}

func TestCatalog_ServicesAndListingsShareTableButNotResults(t *testing.T) {
	svc, db := newCatalogFixture(t)
	owner := db.addUser(&entity.User{Name: "Seller"})

	offer, err := svc.ServiceOffer.Create(ctxBG(), owner.ID, &request.CatalogItemRequest{
		Title:       "Покос травы",
		Description: "Покос травы триммером на участке",
		Category:    "Услуги",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ListingTypeService, offer.Type)

	_, err = svc.Listing.Get(ctxBG(), offer.ID, Viewer{Admin: true})
	assert.ErrorIs(t, err, ErrNotFound)

	mine, err := svc.ServiceOffer.Mine(ctxBG(), owner.ID, &request.CatalogSearchRequest{})
	require.NoError(t, err)
	assert.Len(t, mine.Data, 1)

	mine, err = svc.Listing.Mine(ctxBG(), owner.ID, &request.CatalogSearchRequest{})
	require.NoError(t, err)
	assert.Empty(t, mine.Data)
}

func TestCatalog_MarketplaceRequiresPriceAndPublishesImmediately(t *testing.T) {
	svc, db := newCatalogFixture(t)
	owner := db.addUser(&entity.User{Name: "Seller"})
	req := &request.CatalogItemRequest{
		Title:       "Велосипед",
		Description: "Горный велосипед, почти новый",
		Category:    "Спорт",
		Location:    &request.LocationRequest{Latitude: 55.7, Longitude: 37.6, Address: "ул. Лесная"},
	}

	_, err := svc.Marketplace.Create(ctxBG(), owner.ID, req)
	assert.ErrorIs(t, err, ErrValidation)

	req.Price = price(15000)
	item, err := svc.Marketplace.Create(ctxBG(), owner.ID, req)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, item.Status)
	require.NotNil(t, item.Location)
	assert.Equal(t, "ул. Лесная", item.Location.Address)

	page, err := svc.Marketplace.Search(ctxBG(), &request.CatalogSearchRequest{MinPrice: price(10000), MaxPrice: price(20000)})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)

	_, err = svc.Marketplace.Search(ctxBG(), &request.CatalogSearchRequest{MinPrice: price(2), MaxPrice: price(1)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCatalog_OwnerOnlyUpdateAndDeleteRemovesReviews(t *testing.T) {
	svc, db := newCatalogFixture(t)
	owner := db.addUser(&entity.User{Name: "Seller"})
	stranger := db.addUser(&entity.User{Name: "Stranger"})

	item, err := svc.Marketplace.Create(ctxBG(), owner.ID, &request.CatalogItemRequest{
		Title:       "Дрова березовые",
		Description: "Колотые дрова, доставка по поселку",
		Category:    "Хозяйство",
		Price:       price(3000),
	})
	require.NoError(t, err)

	title := "Дрова сухие"
	_, err = svc.Marketplace.Update(ctxBG(), item.ID, Viewer{UserID: stranger.ID}, &request.CatalogUpdateRequest{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Marketplace.Update(ctxBG(), item.ID, Viewer{UserID: owner.ID}, &request.CatalogUpdateRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, entity.StatusActive, updated.Status, "owner edits keep the status")

	_, err = svc.Review.CreateReview(ctxBG(), stranger.ID, item.ID, &request.CreateReviewRequest{Rating: 4})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Marketplace.Delete(ctxBG(), item.ID, Viewer{UserID: stranger.ID}), ErrForbidden)
	require.NoError(t, svc.Marketplace.Delete(ctxBG(), item.ID, Viewer{UserID: owner.ID}))

	n, err := db.reviewCount()
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.Marketplace.Get(ctxBG(), item.ID, Viewer{UserID: owner.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_PaginationMeta(t *testing.T) {
	svc, db := newCatalogFixture(t)
	owner := db.addUser(&entity.User{Name: "Seller"})
	for i := 0; i < 7; i++ {
		_, err := svc.Marketplace.Create(ctxBG(), owner.ID, &request.CatalogItemRequest{
			Title:       "Рассада томатов",
			Description: "Крепкая рассада, сорт Бычье сердце",
			Category:    "Сад и огород",
			Price:       price(float64(100 + i)),
		})
		require.NoError(t, err)
	}

	for _, tc := range []struct{ page, limit, want int }{{1, 3, 3}, {3, 3, 1}, {4, 3, 0}, {1, 10, 7}} {
		page, err := svc.Marketplace.Search(ctxBG(), &request.CatalogSearchRequest{
			PaginatedRequest: request.PaginatedRequest{Page: tc.page, PerPage: tc.limit},
		})
		require.NoError(t, err)
		assert.Len(t, page.Data, tc.want)
		assert.LessOrEqual(t, len(page.Data), tc.limit)
		assert.Equal(t, int64(7), page.Pagination.Total)
		assert.Equal(t, (7+tc.limit-1)/tc.limit, page.Pagination.Pages)
	}
}

func TestCatalog_InvalidID(t *testing.T) {
	svc, _ := newCatalogFixture(t)

	_, err := svc.Listing.Get(ctxBG(), "not-a-uuid", Viewer{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Listing.Get(ctxBG(), uuid.NewString(), Viewer{})
	assert.ErrorIs(t, err, ErrNotFound)
}
