package usecase

import (
	"testing"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReview_TargetsListingsAndMarketplace(t *testing.T) {
	svc, db := newCatalogFixture(t)
	seller := db.addUser(&entity.User{Name: "Seller"})
	buyer := db.addUser(&entity.User{Name: "Buyer"})

	listing, err := svc.Listing.Create(ctxBG(), seller.ID, &request.CatalogItemRequest{
		Title: "Ремонт крыши", Description: "Ремонт мягкой кровли", Category: "Ремонт",
	})
	require.NoError(t, err)
	item, err := svc.Marketplace.Create(ctxBG(), seller.ID, &request.CatalogItemRequest{
		Title: "Лодка", Description: "Надувная лодка ПВХ", Category: "Отдых", Price: price(9000),
	})
	require.NoError(t, err)

	_, err = svc.Review.CreateReview(ctxBG(), buyer.ID, listing.ID, &request.CreateReviewRequest{Rating: 5})
	assert.ErrorIs(t, err, ErrNotFound, "pending listings cannot be reviewed")
	_, err = svc.Listing.SetStatus(ctxBG(), listing.ID, entity.StatusActive, nil)
	require.NoError(t, err)

	for _, id := range []string{listing.ID, item.ID} {
		review, err := svc.Review.CreateReview(ctxBG(), buyer.ID, id, &request.CreateReviewRequest{Rating: 5})
		require.NoError(t, err)
		assert.Equal(t, id, review.ListingID)
		require.NotNil(t, review.User)
		assert.Equal(t, "Buyer", review.User.Name)
	}

	_, err = svc.Review.CreateReview(ctxBG(), buyer.ID, uuid.NewString(), &request.CreateReviewRequest{Rating: 5})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReview_RatingBoundsAndNoUniqueness(t *testing.T) {
	svc, db := newCatalogFixture(t)
	seller := db.addUser(&entity.User{Name: "Seller"})
	buyer := db.addUser(&entity.User{Name: "Buyer"})
	item, err := svc.Marketplace.Create(ctxBG(), seller.ID, &request.CatalogItemRequest{
		Title: "Мёд", Description: "Липовый мёд с пасеки", Category: "Продукты", Price: price(800),
	})
	require.NoError(t, err)

	for _, rating := range []int{0, 6} {
		_, err := svc.Review.CreateReview(ctxBG(), buyer.ID, item.ID, &request.CreateReviewRequest{Rating: rating})
		assert.ErrorIs(t, err, ErrValidation, "rating %d", rating)
	}

	for _, rating := range []int{5, 3} {
		_, err := svc.Review.CreateReview(ctxBG(), buyer.ID, item.ID, &request.CreateReviewRequest{Rating: rating})
		require.NoError(t, err)
	}

	all, err := svc.Review.GetListingReviews(ctxBG(), item.ID, nil, &request.PaginatedRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Pagination.Total)

	five := 5
	filtered, err := svc.Review.GetListingReviews(ctxBG(), item.ID, &five, &request.PaginatedRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), filtered.Pagination.Total)

	got, err := svc.Marketplace.Get(ctxBG(), item.ID, Viewer{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ReviewsCount)
	assert.InDelta(t, 4.0, got.AverageRating, 0.001)
}

func TestReview_OwnerOnlyEdits(t *testing.T) {
	svc, db := newCatalogFixture(t)
	seller := db.addUser(&entity.User{Name: "Seller"})
	author := db.addUser(&entity.User{Name: "Author"})
	other := db.addUser(&entity.User{Name: "Other"})
	item, err := svc.Marketplace.Create(ctxBG(), seller.ID, &request.CatalogItemRequest{
		Title: "Яйца", Description: "Домашние куриные яйца", Category: "Продукты", Price: price(150),
	})
	require.NoError(t, err)

	review, err := svc.Review.CreateReview(ctxBG(), author.ID, item.ID, &request.CreateReviewRequest{Rating: 2})
	require.NoError(t, err)

	rating := 4
	_, err = svc.Review.UpdateReview(ctxBG(), review.ID, other.ID, &request.UpdateReviewRequest{Rating: &rating})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Review.UpdateReview(ctxBG(), review.ID, author.ID, &request.UpdateReviewRequest{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)

	assert.ErrorIs(t, svc.Review.DeleteReview(ctxBG(), review.ID, Viewer{UserID: other.ID}), ErrForbidden)
	require.NoError(t, svc.Review.DeleteReview(ctxBG(), review.ID, Viewer{UserID: author.ID}))
	assert.ErrorIs(t, svc.Review.DeleteReview(ctxBG(), review.ID, Viewer{UserID: author.ID}), ErrNotFound)
}

func TestReview_UnpublishedItemsOpenOnlyToOwner(t *testing.T) {
	svc, db := newCatalogFixture(t)
	seller := db.addUser(&entity.User{Name: "Seller"})
	buyer := db.addUser(&entity.User{Name: "Buyer"})
	item, err := svc.Marketplace.Create(ctxBG(), seller.ID, &request.CatalogItemRequest{
		Title: "Сено", Description: "Сено в рулонах", Category: "Хозяйство", Price: price(1200),
	})
	require.NoError(t, err)

	for _, status := range []entity.ItemStatus{entity.StatusRejected, entity.StatusBanned} {
		_, err = svc.Marketplace.SetStatus(ctxBG(), item.ID, status, nil)
		require.NoError(t, err)

		_, err = svc.Review.CreateReview(ctxBG(), buyer.ID, item.ID, &request.CreateReviewRequest{Rating: 1})
		assert.ErrorIs(t, err, ErrNotFound, "status %s", status)

		_, err = svc.Review.CreateReview(ctxBG(), seller.ID, item.ID, &request.CreateReviewRequest{Rating: 5})
		assert.NoError(t, err, "owner, status %s", status)
	}
}
