package usecase

import (
	"testing"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeration_ActionsSetStatus(t *testing.T) {
	svc, db := newCatalogFixture(t)
	seller := db.addUser(&entity.User{Name: "Seller"})
	listing, err := svc.Listing.Create(ctxBG(), seller.ID, &request.CatalogItemRequest{
		Title: "Бурение скважин", Description: "Бурение скважин на воду", Category: "Водоснабжение",
	})
	require.NoError(t, err)

	queue, err := svc.Listing.Queue(ctxBG(), &request.CatalogSearchRequest{})
	require.NoError(t, err)
	assert.Len(t, queue.Data, 1)

	cases := []struct {
		action string
		want   entity.ItemStatus
	}{
		{"approve", entity.StatusActive},
		{"reject", entity.StatusRejected},
		{"ban", entity.StatusBanned},
	}
	for _, tc := range cases {
		reason := "checked"
		item, err := svc.Moderation.Moderate(ctxBG(), svc.Listing, listing.ID, &request.ModerateRequest{Action: tc.action, Reason: &reason})
		require.NoError(t, err)
		assert.Equal(t, tc.want, item.Status)
		require.NotNil(t, item.ModerationNote)
		assert.Equal(t, "checked", *item.ModerationNote)
	}

	_, err = svc.Moderation.Moderate(ctxBG(), svc.Listing, listing.ID, &request.ModerateRequest{Action: "delete"})
	assert.ErrorIs(t, err, ErrValidation)

	stats, err := svc.Moderation.Stats(ctxBG())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(1), stats.Listings)
	assert.Zero(t, stats.PendingListings)
}

func TestModeration_BanAndUnban(t *testing.T) {
	svc, db := newCatalogFixture(t)
	admin := db.addUser(&entity.User{Name: "Admin", Role: entity.RoleAdmin})
	other := db.addUser(&entity.User{Name: "Other Admin", Role: entity.RoleAdmin})
	user := db.addUser(&entity.User{Name: "User"})

	_, err := svc.Moderation.BanUser(ctxBG(), admin.ID, other.ID.String(), &request.BanUserRequest{Reason: "x"})
	assert.ErrorIs(t, err, ErrForbidden)

	days := 7
	banned, err := svc.Moderation.BanUser(ctxBG(), admin.ID, user.ID.String(), &request.BanUserRequest{Reason: "spam", DurationDays: &days})
	require.NoError(t, err)
	assert.True(t, banned.IsBanned)
	require.NotNil(t, banned.BannedUntil)

	stored := db.user(user.ID)
	assert.True(t, stored.IsBanned)
	assert.Equal(t, "spam", *stored.BanReason)

	_, err = svc.Moderation.UnbanUser(ctxBG(), user.ID.String())
	require.NoError(t, err)
	assert.False(t, db.user(user.ID).IsBanned)

	page, err := svc.Moderation.ListUsers(ctxBG(), "admin", &request.PaginatedRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Pagination.Total)
}
