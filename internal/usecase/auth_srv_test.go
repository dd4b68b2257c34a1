package usecase

import (
	"testing"
	"time"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/dto/request"
	"myvillage-api/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterLoginRefresh(t *testing.T) {
	svc, db := newCatalogFixture(t)

	reg, err := svc.Auth.Register(ctxBG(), &request.RegisterRequest{Phone: "+79990001122", Password: "secret123", Name: "Иван"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.AccessToken)
	assert.Contains(t, reg.TelegramLink, "https://t.me/village_bot?start=")
	assert.False(t, reg.User.IsVerified)
	assert.NotNil(t, db.verification(reg.VerifyToken), "owned verification token issued")

	_, err = svc.Auth.Register(ctxBG(), &request.RegisterRequest{Phone: "+79990001122", Password: "secret123", Name: "Пётр"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Auth.Login(ctxBG(), &request.LoginRequest{Phone: "+79990001122", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := svc.Auth.Login(ctxBG(), &request.LoginRequest{Phone: "+79990001122", Password: "secret123"})
	require.NoError(t, err)

	pair, err := svc.Auth.Refresh(ctxBG(), &request.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	_, err = svc.Auth.Refresh(ctxBG(), &request.RefreshRequest{RefreshToken: login.AccessToken})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "access tokens cannot refresh")
}

func TestAuth_BannedUsers(t *testing.T) {
	svc, db := newCatalogFixture(t)
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)

	reason := "spam"
	phone := "+79990003344"
	db.addUser(&entity.User{Name: "Banned", Phone: &phone, PasswordHash: hash, IsBanned: true, BanReason: &reason})

	_, err = svc.Auth.Login(ctxBG(), &request.LoginRequest{Phone: phone, Password: "secret123"})
	assert.ErrorIs(t, err, ErrUserBanned)

	past := time.Now().Add(-time.Hour)
	expiredPhone := "+79990005566"
	expired := db.addUser(&entity.User{Name: "Was banned", Phone: &expiredPhone, PasswordHash: hash, IsBanned: true, BannedUntil: &past})

	_, err = svc.Auth.Login(ctxBG(), &request.LoginRequest{Phone: expiredPhone, Password: "secret123"})
	require.NoError(t, err)
	assert.False(t, db.user(expired.ID).IsBanned, "expired ban is lifted")
}
