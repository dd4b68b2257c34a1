package response

import (
	"time"

	"myvillage-api/internal/data/entity"
)

type UserResponse struct {
	ID          string          `json:"id"`
	Phone       *string         `json:"phone"`
	Email       *string         `json:"email"`
	Name        string          `json:"name"`
	Avatar      *string         `json:"avatar"`
	TelegramID  *string         `json:"telegramId"`
	Role        entity.UserRole `json:"role"`
	IsVerified  bool            `json:"isVerified"`
	IsBanned    bool            `json:"isBanned"`
	BanReason   *string         `json:"banReason,omitempty"`
	BannedUntil *time.Time      `json:"bannedUntil,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:          user.ID.String(),
		Phone:       user.Phone,
		Email:       user.Email,
		Name:        user.Name,
		Avatar:      user.Avatar,
		TelegramID:  user.TelegramID,
		Role:        user.Role,
		IsVerified:  user.IsVerified,
		IsBanned:    user.IsBanned,
		BanReason:   user.BanReason,
		BannedUntil: user.BannedUntil,
		CreatedAt:   user.CreatedAt,
	}
}

type PublicProfileResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Avatar       *string   `json:"avatar"`
	IsVerified   bool      `json:"isVerified"`
	ListingCount int64     `json:"listingCount"`
	ReviewCount  int64     `json:"reviewCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TelegramLink string       `json:"telegramLink,omitempty"`
	VerifyToken  string       `json:"verifyToken,omitempty"`
}
