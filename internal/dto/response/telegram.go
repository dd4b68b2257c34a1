package response

import "myvillage-api/internal/data/entity"

type VerifyTokenResponse struct {
	VerifyToken  string `json:"verifyToken"`
	ExpiresAt    int64  `json:"expiresAt"` // epoch ms
	TelegramLink string `json:"telegramLink"`
}

// BotUser is the user shape the Telegram bot expects.
type BotUser struct {
	ID         string  `json:"id"`
	Phone      *string `json:"phone"`
	Name       string  `json:"name"`
	IsVerified bool    `json:"isVerified"`
}

func BotUserFrom(user *entity.User) *BotUser {
	if user == nil {
		return nil
	}
	return &BotUser{
		ID:         user.ID.String(),
		Phone:      user.Phone,
		Name:       user.Name,
		IsVerified: user.IsVerified,
	}
}

type BotVerifyTokenResponse struct {
	Valid bool     `json:"valid"`
	User  *BotUser `json:"user"`
}

type BotConfirmResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	User    *BotUser `json:"user"`
}

type VerificationStatusResponse struct {
	Verified     bool          `json:"verified"`
	User         *UserResponse `json:"user,omitempty"`
	AccessToken  string        `json:"accessToken,omitempty"`
	RefreshToken string        `json:"refreshToken,omitempty"`
}
