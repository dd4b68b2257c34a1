package entity

import "time"

type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

type User struct {
	Base
	Phone        *string    `db:"phone"`
	Email        *string    `db:"email"`
	PasswordHash string     `db:"password"`
	Name         string     `db:"name"`
	Avatar       *string    `db:"avatar"`
	TelegramID   *string    `db:"telegram_id"`
	Role         UserRole   `db:"role"`
	IsVerified   bool       `db:"is_verified"`
	IsBanned     bool       `db:"is_banned"`
	BanReason    *string    `db:"ban_reason"`
	BannedUntil  *time.Time `db:"banned_until"`
}

// BanActive reports whether the ban still applies at now.
// A ban without an end date is permanent.
func (u *User) BanActive(now time.Time) bool {
	if !u.IsBanned {
		return false
	}
	if u.BannedUntil != nil && !now.Before(*u.BannedUntil) {
		return false
	}
	return true
}

// UserSummary is the public slice of a user embedded into catalog results.
type UserSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Avatar     *string `json:"avatar"`
	Phone      *string `json:"phone"`
	TelegramID *string `json:"telegramId"`
}
