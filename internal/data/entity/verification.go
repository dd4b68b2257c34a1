package entity

import (
	"time"

	"github.com/google/uuid"
)

// PendingVerification is one Telegram hand-off attempt. Owner may be nil when
// the client started verification before registering.
type PendingVerification struct {
	BaseSimple
	UserID     *uuid.UUID `db:"user_id"`
	Token      string     `db:"token"`
	ExpiresAt  time.Time  `db:"expires_at"`
	Verified   bool       `db:"verified"`
	TelegramID *string    `db:"telegram_id"`
	VerifiedAt *time.Time `db:"verified_at"`
}

func (v *PendingVerification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
