package usecase

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserBanned         = errors.New("account is banned")

	ErrInvalidToken           = errors.New("Invalid verification token")
	ErrTokenExpired           = errors.New("Verification token has expired")
	ErrTokenAlreadyUsed       = errors.New("Verification token has already been used")
	ErrTelegramAlreadyLinked  = errors.New("This Telegram account is already linked to another user")
	ErrPhoneAlreadyRegistered = errors.New("This phone number is already registered to another user")

	ErrCategoryCycle = errors.New("category cannot be its own ancestor")
	ErrInvalidImage  = errors.New("invalid image")
)

// IsVerificationError reports whether err is an expected outcome of the
// Telegram verification flow rather than an internal failure.
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenAlreadyUsed) ||
		errors.Is(err, ErrTelegramAlreadyLinked) ||
		errors.Is(err, ErrPhoneAlreadyRegistered) ||
		errors.Is(err, ErrValidation)
}
