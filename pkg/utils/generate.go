package utils

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateVerificationToken returns an opaque random token for the Telegram hand-off.
func GenerateVerificationToken() string {
	return uuid.NewString()
}

// GenerateRandomSecret returns n random bytes hex-encoded. Used as an
// unusable password for accounts created through Telegram.
func GenerateRandomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}
