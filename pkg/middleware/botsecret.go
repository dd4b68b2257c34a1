package middleware

import (
	"crypto/subtle"
	"net/http"

	"myvillage-api/pkg/utils"
)

const BotSecretHeader = "X-Bot-Secret"

// BotSecret guards bot-only endpoints with a shared secret. An empty secret
// disables the check.
func BotSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(BotSecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				utils.WriteJSON(w, http.StatusUnauthorized, map[string]any{
					"success": false,
					"error":   "Invalid bot credentials",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
