package middleware

import (
	"net/http"
	"strings"
	"time"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/data/repository"
	"myvillage-api/pkg/utils"

	"go.uber.org/zap"
)

// Authenticate validates the bearer access token and loads its user.
// Missing users are rejected with 401, users under an active ban with 403.
func Authenticate(jwtManager *utils.JWTManager, userRepo repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				utils.ResponseUnauthorized(w, "Missing or malformed authorization token. Use: Bearer <token>")
				return
			}

			claims, err := jwtManager.Parse(token, utils.AccessToken)
			if err != nil {
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			userID, _ := utils.ParseUUID(claims.UserID)
			user, err := userRepo.FindByID(r.Context(), userID)
			if err != nil {
				logger.Error("Failed to load authenticated user",
					zap.String("user_id", claims.UserID),
					zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			if user == nil {
				utils.ResponseUnauthorized(w, "User not found")
				return
			}

			if user.BanActive(time.Now()) {
				logger.Warn("Banned user rejected", zap.String("user_id", claims.UserID))
				utils.ResponseForbidden(w, banMessage(user))
				return
			}

			ctx := utils.SetUserContext(r.Context(), user.ID, string(user.Role), user.IsVerified)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthenticate attaches the user when a valid access token is sent
// and lets anonymous requests through untouched. Bad tokens are ignored.
func OptionalAuthenticate(jwtManager *utils.JWTManager, userRepo repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := jwtManager.Parse(token, utils.AccessToken)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			userID, _ := utils.ParseUUID(claims.UserID)
			user, err := userRepo.FindByID(r.Context(), userID)
			if err != nil {
				logger.Warn("Optional auth: failed to load user", zap.String("user_id", claims.UserID), zap.Error(err))
			}
			if user == nil || user.BanActive(time.Now()) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := utils.SetUserContext(r.Context(), user.ID, string(user.Role), user.IsVerified)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin - middleware cek role admin. Must run after Authenticate.
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			role, _ := utils.GetRoleFromContext(r.Context())
			if role != string(entity.RoleAdmin) {
				logger.Warn("Admin check: non-admin access attempt",
					zap.String("user_id", userID.String()),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireVerified rejects users who have not linked Telegram yet.
func RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
			utils.ResponseUnauthorized(w, "Authentication required")
			return
		}
		if !utils.IsVerifiedFromContext(r.Context()) {
			utils.ResponseForbidden(w, "Account verification required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func banMessage(user *entity.User) string {
	msg := "Account is banned"
	if user.BanReason != nil && *user.BanReason != "" {
		msg += ": " + *user.BanReason
	}
	if user.BannedUntil != nil {
		msg += " (until " + user.BannedUntil.UTC().Format(time.RFC3339) + ")"
	}
	return msg
}
