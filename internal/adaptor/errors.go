package adaptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"myvillage-api/internal/usecase"
	"myvillage-api/pkg/utils"

	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

// writeServiceError maps service errors to status codes. Unknown errors are
// logged and hidden behind a generic 500.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, usecase.ErrInvalidImage),
		errors.Is(err, usecase.ErrCategoryCycle),
		errors.Is(err, usecase.ErrInvalidToken),
		errors.Is(err, usecase.ErrTokenExpired),
		errors.Is(err, usecase.ErrTokenAlreadyUsed),
		errors.Is(err, usecase.ErrTelegramAlreadyLinked),
		errors.Is(err, usecase.ErrPhoneAlreadyRegistered),
		errors.Is(err, usecase.ErrConflict):
		log.Warn(operation+" rejected", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrInvalidCredentials):
		log.Warn(operation + " failed - invalid credentials")
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, usecase.ErrForbidden),
		errors.Is(err, usecase.ErrUserBanned):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// decodeJSON reads a JSON body into dst. Validation is left to the service.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
