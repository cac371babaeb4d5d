package transport

import (
	"errors"
	"net/http"

	"winecellar/internal/middleware"
	"winecellar/internal/repository"
	"winecellar/internal/service"

	"go.uber.org/zap"
)

// respondServiceError maps domain sentinels onto HTTP statuses. Anything
// unmapped is a 500 and gets logged, the mapped cases are expected outcomes
// and stay quiet.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, repository.ErrCellarNotFound),
		errors.Is(err, repository.ErrShelfNotFound),
		errors.Is(err, repository.ErrLotNotFound),
		errors.Is(err, repository.ErrBottleNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		middleware.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrCapacityExceeded),
		errors.Is(err, repository.ErrShelfNotEmpty):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidCapacity),
		errors.Is(err, service.ErrInvalidScore):
		middleware.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.Error("Unhandled service error", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
