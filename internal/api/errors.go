package api

import (
	"errors"
	"net/http"

	"github.com/mnemolabs/mnemo-api/internal/api/shared"
	"github.com/mnemolabs/mnemo-api/internal/domain"
	"github.com/mnemolabs/mnemo-api/internal/service/review"
	"github.com/mnemolabs/mnemo-api/internal/service/session"
	"github.com/mnemolabs/mnemo-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes so
// handlers never leak internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authorization errors
	case errors.Is(err, review.ErrCardNotOwned),
		errors.Is(err, session.ErrSessionNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, review.ErrCardNotFound),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, review.ErrReviewConflict),
		errors.Is(err, session.ErrSessionConflict),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, domain.ErrSessionNotActive),
		errors.Is(err, domain.ErrSessionAlreadyCompleted),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrCardNotInSession),
		errors.Is(err, review.ErrNoItemsToEnroll),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly message for
// the error. Raw error strings stay in the logs.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, review.ErrCardNotOwned):
		return "You do not own this card"
	case errors.Is(err, session.ErrSessionNotOwned):
		return "You do not own this session"
	case errors.Is(err, review.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, session.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, review.ErrReviewConflict),
		errors.Is(err, store.ErrConflict):
		return "The card was reviewed concurrently; reload and try again"
	case errors.Is(err, session.ErrSessionConflict):
		return "The session was updated concurrently; reload and try again"
	case errors.Is(err, domain.ErrSessionAlreadyCompleted):
		return "The session is already completed"
	case errors.Is(err, domain.ErrSessionNotActive):
		return "The session is no longer active"
	case errors.Is(err, domain.ErrCardNotInSession):
		return "The card is not part of this session"
	case errors.Is(err, domain.ErrInvalidRating):
		return "Rating must be between 1 (again) and 4 (easy)"
	case errors.Is(err, review.ErrNoItemsToEnroll):
		return "No content items to enroll"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	default:
		return "An unexpected error occurred"
	}
}

// respondServiceError is the common error exit for handlers: map the
// error to a status and safe message, log the real one.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
