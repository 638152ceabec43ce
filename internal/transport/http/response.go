package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"gamified-learning/internal/domain"
	"go.uber.org/zap"
)

type envelope map[string]any

type errorResponse struct {
	Success bool `json:"success"`
	Error   any  `json:"error"`
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondData wraps payload as {success: true, data: payload}.
func respondData(w http.ResponseWriter, code int, payload any) {
	respondJSON(w, code, envelope{"success": true, "data": payload})
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, errorResponse{Error: message})
}

// respondErr maps a service error to its status. Unexpected errors are logged and hidden.
func respondErr(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Messages})
		return
	}
	code := statusFromError(err)
	if code == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		respondError(w, code, "Server Error")
		return
	}
	respondError(w, code, err.Error())
}

func statusFromError(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, domain.ErrInvalidChallenge),
		errors.Is(err, domain.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrSubmissionFinalized):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
