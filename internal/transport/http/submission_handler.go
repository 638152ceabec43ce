package http

import (
	"net/http"

	"gamified-learning/internal/app"
	"gamified-learning/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SubmissionHandler struct {
	submissions *app.SubmissionService
	log         *zap.Logger
}

func NewSubmissionHandler(submissions *app.SubmissionService, log *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, log: log}
}

type submissionRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required"`
	Code        string `json:"code" validate:"required"`
	Language    string `json:"language"`
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Use(Authenticator) // all submission routes require auth
	r.Post("/", h.create)
	r.Get("/user/{userId}", h.listByUser)
	r.With(AdminOnly).Get("/challenge/{challengeId}", h.listByChallenge)
}

func (h *SubmissionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := decode(r, &req); err != nil {
		respondErr(w, h.log, err)
		return
	}
	userID, _ := userIDFromContext(r.Context())
	result, err := h.submissions.Submit(r.Context(), userID, req.ChallengeID, req.Code, req.Language)
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	body := envelope{
		"success":    true,
		"data":       result.Submission,
		"evaluation": result.Evaluation,
		"progress":   result.Progress,
	}
	if result.ProgressError != "" {
		body["progressError"] = result.ProgressError
	}
	respondJSON(w, http.StatusCreated, body)
}

// listByUser is open to the user themself and to admins.
func (h *SubmissionHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "userId")
	caller, _ := userIDFromContext(r.Context())
	role, _ := userRoleFromContext(r.Context())
	if caller != target && role != domain.RoleAdmin {
		respondErr(w, h.log, domain.ErrForbidden)
		return
	}
	list, err := h.submissions.ListByUser(r.Context(), target)
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "count": len(list), "data": list})
}

func (h *SubmissionHandler) listByChallenge(w http.ResponseWriter, r *http.Request) {
	list, err := h.submissions.ListByChallenge(r.Context(), chi.URLParam(r, "challengeId"))
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "count": len(list), "data": list})
}
