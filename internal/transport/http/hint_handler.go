package http

import (
	"net/http"

	"gamified-learning/internal/app"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type HintHandler struct {
	hints *app.HintService
	log   *zap.Logger
}

func NewHintHandler(hints *app.HintService, log *zap.Logger) *HintHandler {
	return &HintHandler{hints: hints, log: log}
}

type hintRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required"`
	Code        string `json:"code"`
	HintLevel   int    `json:"hint_level"`
	Language    string `json:"language"`
}

func (h *HintHandler) RegisterRoutes(r chi.Router) {
	r.Use(Authenticator)
	r.Post("/", h.hint)
}

func (h *HintHandler) hint(w http.ResponseWriter, r *http.Request) {
	var req hintRequest
	if err := decode(r, &req); err != nil {
		respondErr(w, h.log, err)
		return
	}
	hint, err := h.hints.Hint(r.Context(), req.ChallengeID, req.Code, req.Language, req.HintLevel)
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondData(w, http.StatusOK, hint)
}
