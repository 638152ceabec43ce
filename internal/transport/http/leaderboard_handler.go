package http

import (
	"net/http"
	"strconv"

	"gamified-learning/internal/app"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 10
	defaultTopLimit  = 10
)

type LeaderboardHandler struct {
	board *app.LeaderboardService
	log   *zap.Logger
}

func NewLeaderboardHandler(board *app.LeaderboardService, log *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{board: board, log: log}
}

func (h *LeaderboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.page)
	r.Get("/top", h.top)
	r.Get("/user/{userId}", h.user)
}

func (h *LeaderboardHandler) page(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", defaultPageLimit)
	entries, pagination, err := h.board.Page(r.Context(), page, limit)
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "data": entries, "pagination": pagination})
}

func (h *LeaderboardHandler) top(w http.ResponseWriter, r *http.Request) {
	lb, err := h.board.Top(r.Context(), queryInt(r, "limit", defaultTopLimit))
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondData(w, http.StatusOK, lb)
}

func (h *LeaderboardHandler) user(w http.ResponseWriter, r *http.Request) {
	standing, err := h.board.UserContext(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondData(w, http.StatusOK, standing)
}

// progress serves the caller's own dashboard.
func (h *LeaderboardHandler) progress(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	view, err := h.board.Progress(r.Context(), userID)
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondData(w, http.StatusOK, view)
}

// queryInt parses an integer query parameter; malformed values fall back.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
