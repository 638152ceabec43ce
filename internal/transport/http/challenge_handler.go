package http

import (
	"net/http"
	"strconv"

	"gamified-learning/internal/app"
	"gamified-learning/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ChallengeHandler struct {
	challenges  *app.ChallengeService
	submissions *app.SubmissionService
	log         *zap.Logger
}

func NewChallengeHandler(challenges *app.ChallengeService, submissions *app.SubmissionService, log *zap.Logger) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges, submissions: submissions, log: log}
}

type testCaseRequest struct {
	Input          any    `json:"input"`
	ExpectedOutput any    `json:"expectedOutput"`
	Description    string `json:"description"`
	Hidden         bool   `json:"hidden"`
}

type challengeRequest struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description" validate:"required"`
	Content     string            `json:"content"`
	Difficulty  string            `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Category    string            `json:"category"`
	Points      int               `json:"points" validate:"gte=0"`
	Language    string            `json:"language"`
	TestCases   []testCaseRequest `json:"testCases" validate:"required,min=1,max=50"`
}

type challengePatchRequest struct {
	Title       *string           `json:"title" validate:"omitempty,max=200"`
	Description *string           `json:"description"`
	Content     *string           `json:"content"`
	Difficulty  *string           `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Category    *string           `json:"category"`
	Points      *int              `json:"points" validate:"omitempty,gte=0"`
	TestCases   []testCaseRequest `json:"testCases" validate:"omitempty,max=50"`
	Active      *bool             `json:"active"`
}

type submitRequest struct {
	Code     string `json:"code" validate:"required"`
	Language string `json:"language"`
}

func (h *ChallengeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Group(func(private chi.Router) {
		private.Use(Authenticator)
		private.Post("/{id}/submit", h.submit)
		private.With(AdminOnly).Post("/", h.create)
		private.With(AdminOnly).Put("/{id}", h.update)
		private.With(AdminOnly).Delete("/{id}", h.delete)
	})
}

func (h *ChallengeHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	showAll, _ := strconv.ParseBool(q.Get("showAll"))
	challenges, err := h.challenges.List(r.Context(), domain.ChallengeFilter{
		Difficulty:      q.Get("difficulty"),
		Category:        q.Get("category"),
		IncludeInactive: showAll,
	})
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "count": len(challenges), "data": challenges})
}

func (h *ChallengeHandler) get(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.challenges.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondData(w, http.StatusOK, challenge)
}

func (h *ChallengeHandler) create(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if err := decode(r, &req); err != nil {
		respondErr(w, h.log, err)
		return
	}
	userID, _ := userIDFromContext(r.Context())
	challenge, err := h.challenges.Create(r.Context(), domain.Challenge{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Difficulty:  domain.Difficulty(req.Difficulty),
		Category:    req.Category,
		Points:      req.Points,
		Language:    req.Language,
		TestCases:   toTestCases(req.TestCases),
	}, userID)
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondData(w, http.StatusCreated, challenge)
}

func (h *ChallengeHandler) update(w http.ResponseWriter, r *http.Request) {
	var req challengePatchRequest
	if err := decode(r, &req); err != nil {
		respondErr(w, h.log, err)
		return
	}
	patch := domain.ChallengePatch{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Category:    req.Category,
		Points:      req.Points,
		TestCases:   toTestCases(req.TestCases),
		Active:      req.Active,
	}
	if req.Difficulty != nil {
		d := domain.Difficulty(*req.Difficulty)
		patch.Difficulty = &d
	}
	challenge, err := h.challenges.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondData(w, http.StatusOK, challenge)
}

func (h *ChallengeHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.challenges.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondData(w, http.StatusOK, envelope{})
}

func (h *ChallengeHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decode(r, &req); err != nil {
		respondErr(w, h.log, err)
		return
	}
	userID, _ := userIDFromContext(r.Context())
	result, err := h.submissions.Submit(r.Context(), userID, chi.URLParam(r, "id"), req.Code, req.Language)
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	body := envelope{"success": true, "evaluation": result.Evaluation, "progress": result.Progress}
	if result.ProgressError != "" {
		body["progressError"] = result.ProgressError
	}
	respondJSON(w, http.StatusOK, body)
}

func toTestCases(in []testCaseRequest) []domain.TestCase {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.TestCase, 0, len(in))
	for _, tc := range in {
		out = append(out, domain.TestCase{
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			Description:    tc.Description,
			Hidden:         tc.Hidden,
		})
	}
	return out
}
