package http

import (
	"net/http"

	"gamified-learning/internal/app"
	"gamified-learning/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth *app.AuthService
	log  *zap.Logger
}

func NewAuthHandler(auth *app.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"max=100"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	FullName string `json:"fullName" validate:"max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Group(func(private chi.Router) {
		private.Use(Authenticator)
		private.Get("/profile", h.profile)
		private.Put("/profile", h.updateProfile)
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		respondErr(w, h.log, err)
		return
	}
	session, err := h.auth.Register(r.Context(), app.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondData(w, http.StatusCreated, session)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		respondErr(w, h.log, err)
		return
	}
	login := firstNonEmpty(req.Login, req.Username, req.Email)
	if login == "" {
		respondErr(w, h.log, domain.NewValidationError("username or email is required"))
		return
	}
	session, err := h.auth.Login(r.Context(), login, req.Password)
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondData(w, http.StatusOK, session)
}

func (h *AuthHandler) profile(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	user, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	var req profileRequest
	if err := decode(r, &req); err != nil {
		respondErr(w, h.log, err)
		return
	}
	user, err := h.auth.UpdateProfile(r.Context(), userID, domain.ProfileUpdate{FullName: req.FullName, Email: req.Email})
	if err != nil {
		respondErr(w, h.log, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
