package http

import (
	"net/http"
	"time"

	"gamified-learning/internal/app"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Auth        *app.AuthService
	Challenges  *app.ChallengeService
	Submissions *app.SubmissionService
	Leaderboard *app.LeaderboardService
	Hints       *app.HintService
	Hub         *app.LeaderboardHub
}

const requestTimeout = 60 * time.Second

func NewRouter(svc Services, tokens *TokenService, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(accessLog(log))
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, envelope{"status": "ok"})
	})

	// long-lived, so outside the request timeout
	r.Get("/ws/leaderboard", NewWSHandler(svc.Hub, log).ServeWS)

	r.Route("/api", func(api chi.Router) {
		api.Use(chiMiddleware.Timeout(requestTimeout))
		api.Use(tokens.Verifier())

		api.Route("/auth", NewAuthHandler(svc.Auth, log).RegisterRoutes)
		api.Route("/challenges", NewChallengeHandler(svc.Challenges, svc.Submissions, log).RegisterRoutes)
		api.Route("/submissions", NewSubmissionHandler(svc.Submissions, log).RegisterRoutes)
		api.Route("/hints", NewHintHandler(svc.Hints, log).RegisterRoutes)

		leaderboard := NewLeaderboardHandler(svc.Leaderboard, log)
		api.Route("/leaderboard", leaderboard.RegisterRoutes)
		api.With(Authenticator).Get("/progress", leaderboard.progress)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Route not found")
	})
	return r
}
