package http

import (
	"net/http"

	"github.com/atinyakov/codepath/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP handler of the development API.
//
// Routes:
//
//	POST /auth/signup, /auth/login        → credential exchange
//	POST /auth/refresh, /auth/logout      → read the bearer token themselves
//	GET  /skills, /skills/{id}            → catalog
//	GET  /quizzes, /quizzes/{id}          → catalog
//	GET  /content, /content/{id}          → catalog
//	GET  /auth/me, /users/me              → protected
//	PUT  /users/profile                   → protected
//	POST /skills                          → protected
//	POST /attempts/...                    → protected
//	GET  /mastery                         → protected
//
// Refresh and logout stay outside BearerAuth so that an expired token can
// still be exchanged or revoked.
func NewRouter(
	authHandler *AuthHandler,
	learningHandler *LearningHandler,
	authenticator middleware.Authenticator,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
		r.With(middleware.BearerAuth(authenticator)).Get("/me", authHandler.Me)
	})

	r.Get("/skills", learningHandler.Skills)
	r.Get("/skills/{id}", learningHandler.Skill)
	r.Get("/quizzes", learningHandler.Quizzes)
	r.Get("/quizzes/{id}", learningHandler.Quiz)
	r.Get("/content", learningHandler.Content)
	r.Get("/content/{id}", learningHandler.ContentItem)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(authenticator))

		r.Get("/users/me", authHandler.Profile)
		r.Put("/users/profile", authHandler.UpdateProfile)
		r.Post("/skills", learningHandler.CreateSkill)
		r.Post("/attempts/start", learningHandler.StartAttempt)
		r.Post("/attempts/{id}/response", learningHandler.SaveResponse)
		r.Post("/attempts/{id}/submit", learningHandler.Submit)
		r.Get("/mastery", learningHandler.Mastery)
	})

	return r
}
