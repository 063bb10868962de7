package api

import (
	"net/http"
	"time"

	"codecrate/internal/api/handler"
	"codecrate/internal/api/middleware"
	"codecrate/internal/app/service"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	tokenAuth *jwtauth.JWTAuth,
	templateService *service.TemplateService,
	assignmentService *service.AssignmentService,
	attemptService *service.AttemptService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second)) // bounds every store call below

	r.Use(jwtauth.Verifier(tokenAuth)) // Verifies token, puts claims in context

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Template routes (author tooling, public reads)
		templateHandler := handler.NewTemplateHandler(templateService)
		v1.Route("/templates", templateHandler.RegisterRoutes)

		// Assignment routes
		assignmentHandler := handler.NewAssignmentHandler(assignmentService)
		v1.Route("/assignments", assignmentHandler.RegisterRoutes)

		// Attempt routes (authenticated: the verified token supplies the user id)
		attemptHandler := handler.NewAttemptHandler(attemptService)
		v1.Route("/attempts", func(attempts chi.Router) {
			attempts.Use(middleware.Authenticator)
			attemptHandler.RegisterRoutes(attempts)
		})
	})

	return r
}
