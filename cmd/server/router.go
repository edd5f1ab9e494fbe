package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mnemolabs/mnemo-api/internal/api"
	apiMiddleware "github.com/mnemolabs/mnemo-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	cardHandler := api.NewCardHandler(app.reviewService, app.logger)
	sessionHandler := api.NewSessionHandler(app.sessionService, app.logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/students/{studentID}/courses/{courseID}", func(r chi.Router) {
			r.Post("/cards", cardHandler.EnrollCards)
			r.Get("/cards/due", cardHandler.DueCards)
			r.Get("/cards/due/count", cardHandler.DueCount)
			r.Get("/cards/statistics", cardHandler.CardStatistics)
			r.Get("/sessions", sessionHandler.RecentSessions)
			r.Get("/stats", sessionHandler.StudyStats)
		})

		r.Route("/cards/{cardID}", func(r chi.Router) {
			r.Post("/review", cardHandler.SubmitReview)
			r.Post("/reset", cardHandler.ResetCard)
			r.Get("/retrievability", cardHandler.Retrievability)
		})

		r.Post("/sessions", sessionHandler.CreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", sessionHandler.GetSession)
			r.Post("/responses", sessionHandler.SubmitResponse)
			r.Post("/complete", sessionHandler.CompleteSession)
			r.Post("/abandon", sessionHandler.AbandonSession)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
