package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Post("/recommendations", apiHandler.RecommendationsHandler)
		r.Post("/preferences", apiHandler.PreferencesHandler)
		r.Get("/users/{userID}/profile", apiHandler.ProfileHandler)
		r.Get("/metrics", apiHandler.MetricsHandler)
	})

	return r
}
