package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
)

// NewRouter assembles the chi router with the standard middleware stack.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/generations", func(r chi.Router) {
		r.Post("/", app.GenerationsCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.GenerationsGet)
			r.Patch("/", app.GenerationsUpdate)
			r.Post("/scrape", app.GenerationsScrape)
			r.Post("/canvas", app.GenerationsCanvas)
			r.Post("/quadrants", app.GenerationsQuadrant)
			r.Post("/video", app.GenerationsVideoStart)
			r.Get("/video/status", app.GenerationsVideoStatus)
			r.Get("/source-image", app.GenerationsSourceImage)
			r.Get("/canvas-image", app.GenerationsCanvasImage)
		})
	})

	r.Post("/v1/uploads", app.UploadsCreate)

	return r
}
