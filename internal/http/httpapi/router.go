package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studio/internal/http/handlers"
	"studio/internal/middleware"
)

// Options carries the cross-cutting configuration the router needs beyond
// the handler container itself.
type Options struct {
	Logger          func(http.Handler) http.Handler
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	AllowedOrigins  []string
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
	)
	if opts.Logger != nil {
		r.Use(opts.Logger)
	}
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.AllowedOrigins))
	}
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}
	r.Use(middleware.I18N(opts.DefaultLocale, opts.CountryLookup))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/", app.JobsEnqueue)
		r.Get("/{job_id}", app.JobStatus)
		r.Get("/{job_id}/assets", app.JobAssets)
		r.Get("/{job_id}/assets/zip", app.JobZip)
	})

	r.Route("/v1/assets", func(r chi.Router) {
		r.Get("/{asset_id}", app.AssetGet)
		r.Get("/{asset_id}/download", app.AssetDownload)
	})

	r.Route("/v1/posts", func(r chi.Router) {
		r.Post("/", app.PostsCreate)
		r.Get("/", app.PostsList)
		r.Get("/{post_id}", app.PostGet)
		r.Post("/{post_id}/caption/cycle", app.PostCaptionCycle)
		r.Put("/{post_id}/caption", app.PostCaptionSelect)
		r.Get("/{post_id}/download", app.PostDownload)
	})

	r.Route("/v1/edits", func(r chi.Router) {
		r.Post("/", app.EditOpen)
		r.Put("/{session_id}/config", app.EditConfig)
		r.Post("/{session_id}/strokes", app.EditStroke)
		r.Post("/{session_id}/save", app.EditSave)
		r.Post("/{session_id}/cancel", app.EditCancel)
	})

	return r
}
