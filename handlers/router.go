package handlers

import (
	"json-storage/core"
	"json-storage/handlers/api/documents"
	"json-storage/handlers/api/status"
	"json-storage/handlers/middleware"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

type Options struct {
	StoragePath    string
	Version        string
	AllowedOrigins []string
	MaxBodyBytes   int64
	Logger         logrus.FieldLogger
}

// NewRouter wires the document routes and status endpoints around
// documentStore.
func NewRouter(documentStore core.DocumentStore, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"https://*", "http://*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-Requested-With", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	if opts.MaxBodyBytes > 0 {
		r.Use(chimiddleware.RequestSize(opts.MaxBodyBytes))
	}

	r.Get("/", status.HandleRoot(opts.StoragePath))
	r.Get("/health", status.HandleHealth(opts.Version))
	r.Get(status.DocsPath, status.HandleDocs(r))

	r.Post("/json", documents.HandleCreate(documentStore))
	r.Get("/json/{id}", documents.HandleGet(documentStore))
	r.Put("/json/{id}", documents.HandleUpdate(documentStore))
	r.Delete("/json/{id}", documents.HandleDelete(documentStore))

	return r
}
