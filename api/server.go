/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/dataset          Whole dataset
  /api/consultants/*    Consultant management and editor
  /api/projects/*       Project management and editor
  /api/summary|grid|export|years|periods   Reporting
  /api/scenarios/*      Seed rosters
  /api/remote/*         Relational mirror
  /*                    Static files (dashboard)

STATIC FILE SERVING:
  When a static directory is configured (ALLOC_STATIC_DIR) its files are
  served, falling back to index.html for client-side routing. Otherwise a
  placeholder page lists the API entry points.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// CORSOrigins lists allowed origins; empty allows any origin.
	CORSOrigins []string

	// StaticDir is a built dashboard to serve at /. Empty serves a
	// placeholder page.
	StaticDir string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	corsOrigins := opts.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/dataset", h.GetDataset)

		// Consultant routes
		r.Route("/consultants", func(r chi.Router) {
			r.Get("/", h.ListConsultants)
			r.Post("/", h.CreateConsultant)
			r.Delete("/{name}", h.DeleteConsultant)
			r.Get("/{name}/projects", h.GetConsultantProjects)
			r.Get("/{name}/timeline", h.GetConsultantTimeline)
			r.Put("/{name}/allocations", h.UpdateConsultantAllocations)
		})

		// Project routes
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/{name}", h.GetProject)
			r.Put("/{name}", h.UpdateProject)
			r.Delete("/{name}", h.DeleteProject)
		})

		// Reporting routes
		r.Get("/summary", h.GetSummary)
		r.Get("/grid", h.GetGrid)
		r.Get("/export", h.ExportCSV)
		r.Get("/years", h.ListYears)
		r.Get("/periods", h.ListPeriods)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDataset)
		})

		// Remote store routes
		r.Route("/remote", func(r chi.Router) {
			r.Post("/sync", h.SyncRemote)
			r.Get("/consultants", h.ListRemoteConsultants)
			r.Get("/projects", h.ListRemoteProjects)
			r.Get("/allocations", h.QueryRemoteAllocations)
		})
	})

	// Serve static files (dashboard)
	if opts.StaticDir != "" {
		r.Get("/*", staticHandler(opts.StaticDir))
	} else {
		r.Get("/*", placeholderPage)
	}

	return r
}

// staticHandler serves dir, answering unknown paths with index.html.
func staticHandler(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		fullPath := filepath.Join(dir, filepath.Clean("/"+strings.TrimPrefix(r.URL.Path, "/")))
		if _, err := os.Stat(fullPath); os.IsNotExist(err) {
			// SPA routing: serve index.html
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fileServer.ServeHTTP(w, r)
	}
}

func placeholderPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Allocation Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Allocation Engine API</h1>
<p>No dashboard is configured. The API is available:</p>
<ul>
<li><a href="/api/consultants">/api/consultants</a> - Consultants</li>
<li><a href="/api/projects">/api/projects</a> - Projects</li>
<li><a href="/api/years">/api/years</a> - Years with periods</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Seed rosters</li>
</ul>
</body>
</html>`))
}
