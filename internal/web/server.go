// Package web serves the HTMX notes and flashcard pages, the JSON API and
// the operational endpoints.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/conorfennell/knolnotes/internal/codelike"
	"github.com/conorfennell/knolnotes/internal/flashcard"
	"github.com/conorfennell/knolnotes/internal/logging"
	"github.com/conorfennell/knolnotes/internal/metrics"
	"github.com/conorfennell/knolnotes/internal/notes"
	"github.com/conorfennell/knolnotes/internal/storage"
	"github.com/conorfennell/knolnotes/internal/sync"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Deps are the services the server is built on.
type Deps struct {
	DB      *storage.DB
	Notes   *notes.Service
	Syncer  *sync.Syncer
	Quizzes *flashcard.Registry
	Logger  *slog.Logger
	// CORSOrigins may call the JSON API from a browser. Empty disables CORS.
	CORSOrigins []string
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	db        *storage.DB
	notes     *notes.Service
	syncer    *sync.Syncer
	quizzes   *flashcard.Registry
	logger    *slog.Logger
	router    chi.Router
	templates *template.Template
	markdown  goldmark.Markdown
	cors      *cors.Cors
}

// NewServer creates and configures a new server.
func NewServer(d Deps) (*Server, error) {
	s := &Server{
		db:      d.DB,
		notes:   d.Notes,
		syncer:  d.Syncer,
		quizzes: d.Quizzes,
		logger:  d.Logger,
		router:  chi.NewRouter(),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
	if len(d.CORSOrigins) > 0 {
		s.cors = cors.New(cors.Options{
			AllowedOrigins: d.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		})
	}

	tpl, err := template.New("").Funcs(s.funcs()).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	s.templates = tpl

	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create sub-filesystem for static assets: %w", err)
	}

	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// HTMX pages
	r.Get("/", s.handleIndex)
	r.Post("/notes", s.handleCreateNote)
	r.Put("/notes/{id}", s.handleUpdateNote)
	r.Delete("/notes/{id}", s.handleDeleteNote)
	r.Post("/collections", s.handleCreateCollection)
	r.Get("/collections/{id}", s.handleGetCollection)
	r.Post("/collections/{id}/notes", s.handleAddToCollection)

	r.Route("/flashcards", func(r chi.Router) {
		r.Get("/", s.handleFlashcards)
		r.Post("/", s.handleStartQuiz)
		r.Route("/{quiz}", func(r chi.Router) {
			r.Get("/card", s.handleCard)
			r.Post("/input", s.handleInput)
			r.Post("/answer", s.handleAnswer)
			r.Post("/skip", s.handleSkip)
			r.Delete("/", s.handleEndQuiz)
		})
	})

	r.Route("/sources", func(r chi.Router) {
		r.Get("/", s.handleGetSources)
		r.Post("/", s.handlePostSource)
		r.Delete("/{id}", s.handleDeleteSource)
	})
	r.Post("/sync", s.handlePostSync)

	r.Route("/api/v1", func(r chi.Router) {
		if s.cors != nil {
			r.Use(s.cors.Handler)
		}
		r.Use(middleware.SetHeader("Cache-Control", "no-store"))
		s.apiRoutes(r)
	})
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.logger.ErrorContext(ctx, "health check failed", "error", err)
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok"))
}

func (s *Server) funcs() template.FuncMap {
	return template.FuncMap{
		"widget": func(text string) string { return string(codelike.WidgetFor(text)) },
		"markdown": func(text string) template.HTML {
			var buf bytes.Buffer
			if err := s.markdown.Convert([]byte(text), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(text))
			}
			// goldmark omits raw HTML unless WithUnsafe is set.
			return template.HTML(buf.String())
		},
		"inc": func(i int) int { return i + 1 },
	}
}

// render executes a named template into a buffer first so a failing
// template does not leave a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to render template", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// isHTMX reports whether the request came from an HTMX swap rather than a
// full page load.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
