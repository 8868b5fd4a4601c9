package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/conorfennell/tango/internal/goal"
	"github.com/conorfennell/tango/internal/srs"
	"github.com/conorfennell/tango/internal/trainer"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Server holds the dependencies for the HTTP server.
type Server struct {
	trainer   *trainer.Trainer
	router    *http.ServeMux
	templates *template.Template
	log       *slog.Logger
}

// NewServer creates and configures a new server.
func NewServer(t *trainer.Trainer, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		trainer:   t,
		router:    http.NewServeMux(),
		templates: tpl,
		log:       logger,
	}
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
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.HandleFunc("GET /{$}", s.handleIndex())
	s.router.HandleFunc("GET /card", s.handleCard())
	s.router.HandleFunc("GET /healthz", s.handleHealth())

	// HTMX event routes, each re-renders the card fragment
	s.router.HandleFunc("POST /reveal", s.handleEvent(s.trainer.Reveal))
	s.router.HandleFunc("POST /advance", s.handleEvent(s.trainer.Advance))
	s.router.HandleFunc("POST /grade/{rating}", s.handleGrade())
	s.router.HandleFunc("POST /start/block/{n}", s.handleStartBlock())
	s.router.HandleFunc("POST /start/sequential", s.handleEvent(s.trainer.StartSequential))
	s.router.HandleFunc("POST /start/due", s.handleEvent(s.trainer.StartDueReview))
	s.router.HandleFunc("POST /goal", s.handleSetGoal())
	return nil
}

// handleIndex renders the full page.
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, "index", s.trainer.Render())
	}
}

// handleCard renders the card fragment.
func (s *Server) handleCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, "card", s.trainer.Render())
	}
}

// handleHealth reports whether the deck has finished loading.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !s.trainer.Loaded() {
			fmt.Fprintln(w, "loading")
			return
		}
		fmt.Fprintln(w, "ok")
	}
}

// handleEvent applies an event that takes no arguments.
func (s *Server) handleEvent(event func() trainer.View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, "card", event())
	}
}

// handleGrade grades the current card with the rating in the path.
func (s *Server) handleGrade() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rating srs.Rating
		if err := rating.UnmarshalText([]byte(r.PathValue("rating"))); err != nil {
			http.Error(w, "Invalid rating", http.StatusBadRequest)
			return
		}
		var v trainer.View
		if rating == srs.Good {
			v = s.trainer.GradeGood()
		} else {
			v = s.trainer.GradeAgain()
		}
		s.render(w, "card", v)
	}
}

// handleStartBlock starts studying the block in the path.
func (s *Server) handleStartBlock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(r.PathValue("n"))
		if err != nil || n < 1 {
			http.Error(w, "Invalid block number", http.StatusBadRequest)
			return
		}
		s.render(w, "card", s.trainer.StartBlock(n))
	}
}

// handleSetGoal changes the daily target from the "goal" form field.
func (s *Server) handleSetGoal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(r.PostFormValue("goal"))
		if err != nil {
			http.Error(w, "Invalid goal", http.StatusBadRequest)
			return
		}
		v, err := s.trainer.SetGoal(n)
		if errors.Is(err, goal.ErrInvalidGoal) {
			http.Error(w, "Invalid goal", http.StatusBadRequest)
			return
		}
		if err != nil {
			s.log.Warn("Failed to save daily goal", "error", err)
		}
		s.render(w, "card", v)
	}
}

func (s *Server) render(w http.ResponseWriter, name string, v trainer.View) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, v); err != nil {
		s.log.Error("Error rendering template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
