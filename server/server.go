package server

import (
	"net/http"

	"github.com/amalgamconnect/docqa/config"
	"github.com/amalgamconnect/docqa/qa"
	"github.com/amalgamconnect/docqa/sites"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxMemory is the part of a multipart upload kept in memory; the rest is
// spooled to disk. It is not an upload size limit.
const maxMemory = 32 << 20

// Server serves the question page and the streaming answer endpoint.
type Server struct {
	router   chi.Router
	handler  *qa.Handler
	geocoder sites.Geocoder
	settings config.Settings
}

// NewServer creates and configures the HTTP server. geocoder may be nil.
func NewServer(handler *qa.Handler, geocoder sites.Geocoder, settings config.Settings) *Server {
	s := &Server{
		handler:  handler,
		geocoder: geocoder,
		settings: settings,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)

	r.Get("/health", s.handleHealth)

	r.Get("/", s.handlePage)
	r.Post("/", s.handlePageSubmit)
	r.Post("/api/ask", s.handleAsk)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
