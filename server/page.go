package server

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/amalgamconnect/docqa/logger"
	"github.com/amalgamconnect/docqa/qa"
	"github.com/amalgamconnect/docqa/sites"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

type pageData struct {
	Title           string
	Provider        string
	Question        string
	// Set after a submit that carried a document. The browser clears the
	// file input, so the question box is always rendered disabled and this
	// drives the re-upload hint instead.
	LastDocument    string
	Notice          string
	Error           string
	Answer          template.HTML

	Sites           []sites.Site
	CenterLatitude  float64
	CenterLongitude float64
	Zoom            int
	Location        *sites.Location
}

func (s *Server) newPageData(ctx context.Context, session qa.Session) pageData {
	var lastDocument string
	if session.QuestionEnabled() {
		lastDocument = session.Document.Filename
	}
	return pageData{
		Title:           s.settings.Title,
		Provider:        s.settings.LLM.Provider,
		Question:        session.Question,
		LastDocument:    lastDocument,
		Sites:           sites.DefaultSites(),
		CenterLatitude:  sites.CenterLatitude,
		CenterLongitude: sites.CenterLongitude,
		Zoom:            sites.DefaultZoom,
		Location:        s.lookupLocation(ctx),
	}
}

func (s *Server) lookupLocation(ctx context.Context) *sites.Location {
	if s.geocoder == nil || !s.settings.Geocoding.Enabled {
		return nil
	}
	loc, err := s.geocoder.Geocode(ctx, s.settings.Geocoding.Address)
	if err != nil {
		logger.Warnf("Geocoding %q failed: %v", s.settings.Geocoding.Address, err)
		return nil
	}
	return loc
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		logger.Errorf("Failed to render page: %v", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
