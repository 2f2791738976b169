package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/amalgamconnect/docqa/document"
	"github.com/amalgamconnect/docqa/logger"
	"github.com/amalgamconnect/docqa/qa"
	"github.com/go-chi/chi/v5/middleware"
)

// Form field names shared by the page and the API.
const (
	fieldAPIKey   = "api_key"
	fieldFile     = "file"
	fieldQuestion = "question"
)

// stateHeader reports the handler state on API responses.
const stateHeader = "X-Docqa-State"

// errBadUpload marks request problems the caller can fix.
var errBadUpload = errors.New("bad upload")

// sessionFromRequest builds the request-scoped session from a multipart form.
// A missing file is not an error; it leaves the question disabled.
func sessionFromRequest(r *http.Request) (qa.Session, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return qa.Session{}, fmt.Errorf("%w: invalid multipart form: %v", errBadUpload, err)
	}

	var doc *document.Document
	file, header, err := r.FormFile(fieldFile)
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return qa.Session{}, fmt.Errorf("%w: %v", errBadUpload, err)
	default:
		defer file.Close()
		doc, err = document.Read(file, header.Filename)
		if errors.Is(err, document.ErrUnsupportedType) {
			return qa.Session{}, fmt.Errorf("%w: %v", errBadUpload, err)
		}
		if err != nil {
			return qa.Session{}, err
		}
	}

	session := qa.NewSession(r.FormValue(fieldAPIKey), doc, r.FormValue(fieldQuestion))
	if id := middleware.GetReqID(r.Context()); id != "" {
		session.ID = id
	}
	return session, nil
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		r.MultipartForm.RemoveAll()
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, s.newPageData(r.Context(), qa.Session{}))
}

func (s *Server) handlePageSubmit(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)

	session, err := sessionFromRequest(r)
	if err != nil {
		data := s.newPageData(r.Context(), session)
		data.Error = err.Error()
		status := http.StatusInternalServerError
		if errors.Is(err, errBadUpload) {
			status = http.StatusBadRequest
		} else {
			logger.Errorf("Failed to read upload: %v", err)
		}
		s.renderPage(w, r, status, data)
		return
	}

	renderer := &pageRenderer{}
	result, err := s.handler.Handle(r.Context(), session, renderer)

	data := s.newPageData(r.Context(), session)
	data.Notice = renderer.notice
	if err != nil {
		logger.With("session", session.ID).Errorf("Answering failed: %v", err)
		data.Error = err.Error()
		s.renderPage(w, r, http.StatusBadGateway, data)
		return
	}

	if result.State == qa.Answered {
		answer, err := renderMarkdown(result.Answer)
		if err != nil {
			logger.Errorf("Failed to render markdown: %v", err)
			data.Error = err.Error()
			s.renderPage(w, r, http.StatusInternalServerError, data)
			return
		}
		data.Answer = answer
	}
	s.renderPage(w, r, http.StatusOK, data)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)

	session, err := sessionFromRequest(r)
	if err != nil {
		if errors.Is(err, errBadUpload) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Errorf("Failed to read upload: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	renderer := newStreamRenderer(w)
	result, err := s.handler.Handle(r.Context(), session, renderer)
	if err != nil {
		logger.With("session", session.ID).Errorf("Answering failed: %v", err)
		if !renderer.started {
			w.Header().Set(stateHeader, result.State.String())
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		// Part of the answer is already on the wire; drop the connection so
		// the client sees a failure instead of a short answer.
		panic(http.ErrAbortHandler)
	}

	if renderer.started {
		return
	}

	w.Header().Set(stateHeader, result.State.String())
	switch result.State {
	case qa.AwaitingCredential:
		http.Error(w, renderer.notice, http.StatusUnauthorized)
	case qa.AwaitingDocument:
		http.Error(w, "upload a document before asking a question", http.StatusUnprocessableEntity)
	case qa.AwaitingQuestion:
		http.Error(w, "ask a question about the document", http.StatusUnprocessableEntity)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}
