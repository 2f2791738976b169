package server

import (
	"net/http"
	"strings"

	"github.com/amalgamconnect/docqa/llm"
	"github.com/amalgamconnect/docqa/qa"
)

// pageRenderer buffers the answer so it can be rendered as markdown once
// complete.
type pageRenderer struct {
	notice string
	answer strings.Builder
}

func (p *pageRenderer) Notice(msg string) error {
	p.notice = msg
	return nil
}

func (p *pageRenderer) Write(chunk llm.Chunk) error {
	p.answer.WriteString(chunk.Text)
	return nil
}

// streamRenderer writes each chunk to the response as soon as it arrives.
type streamRenderer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	notice  string
	started bool
}

func newStreamRenderer(w http.ResponseWriter) *streamRenderer {
	flusher, _ := w.(http.Flusher)
	return &streamRenderer{w: w, flusher: flusher}
}

func (s *streamRenderer) Notice(msg string) error {
	s.notice = msg
	return nil
}

func (s *streamRenderer) Write(chunk llm.Chunk) error {
	if !s.started {
		s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		s.w.Header().Set("X-Content-Type-Options", "nosniff")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set(stateHeader, qa.Answered.String())
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	if _, err := s.w.Write([]byte(chunk.Text)); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
