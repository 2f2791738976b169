// Package qa answers a question about an uploaded document with one call to
// a text-generation model.
package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/amalgamconnect/docqa/document"
	"github.com/amalgamconnect/docqa/llm"
	"github.com/amalgamconnect/docqa/logger"
	"github.com/amalgamconnect/docqa/prompt"
	"github.com/google/uuid"
)

// CredentialNotice is shown instead of calling the model when no key is set.
const CredentialNotice = "Please add your API key to continue."

// State is where a session ended up after Handle.
type State int

const (
	AwaitingCredential State = iota
	AwaitingDocument
	AwaitingQuestion
	Answered
)

func (s State) String() string {
	switch s {
	case AwaitingCredential:
		return "awaiting-credential"
	case AwaitingDocument:
		return "awaiting-document"
	case AwaitingQuestion:
		return "awaiting-question"
	case Answered:
		return "answered"
	default:
		return "unknown"
	}
}

// Session holds the inputs of one render pass. It is built by the caller,
// passed to Handle and discarded afterwards.
type Session struct {
	ID         string
	Credential string
	Document   *document.Document
	Question   string
}

// NewSession returns a session with a fresh ID.
func NewSession(credential string, doc *document.Document, question string) Session {
	return Session{
		ID:         uuid.NewString(),
		Credential: credential,
		Document:   doc,
		Question:   question,
	}
}

// QuestionEnabled reports whether the question input is usable.
func (s Session) QuestionEnabled() bool {
	return s.Document != nil
}

// Renderer displays the outcome of a session.
type Renderer interface {
	// Notice shows an informational message.
	Notice(msg string) error
	// Write appends answer text. It is called once per chunk in arrival order.
	Write(chunk llm.Chunk) error
}

// ModelFactory builds a model client for a credential.
type ModelFactory func(credential string) (llm.LLM, error)

// Handler runs the document question flow.
type Handler struct {
	newModel     ModelFactory
	systemPrompt string
}

func NewHandler(newModel ModelFactory) *Handler {
	return &Handler{newModel: newModel}
}

// WithSystemPrompt sets a system message sent along with every question.
func (h *Handler) WithSystemPrompt(systemPrompt string) *Handler {
	h.systemPrompt = systemPrompt
	return h
}

// Result is returned by Handle.
type Result struct {
	State  State
	Answer string
}

// Handle checks the session gates in order (credential, document, question)
// and, when all pass, issues exactly one model call and renders its output.
// Errors from the model or the renderer are returned unchanged in kind and
// are not retried.
func (h *Handler) Handle(ctx context.Context, s Session, r Renderer) (Result, error) {
	log := logger.With("session", s.ID)

	if s.Credential == "" {
		log.Debug("No credential supplied")
		if err := r.Notice(CredentialNotice); err != nil {
			return Result{State: AwaitingCredential}, err
		}
		return Result{State: AwaitingCredential}, nil
	}
	if !s.QuestionEnabled() {
		return Result{State: AwaitingDocument}, nil
	}
	if s.Question == "" {
		return Result{State: AwaitingQuestion}, nil
	}

	model, err := h.newModel(s.Credential)
	if err != nil {
		return Result{State: AwaitingQuestion}, fmt.Errorf("failed to create model client: %w", err)
	}

	req := llm.Request{
		SystemPrompt: h.systemPrompt,
		UserPrompt:   prompt.GetDocumentPrompt(s.Document.Text, s.Question),
	}

	log.Infof("Asking about %s (%d bytes)", s.Document.Filename, len(s.Document.Text))

	stream, err := model.Generate(ctx, req)
	if err != nil {
		return Result{State: AwaitingQuestion}, err
	}
	defer stream.Close()

	var answer strings.Builder
	chunks := 0
	for stream.Next() {
		chunk := stream.Current()
		answer.WriteString(chunk.Text)
		chunks++
		if err := r.Write(chunk); err != nil {
			return Result{State: Answered, Answer: answer.String()}, fmt.Errorf("failed to render answer: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return Result{State: Answered, Answer: answer.String()}, err
	}

	log.Infof("Answer rendered in %d chunk(s), %d bytes", chunks, answer.Len())

	return Result{State: Answered, Answer: answer.String()}, nil
}
