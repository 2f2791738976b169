package llm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/amalgamconnect/docqa/common"
	"github.com/amalgamconnect/docqa/logger"
	"github.com/ollama/ollama/api"
)

const (
	defaultOllamaModel   = "llama3.2"
	defaultOllamaBaseURL = "http://localhost:11434"
)

// OllamaModel implements the LLM interface against an Ollama server. The
// credential is sent as a bearer token for servers behind an auth proxy.
type OllamaModel struct {
	client *api.Client
	cfg    modelConfig
}

// NewOllama creates a new Ollama client
func NewOllama(apiKey string, opts ...Option) (*OllamaModel, error) {
	// Apply options
	cfg := newModelConfig(defaultOllamaModel, opts)

	baseURL := cfg.baseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL %q: %w", baseURL, err)
	}

	retryConfig := common.NoRetryConfig()
	if apiKey != "" {
		retryConfig.Headers = map[string]string{"Authorization": "Bearer " + apiKey}
	}

	logger.Debugf("Ollama client initialized with model: %s at %s, stream: %t", cfg.modelName, base, cfg.stream)

	return &OllamaModel{
		client: api.NewClient(base, common.NewHTTPClient(retryConfig)),
		cfg:    cfg,
	}, nil
}

// Generate sends a chat request to Ollama
func (o *OllamaModel) Generate(ctx context.Context, req Request) (Stream, error) {
	var messages []api.Message
	if req.SystemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.SystemPrompt})
	}
	// Add user prompt
	messages = append(messages, api.Message{Role: "user", Content: req.UserPrompt})

	stream := o.cfg.stream
	chatReq := &api.ChatRequest{
		Model:    o.cfg.modelName,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"num_predict": o.cfg.maxTokens,
		},
	}

	logger.Infof("Sending request to Ollama with model %s", o.cfg.modelName)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.apiTimeout)*time.Second)

	if o.cfg.stream {
		return newOllamaStream(ctx, cancel, o.client, chatReq), nil
	}
	defer cancel()

	var content string
	err := o.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to chat with Ollama: %w", err)
	}

	return NewCompleteStream(content), nil
}

// ollamaStream turns the callback-based Chat API into a pull stream. One
// goroutine runs the call and hands fragments over an unbuffered channel, so
// nothing is read ahead of the consumer.
type ollamaStream struct {
	fragments chan string
	result    chan error
	cancel    context.CancelFunc
	current   Chunk
	err       error
	done      bool
}

var errStreamClosed = errors.New("stream closed")

func newOllamaStream(ctx context.Context, cancel context.CancelFunc, client *api.Client, req *api.ChatRequest) *ollamaStream {
	s := &ollamaStream{
		fragments: make(chan string),
		result:    make(chan error, 1),
		cancel:    cancel,
	}

	go func() {
		defer close(s.fragments)
		s.result <- client.Chat(ctx, req, func(resp api.ChatResponse) error {
			if resp.Message.Content == "" {
				return nil
			}
			select {
			case s.fragments <- resp.Message.Content:
				return nil
			case <-ctx.Done():
				return errStreamClosed
			}
		})
	}()

	return s
}

func (s *ollamaStream) Next() bool {
	if s.done {
		return false
	}
	text, ok := <-s.fragments
	if !ok {
		s.done = true
		s.current = Chunk{}
		if err := <-s.result; err != nil {
			s.err = fmt.Errorf("failed to chat with Ollama: %w", err)
		}
		return false
	}
	s.current = Chunk{Kind: Fragment, Text: text}
	return true
}

func (s *ollamaStream) Current() Chunk { return s.current }

func (s *ollamaStream) Err() error { return s.err }

func (s *ollamaStream) Close() error {
	s.done = true
	s.cancel()
	// Drain so the producer goroutine can exit.
	for range s.fragments {
	}
	return nil
}
