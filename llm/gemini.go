package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/amalgamconnect/docqa/common"
	"github.com/amalgamconnect/docqa/logger"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiModel implements the LLM interface using the Gemini Developer API
type GeminiModel struct {
	apiKey string
	cfg    modelConfig
}

// NewGemini creates a new Gemini model. The SDK client is built per call
// because construction takes a context.
func NewGemini(apiKey string, opts ...Option) (*GeminiModel, error) {
	if apiKey == "" {
		errMsg := "Gemini API key cannot be empty"
		logger.Error(errMsg)
		return nil, errors.New(errMsg)
	}

	// Apply options
	cfg := newModelConfig(defaultGeminiModel, opts)

	logger.Debugf("Gemini client initialized with model: %s, max tokens: %d, timeout: %d seconds, stream: %t",
		cfg.modelName, cfg.maxTokens, cfg.apiTimeout, cfg.stream)

	return &GeminiModel{
		apiKey: apiKey,
		cfg:    cfg,
	}, nil
}

func (g *GeminiModel) newClient(ctx context.Context) (*genai.Client, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:     g.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: common.NewHTTPClient(common.NoRetryConfig()),
	}
	if g.cfg.baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: g.cfg.baseURL}
	}
	return genai.NewClient(ctx, clientConfig)
}

// Generate sends a request to Gemini
func (g *GeminiModel) Generate(ctx context.Context, req Request) (Stream, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(g.cfg.apiTimeout)*time.Second)

	client, err := g.newClient(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.cfg.maxTokens),
	}
	if req.SystemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	contents := genai.Text(req.UserPrompt)

	logger.Infof("Sending request to Gemini with model %s, max tokens %d", g.cfg.modelName, g.cfg.maxTokens)

	if g.cfg.stream {
		next, stop := iter.Pull2(client.Models.GenerateContentStream(ctx, g.cfg.modelName, contents, genConfig))
		return &geminiStream{next: next, stop: stop, cancel: cancel}, nil
	}
	defer cancel()

	// Make the API call
	resp, err := client.Models.GenerateContent(ctx, g.cfg.modelName, contents, genConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	return NewCompleteStream(resp.Text()), nil
}

type geminiStream struct {
	next    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	cancel  context.CancelFunc
	current Chunk
	err     error
	done    bool
}

func (s *geminiStream) Next() bool {
	if s.done {
		return false
	}
	for {
		resp, err, ok := s.next()
		if !ok {
			s.finish(nil)
			return false
		}
		if err != nil {
			s.finish(fmt.Errorf("failed to receive content chunk: %w", err))
			return false
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		s.current = Chunk{Kind: Fragment, Text: text}
		return true
	}
}

func (s *geminiStream) finish(err error) {
	s.done = true
	s.err = err
	s.current = Chunk{}
}

func (s *geminiStream) Current() Chunk { return s.current }

func (s *geminiStream) Err() error { return s.err }

func (s *geminiStream) Close() error {
	s.done = true
	s.stop()
	s.cancel()
	return nil
}
