package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amalgamconnect/docqa/logger"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

const defaultAnthropicModel = "claude-3-7-sonnet-latest"

// AnthropicModel implements the LLM interface using Anthropic's API
type AnthropicModel struct {
	client anthropic.Client
	cfg    modelConfig
}

// NewAnthropic creates a new Anthropic client
func NewAnthropic(apiKey string, opts ...Option) (*AnthropicModel, error) {
	if apiKey == "" {
		errMsg := "Anthropic API key cannot be empty"
		logger.Error(errMsg)
		return nil, errors.New(errMsg)
	}

	// Apply options
	cfg := newModelConfig(defaultAnthropicModel, opts)

	// Failures go straight back to the caller
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}

	logger.Debugf("Anthropic client initialized with model: %s, max tokens: %d, timeout: %d seconds, stream: %t",
		cfg.modelName, cfg.maxTokens, cfg.apiTimeout, cfg.stream)

	return &AnthropicModel{
		client: anthropic.NewClient(clientOpts...),
		cfg:    cfg,
	}, nil
}

// Generate sends a request to Anthropic
func (a *AnthropicModel) Generate(ctx context.Context, req Request) (Stream, error) {
	// Create the message request
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.cfg.modelName),
		MaxTokens: int64(a.cfg.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}

	logger.Infof("Sending request to Anthropic with model %s, max tokens %d", a.cfg.modelName, a.cfg.maxTokens)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(a.cfg.apiTimeout)*time.Second)

	if a.cfg.stream {
		stream := a.client.Messages.NewStreaming(ctx, params)
		return &anthropicStream{stream: stream, cancel: cancel}, nil
	}
	defer cancel()

	// Make the API call
	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	// Extract text content from the response
	var content string
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			content += b.Text
		}
	}

	return NewCompleteStream(content), nil
}

type anthropicStream struct {
	stream  *ssestream.Stream[anthropic.MessageStreamEventUnion]
	cancel  context.CancelFunc
	current Chunk
	err     error
	done    bool
}

func (s *anthropicStream) Next() bool {
	if s.done {
		return false
	}
	for s.stream.Next() {
		event := s.stream.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if delta.Text == "" {
					continue
				}
				s.current = Chunk{Kind: Fragment, Text: delta.Text}
				return true
			}
		}
	}

	s.done = true
	s.current = Chunk{}
	if err := s.stream.Err(); err != nil {
		s.err = fmt.Errorf("failed to read message stream: %w", err)
	}
	return false
}

func (s *anthropicStream) Current() Chunk { return s.current }

func (s *anthropicStream) Err() error { return s.err }

func (s *anthropicStream) Close() error {
	s.done = true
	defer s.cancel()
	return s.stream.Close()
}
