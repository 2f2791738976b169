package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/amalgamconnect/docqa/common"
	"github.com/amalgamconnect/docqa/logger"
	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIModel implements the LLM interface using OpenAI's API
type OpenAIModel struct {
	client *openai.Client
	cfg    modelConfig
}

// NewOpenAI creates a new OpenAI client
func NewOpenAI(apiKey string, opts ...Option) (*OpenAIModel, error) {
	if apiKey == "" {
		errMsg := "OpenAI API key cannot be empty"
		logger.Error(errMsg)
		return nil, errors.New(errMsg)
	}

	// Apply options
	cfg := newModelConfig(defaultOpenAIModel, opts)

	config := openai.DefaultConfig(apiKey)
	// Use the logging client for OpenAI; errors are returned as the API reports them
	config.HTTPClient = common.NewHTTPClient(common.NoRetryConfig())
	if cfg.baseURL != "" {
		config.BaseURL = cfg.baseURL
	}

	logger.Debugf("OpenAI client initialized with model: %s, max tokens: %d, timeout: %d seconds, stream: %t",
		cfg.modelName, cfg.maxTokens, cfg.apiTimeout, cfg.stream)

	return &OpenAIModel{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
	}, nil
}

// Generate sends a request to OpenAI
func (o *OpenAIModel) Generate(ctx context.Context, req Request) (Stream, error) {
	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	// Add user prompt
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	// Create the completion request
	chatReq := openai.ChatCompletionRequest{
		Model:     o.cfg.modelName,
		Messages:  messages,
		MaxTokens: o.cfg.maxTokens,
		Stream:    o.cfg.stream,
	}

	logger.Infof("Sending request to OpenAI with model %s, max tokens %d", o.cfg.modelName, o.cfg.maxTokens)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.apiTimeout)*time.Second)

	if o.cfg.stream {
		stream, err := o.client.CreateChatCompletionStream(ctx, chatReq)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create chat completion stream: %w", err)
		}
		return &openAIStream{stream: stream, cancel: cancel}, nil
	}
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("OpenAI response contained no choices")
	}

	return NewCompleteStream(resp.Choices[0].Message.Content), nil
}

type openAIStream struct {
	stream  *openai.ChatCompletionStream
	cancel  context.CancelFunc
	current Chunk
	err     error
	done    bool
}

func (s *openAIStream) Next() bool {
	if s.done {
		return false
	}
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			s.finish(nil)
			return false
		}
		if err != nil {
			s.finish(fmt.Errorf("failed to receive chat completion chunk: %w", err))
			return false
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		s.current = Chunk{Kind: Fragment, Text: resp.Choices[0].Delta.Content}
		return true
	}
}

func (s *openAIStream) finish(err error) {
	s.done = true
	s.err = err
	s.current = Chunk{}
}

func (s *openAIStream) Current() Chunk { return s.current }

func (s *openAIStream) Err() error { return s.err }

func (s *openAIStream) Close() error {
	s.done = true
	defer s.cancel()
	return s.stream.Close()
}
