package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/amalgamconnect/docqa/logger"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// OptionType defines the type of option
type OptionType string

// Available option types
const (
	ModelNameOption  OptionType = "model"
	MaxTokensOption  OptionType = "max_tokens"
	APITimeoutOption OptionType = "api_timeout"
	StreamOption     OptionType = "stream"
	BaseURLOption    OptionType = "base_url"
)

// Option represents a generic configuration option for any LLM provider
type Option struct {
	Type  OptionType
	Value any
}

// WithModel creates an option to set the model name. An empty name keeps the
// provider default.
func WithModel(model string) Option {
	return Option{
		Type:  ModelNameOption,
		Value: model,
	}
}

// WithMaxTokens creates an option to set the max tokens
func WithMaxTokens(maxTokens int) Option {
	return Option{
		Type:  MaxTokensOption,
		Value: maxTokens,
	}
}

// WithAPITimeout creates an option to set the API timeout in seconds
func WithAPITimeout(timeout int) Option {
	return Option{
		Type:  APITimeoutOption,
		Value: timeout,
	}
}

// WithStreaming selects incremental delivery of the answer.
func WithStreaming(stream bool) Option {
	return Option{
		Type:  StreamOption,
		Value: stream,
	}
}

// WithBaseURL points the provider at a different API endpoint.
func WithBaseURL(baseURL string) Option {
	return Option{
		Type:  BaseURLOption,
		Value: baseURL,
	}
}

// modelConfig is the option set shared by all adapters.
type modelConfig struct {
	modelName  string
	maxTokens  int
	apiTimeout int // in seconds
	stream     bool
	baseURL    string
}

func newModelConfig(defaultModel string, opts []Option) modelConfig {
	// Default model
	cfg := modelConfig{
		modelName:  defaultModel,
		maxTokens:  4000,
		apiTimeout: 60,
	}

	for _, opt := range opts {
		switch opt.Type {
		case ModelNameOption:
			if modelName, ok := opt.Value.(string); ok && modelName != "" {
				cfg.modelName = modelName
			}
		case MaxTokensOption:
			if maxTokens, ok := opt.Value.(int); ok && maxTokens > 0 {
				cfg.maxTokens = maxTokens
			}
		case APITimeoutOption:
			if timeout, ok := opt.Value.(int); ok && timeout > 0 {
				cfg.apiTimeout = timeout
			}
		case StreamOption:
			if stream, ok := opt.Value.(bool); ok {
				cfg.stream = stream
			}
		case BaseURLOption:
			if baseURL, ok := opt.Value.(string); ok {
				cfg.baseURL = baseURL
			}
		}
	}

	return cfg
}

// Request represents the data needed to generate a prompt for the LLM
type Request struct {
	SystemPrompt string
	UserPrompt   string
}

// LLM defines the interface for language model prompting
type LLM interface {
	// Generate issues one request to the model. The returned stream yields a
	// single Complete chunk, or Fragment chunks when streaming is enabled.
	// The caller must Close it.
	Generate(ctx context.Context, req Request) (Stream, error)
}

// NewLLM creates the client for the named provider.
func NewLLM(providerName, apiKey string, opts ...Option) (LLM, error) {
	var llmClient LLM
	var err error

	switch providerName {
	case ProviderOpenAI:
		llmClient, err = NewOpenAI(apiKey, opts...)
	case ProviderAnthropic:
		llmClient, err = NewAnthropic(apiKey, opts...)
	case ProviderGemini:
		llmClient, err = NewGemini(apiKey, opts...)
	case ProviderOllama:
		llmClient, err = NewOllama(apiKey, opts...)
	default:
		err = fmt.Errorf("unsupported provider: %s", providerName)
	}

	if err == nil {
		logger.Debugf("Using LLM provider: %s", providerName)
	}

	return llmClient, err
}

// Collect drains the stream and returns the concatenated answer.
func Collect(stream Stream) (string, error) {
	defer stream.Close()

	var sb strings.Builder
	for stream.Next() {
		sb.WriteString(stream.Current().Text)
	}
	if err := stream.Err(); err != nil {
		return sb.String(), err
	}
	return sb.String(), nil
}
