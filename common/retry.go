package common

import (
	"context"
	"net/http"
	"time"

	"github.com/amalgamconnect/docqa/logger"
	"github.com/hashicorp/go-retryablehttp"
)

// RetryConfig holds the configuration for outbound HTTP calls
type RetryConfig struct {
	// Maximum number of retries
	RetryMax int
	// Minimum time to wait between retries
	RetryWaitMin time.Duration
	// Maximum time to wait between retries
	RetryWaitMax time.Duration
	// Function to determine if a request should be retried
	CheckRetry retryablehttp.CheckRetry
	// Called when the client stops; nil keeps retryablehttp's "giving up" error
	ErrorHandler retryablehttp.ErrorHandler
	// Extra headers set on every request
	Headers map[string]string
}

// DefaultRetryConfig returns a RetryConfig with sensible defaults
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		RetryMax:     3,
		RetryWaitMin: 1 * time.Second,
		RetryWaitMax: 5 * time.Second,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
	}
}

// NoRetryConfig keeps the logging transport but sends every request once.
// Responses and transport errors are handed back untouched, so callers see
// the service's own error.
func NoRetryConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.RetryMax = 0
	cfg.CheckRetry = noRetryPolicy
	cfg.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return cfg
}

func noRetryPolicy(ctx context.Context, _ *http.Response, _ error) (bool, error) {
	return false, ctx.Err()
}

// NewRetryableClient creates a new HTTP client with retry capabilities
func NewRetryableClient(config RetryConfig) *retryablehttp.Client {
	retryClient := retryablehttp.NewClient()

	retryClient.RetryMax = config.RetryMax
	retryClient.RetryWaitMin = config.RetryWaitMin
	retryClient.RetryWaitMax = config.RetryWaitMax

	if config.CheckRetry != nil {
		retryClient.CheckRetry = config.CheckRetry
	}
	if config.ErrorHandler != nil {
		retryClient.ErrorHandler = config.ErrorHandler
	}

	if len(config.Headers) > 0 {
		headers := config.Headers
		retryClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, _ int) {
			for k, v := range headers {
				req.Header.Set(k, v)
			}
		}
	}

	retryClient.Logger = &zapRetryLogger{}

	logger.Debugf("Created retryable client with max retries: %d, min wait: %s, max wait: %s",
		config.RetryMax, config.RetryWaitMin, config.RetryWaitMax)

	return retryClient
}

// NewHTTPClient returns a standard *http.Client backed by a retryable transport,
// for SDKs that accept a plain client.
func NewHTTPClient(config RetryConfig) *http.Client {
	return NewRetryableClient(config).StandardClient()
}

// zapRetryLogger adapts our zap logger to the LeveledLogger interface of retryablehttp
type zapRetryLogger struct{}

func (z *zapRetryLogger) Error(msg string, keysAndValues ...interface{}) {
	logger.Sugar().Errorw(msg, keysAndValues...)
}

func (z *zapRetryLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Sugar().Infow(msg, keysAndValues...)
}

func (z *zapRetryLogger) Debug(msg string, keysAndValues ...interface{}) {
	logger.Sugar().Debugw(msg, keysAndValues...)
}

func (z *zapRetryLogger) Warn(msg string, keysAndValues ...interface{}) {
	logger.Sugar().Warnw(msg, keysAndValues...)
}
