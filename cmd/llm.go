package cmd

import (
	"github.com/amalgamconnect/docqa/config"
	"github.com/amalgamconnect/docqa/llm"
	"github.com/amalgamconnect/docqa/qa"
)

// newModelFactory builds model clients for the configured provider. The
// credential comes from each session, so nothing is created up front.
func newModelFactory(cfg config.LLM) qa.ModelFactory {
	return func(credential string) (llm.LLM, error) {
		return llm.NewLLM(cfg.Provider, credential,
			llm.WithModel(cfg.Model),
			llm.WithMaxTokens(cfg.MaxTokens),
			llm.WithAPITimeout(cfg.APITimeout),
			llm.WithStreaming(cfg.Stream),
			llm.WithBaseURL(cfg.BaseURL),
		)
	}
}
