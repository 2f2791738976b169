package llm

import (
	"errors"
	"testing"
)

func TestNewLLM_UnsupportedProvider(t *testing.T) {
	_, err := NewLLM("watson", "key")
	if err == nil {
		t.Fatal("Expected error for unsupported provider")
	}
}

func TestNewLLM_EmptyKeyRejectedByHostedProviders(t *testing.T) {
	for _, provider := range []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini} {
		if _, err := NewLLM(provider, ""); err == nil {
			t.Errorf("%s: expected error for empty API key", provider)
		}
	}
}

func TestNewLLM_KnownProviders(t *testing.T) {
	for _, provider := range []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama} {
		client, err := NewLLM(provider, "key", WithModel("m"))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", provider, err)
			continue
		}
		if client == nil {
			t.Errorf("%s: expected a client", provider)
		}
	}
}

func TestNewModelConfig(t *testing.T) {
	cfg := newModelConfig("default-model", nil)
	if cfg.modelName != "default-model" || cfg.maxTokens != 4000 || cfg.apiTimeout != 60 || cfg.stream {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}

	cfg = newModelConfig("default-model", []Option{
		WithModel("custom"),
		WithMaxTokens(10),
		WithAPITimeout(5),
		WithStreaming(true),
		WithBaseURL("http://example.test"),
	})
	if cfg.modelName != "custom" || cfg.maxTokens != 10 || cfg.apiTimeout != 5 || !cfg.stream || cfg.baseURL != "http://example.test" {
		t.Errorf("Options not applied: %+v", cfg)
	}

	cfg = newModelConfig("default-model", []Option{WithModel(""), WithMaxTokens(-1), {Type: MaxTokensOption, Value: "ten"}})
	if cfg.modelName != "default-model" || cfg.maxTokens != 4000 {
		t.Errorf("Invalid options should keep defaults: %+v", cfg)
	}
}

func TestCompleteStream(t *testing.T) {
	stream := NewCompleteStream("Blue.")

	if !stream.Next() {
		t.Fatal("Expected one chunk")
	}
	chunk := stream.Current()
	if chunk.Kind != Complete || chunk.Text != "Blue." {
		t.Errorf("Unexpected chunk: %+v", chunk)
	}
	if stream.Next() {
		t.Error("Expected stream to end after one chunk")
	}
	// Non-restartable.
	if stream.Next() {
		t.Error("Expected exhausted stream to stay exhausted")
	}
	if stream.Err() != nil {
		t.Errorf("Unexpected error: %v", stream.Err())
	}
}

func TestFragmentStream(t *testing.T) {
	stream := NewFragmentStream("Bl", "ue", ".")

	var got []string
	for stream.Next() {
		chunk := stream.Current()
		if chunk.Kind != Fragment {
			t.Errorf("Expected fragment, got %s", chunk.Kind)
		}
		got = append(got, chunk.Text)
	}
	if len(got) != 3 || got[0] != "Bl" || got[1] != "ue" || got[2] != "." {
		t.Errorf("Unexpected fragments: %v", got)
	}
	if stream.Next() {
		t.Error("Expected exhausted stream to stay exhausted")
	}
}

func TestCollect(t *testing.T) {
	answer, err := Collect(NewFragmentStream("Bl", "ue", "."))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if answer != "Blue." {
		t.Errorf("Expected %q, got %q", "Blue.", answer)
	}
}

type brokenStream struct {
	fragmentStream
	closed bool
}

func (b *brokenStream) Err() error { return errors.New("connection reset") }

func (b *brokenStream) Close() error {
	b.closed = true
	return nil
}

func TestCollect_ReturnsPartialAnswerAndError(t *testing.T) {
	stream := &brokenStream{fragmentStream: fragmentStream{fragments: []string{"Bl"}, pos: -1}}

	answer, err := Collect(stream)
	if err == nil {
		t.Fatal("Expected stream error to propagate")
	}
	if answer != "Bl" {
		t.Errorf("Expected partial answer %q, got %q", "Bl", answer)
	}
	if !stream.closed {
		t.Error("Expected Collect to close the stream")
	}
}
