package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/amalgamconnect/docqa/logger"
	"gopkg.in/yaml.v3"
)

// Provider names accepted in the settings file.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// APIKeyEnv is read when no credential is given on the command line.
const APIKeyEnv = "LLM_API_KEY"

var settingsFilenames = []string{"docqa.yml", "docqa.yaml"}

type LLM struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	MaxTokens    int    `yaml:"max_tokens"`
	APITimeout   int    `yaml:"api_timeout"` // seconds
	Stream       bool   `yaml:"stream"`
	BaseURL      string `yaml:"base_url"`
	SystemPrompt string `yaml:"system_prompt"`
	Language     string `yaml:"language"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Geocoding struct {
	Enabled   bool   `yaml:"enabled"`
	Address   string `yaml:"address"`
	UserAgent string `yaml:"user_agent"`
	BaseURL   string `yaml:"base_url"`
}

type Settings struct {
	Title     string    `yaml:"title"`
	LLM       LLM       `yaml:"llm"`
	Server    Server    `yaml:"server"`
	Geocoding Geocoding `yaml:"geocoding"`
}

func WithDefaultSettings() Settings {
	return Settings{
		Title: "Amalgam Connect: Bridging the Digital Divide",
		LLM: LLM{
			Provider:   ProviderOpenAI,
			MaxTokens:  4000,
			APITimeout: 60,
			Stream:     true,
		},
		Server: Server{
			Addr: ":8501",
		},
		Geocoding: Geocoding{
			Address:   "Your address here",
			UserAgent: "docqa",
			BaseURL:   "https://nominatim.openstreetmap.org",
		},
	}
}

// Load reads settings from path over the defaults. With an empty path the
// working directory is searched for docqa.yml / docqa.yaml; a missing file is
// not an error.
func Load(path string) (Settings, error) {
	settings := WithDefaultSettings()

	if path == "" {
		path = findSettingsFile(".")
	}
	if path == "" {
		logger.Info("No settings file found. Using default settings.")
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return settings, err
	}

	logger.Infof("Using settings from YAML file: %s", path)
	return settings, nil
}

func (s Settings) Validate() error {
	switch s.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("unsupported provider: %s", s.LLM.Provider)
	}
	if s.LLM.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", s.LLM.MaxTokens)
	}
	if s.LLM.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be positive, got %d", s.LLM.APITimeout)
	}
	return nil
}

func findSettingsFile(dir string) string {
	for _, name := range settingsFilenames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
