package cmd

import (
	"github.com/amalgamconnect/docqa/config"
	"github.com/amalgamconnect/docqa/logger"
	"github.com/spf13/cobra"
)

var (
	// Command line flags
	logLevel     string
	settingsPath string
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Amalgam Connect - ask questions about a document using AI",
	Long: `docqa answers questions about an uploaded text or markdown document
using a hosted text-generation service (OpenAI, Anthropic, Gemini or Ollama).
It can serve an interactive page or answer a single question from the command line.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logLevel)
		logger.Debugf("Log level set to: %s", logLevel)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command and handles errors
func Execute() error {
	defer logger.Sync()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Set the logging level (debug, info, warn, error, dpanic, panic, fatal)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "config", "",
		"Path to a settings file (defaults to docqa.yml or docqa.yaml in the working directory)")
}

// loadSettings reads the settings file and applies the LLM flags that were
// set explicitly on cmd.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	settings, err := config.Load(settingsPath)
	if err != nil {
		return settings, err
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		settings.LLM.Provider, _ = flags.GetString("provider")
	}
	if flags.Changed("model") {
		settings.LLM.Model, _ = flags.GetString("model")
	}
	if flags.Changed("stream") {
		settings.LLM.Stream, _ = flags.GetBool("stream")
	}

	return settings, settings.Validate()
}

// addLLMFlags registers the flags read by loadSettings.
func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("provider", "p", config.ProviderOpenAI, "LLM provider (openai, anthropic, gemini, ollama)")
	cmd.Flags().StringP("model", "m", "", "LLM model identifier (defaults to the provider's model)")
	cmd.Flags().Bool("stream", true, "Stream the answer as it is generated")
}
