package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/amalgamconnect/docqa/config"
	"github.com/amalgamconnect/docqa/document"
	"github.com/amalgamconnect/docqa/llm"
	"github.com/amalgamconnect/docqa/logger"
	"github.com/amalgamconnect/docqa/prompt"
	"github.com/amalgamconnect/docqa/qa"
	"github.com/spf13/cobra"
)

// newHandler is swapped in tests to avoid real provider clients.
var newHandler = func(settings config.Settings) *qa.Handler {
	return qa.NewHandler(newModelFactory(settings.LLM)).
		WithSystemPrompt(prompt.GetSystemPrompt(settings.LLM.SystemPrompt, settings.LLM.Language))
}

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question about a document",
	Long: `Send a document and a question to the configured text-generation service
and print the answer as it arrives.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		apiKey, _ := cmd.Flags().GetString("api-key")
		if apiKey == "" {
			apiKey = os.Getenv(config.APIKeyEnv)
		}
		filePath, _ := cmd.Flags().GetString("file")
		question, _ := cmd.Flags().GetString("question")

		var doc *document.Document
		if filePath != "" {
			doc, err = readDocument(filePath)
			if err != nil {
				return err
			}
		}

		session := qa.NewSession(apiKey, doc, question)
		logger.Debugf("Session %s using provider %s", session.ID, settings.LLM.Provider)

		out := cmd.OutOrStdout()
		result, err := newHandler(settings).Handle(cmd.Context(), session, &writerRenderer{out: out})
		if result.State == qa.Answered {
			fmt.Fprintln(out)
		}
		if err != nil {
			return err
		}

		switch result.State {
		case qa.AwaitingDocument:
			fmt.Fprintln(out, "Upload a document with --file (.txt or .md) to ask a question.")
		case qa.AwaitingQuestion:
			fmt.Fprintln(out, "Now ask a question about the document with --question.")
		}
		return nil
	},
}

func readDocument(path string) (*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return document.Read(f, path)
}

// writerRenderer prints chunks as they arrive.
type writerRenderer struct {
	out io.Writer
}

func (w *writerRenderer) Notice(msg string) error {
	_, err := fmt.Fprintf(w.out, "🗝️ %s\n", msg)
	return err
}

func (w *writerRenderer) Write(chunk llm.Chunk) error {
	_, err := io.WriteString(w.out, chunk.Text)
	return err
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringP("api-key", "k", "", "API key for the provider (defaults to $"+config.APIKeyEnv+")")
	askCmd.Flags().StringP("file", "f", "", "Document to ask about (.txt or .md)")
	askCmd.Flags().StringP("question", "q", "", "Question about the document")
	addLLMFlags(askCmd)
}
