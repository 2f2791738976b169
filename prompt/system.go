package prompt

import "fmt"

// GetSystemPrompt returns the optional system message. It is empty unless
// instructions or a non-default answer language are configured, in which case
// the model receives only the document prompt.
func GetSystemPrompt(instructions, language string) string {
	basePrompt := instructions
	if language != "" && language != "en-US" {
		if basePrompt != "" {
			basePrompt += "\n"
		}
		basePrompt += fmt.Sprintf("- Answer in %s language.", language)
	}

	return basePrompt
}
