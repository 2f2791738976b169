package prompt

// GetDocumentPrompt combines an uploaded document and a question into the
// single user message sent to the model. Whitespace is part of the format.
func GetDocumentPrompt(document, question string) string {
	return "Here's a document: " + document + " \n\n---\n\n " + question
}
