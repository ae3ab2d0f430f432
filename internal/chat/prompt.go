package chat

import "fmt"

// Prompt composes the retrieval-augmented prompt stored as the human turn
// and sent to the completion model.
func Prompt(contextBlock, question string) string {
	return fmt.Sprintf("Context and metadata:\n%s\n\nUser Query: %s", contextBlock, question)
}
