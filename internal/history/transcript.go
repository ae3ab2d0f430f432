package history

// Entry is one user-visible turn of a projected transcript.
type Entry struct {
	Kind    Kind   `json:"message_type"`
	Content string `json:"content"`
}

// BuildTranscript derives the display transcript from raw stored messages.
//
// Messages are scanned in order. A human_no_prompt row is always emitted and
// marks the start of the real conversation; ai rows are emitted only after
// the first human_no_prompt. Everything else - the seeded setup rows, the
// augmented human prompts, and any ai row preceding the first real user turn
// - is dropped.
//
// The projection is pure: it never mutates its input and two calls over the
// same rows yield identical output.
func BuildTranscript(msgs []Message) []Entry {
	entries := make([]Entry, 0, len(msgs))
	seenUserTurn := false

	for _, msg := range msgs {
		switch {
		case msg.Kind == KindHumanNoPrompt:
			seenUserTurn = true
			entries = append(entries, Entry{Kind: msg.Kind, Content: msg.Content})
		case msg.Kind == KindAI && seenUserTurn:
			entries = append(entries, Entry{Kind: msg.Kind, Content: msg.Content})
		}
	}
	return entries
}
