package history

import "time"

// Kind classifies a stored message.
type Kind string

// Message kinds as persisted in the message_type column.
const (
	// KindSetup marks a system-role instruction row written outside the
	// normal seeding flow. Never shown to the end user.
	KindSetup Kind = "system_human_setup"

	// KindHuman is a user-role message, including the retrieval-augmented
	// prompt wrapper built around the raw user input.
	KindHuman Kind = "human"

	// KindAI is an assistant reply.
	KindAI Kind = "ai"

	// KindHumanNoPrompt is the literal user input, stored before prompt
	// augmentation. It anchors the transcript projection: nothing before
	// the first such row in a session is shown to the user.
	KindHumanNoPrompt Kind = "human_no_prompt"
)

// Valid reports whether k is one of the persisted message kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSetup, KindHuman, KindAI, KindHumanNoPrompt:
		return true
	}
	return false
}

// Message is one immutable row of the conversation log.
type Message struct {
	ID        int64
	SessionID string
	UserID    string
	Kind      Kind
	Content   string
	CreatedAt time.Time
}

// Turn is the tagged input variant accepted by [Manager.Add]. It resolves
// the polymorphic "plain string vs typed message" input to a concrete
// message kind at the persistence boundary.
type Turn struct {
	Kind    Kind
	Content string
}

// UserText wraps raw user input, stored as human_no_prompt.
func UserText(content string) Turn {
	return Turn{Kind: KindHumanNoPrompt, Content: content}
}

// HumanTurn wraps a composed user-role message, stored as human.
func HumanTurn(content string) Turn {
	return Turn{Kind: KindHuman, Content: content}
}

// AITurn wraps an assistant reply, stored as ai.
func AITurn(content string) Turn {
	return Turn{Kind: KindAI, Content: content}
}

// SetupText wraps a system-role instruction, stored as system_human_setup.
func SetupText(content string) Turn {
	return Turn{Kind: KindSetup, Content: content}
}
