package llm

import (
	"testing"

	"google.golang.org/genai"

	"github.com/munch-labs/munch/internal/history"
)

func TestContentsRoleMapping(t *testing.T) {
	msgs := []history.Message{
		{Kind: history.KindSetup, Content: "system instructions"},
		{Kind: history.KindHuman, Content: "setup text"},
		{Kind: history.KindAI, Content: "greeting"},
		{Kind: history.KindHumanNoPrompt, Content: "raw question"},
		{Kind: history.KindHuman, Content: "augmented question"},
		{Kind: history.KindAI, Content: "answer"},
	}

	contents := Contents(msgs)

	// The raw human_no_prompt row is skipped; its augmented twin carries
	// the question.
	if len(contents) != 5 {
		t.Fatalf("Contents() returned %d entries, want 5", len(contents))
	}

	wantRoles := []genai.Role{
		genai.RoleUser, genai.RoleUser, genai.RoleModel, genai.RoleUser, genai.RoleModel,
	}
	for i, want := range wantRoles {
		if genai.Role(contents[i].Role) != want {
			t.Errorf("content %d role = %q, want %q", i, contents[i].Role, want)
		}
	}

	if got := contents[3].Parts[0].Text; got != "augmented question" {
		t.Errorf("content 3 text = %q, want the augmented prompt", got)
	}
}

func TestContentsEmpty(t *testing.T) {
	if got := Contents(nil); len(got) != 0 {
		t.Errorf("Contents(nil) = %d entries, want 0", len(got))
	}

	onlyRaw := []history.Message{{Kind: history.KindHumanNoPrompt, Content: "q"}}
	if got := Contents(onlyRaw); len(got) != 0 {
		t.Errorf("Contents(raw only) = %d entries, want 0", len(got))
	}
}
