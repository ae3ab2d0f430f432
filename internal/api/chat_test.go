package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/munch-labs/munch/internal/history"
	"github.com/munch-labs/munch/internal/log"
)

// fakeChat is a scriptable ChatService.
type fakeChat struct {
	reply      string
	sendErr    error
	entries    []history.Entry
	sessions   []string
	clearErr   error
	lastUser   string
	lastSess   string
	lastInput  string
	clearCalls int
}

func (f *fakeChat) Send(_ context.Context, userID, sessionID, userMessage string) (string, error) {
	f.lastUser, f.lastSess, f.lastInput = userID, sessionID, userMessage
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return f.reply, nil
}

func (f *fakeChat) Transcript(_ context.Context, userID, sessionID string) ([]history.Entry, error) {
	f.lastUser, f.lastSess = userID, sessionID
	return f.entries, nil
}

func (f *fakeChat) Sessions(_ context.Context, userID string) ([]string, error) {
	f.lastUser = userID
	return f.sessions, nil
}

func (f *fakeChat) Clear(_ context.Context, userID, sessionID string) error {
	f.lastUser, f.lastSess = userID, sessionID
	f.clearCalls++
	return f.clearErr
}

func newTestServer(t *testing.T, chat ChatService) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Logger:    log.NewNop(),
		Chat:      chat,
		RateBurst: 1000,
	})
	if err != nil {
		t.Fatalf("NewServer() = %v", err)
	}
	return srv
}

func postJSON(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestMessageEndpoint(t *testing.T) {
	chat := &fakeChat{reply: "Try La Taqueria."}
	srv := newTestServer(t, chat)

	rec := postJSON(t, srv, "/message", map[string]string{
		"user_id":      "u1",
		"session_id":   "s1",
		"user_message": "tacos?",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Input != "Try La Taqueria." || resp.Sender != "system" {
		t.Errorf("response = %+v", resp)
	}
	if chat.lastUser != "u1" || chat.lastSess != "s1" || chat.lastInput != "tacos?" {
		t.Errorf("service called with (%q, %q, %q)", chat.lastUser, chat.lastSess, chat.lastInput)
	}
}

func TestMessageEndpointRequestField(t *testing.T) {
	srv := newTestServer(t, &fakeChat{reply: "unused"})

	// The request carries user_message; input is only the response field and
	// must not be accepted in its place.
	rec := postJSON(t, srv, "/message", map[string]string{
		"user_id": "u1", "session_id": "s1", "input": "tacos?",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMessageEndpointValidation(t *testing.T) {
	srv := newTestServer(t, &fakeChat{reply: "unused"})

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing user_id", map[string]string{"session_id": "s1", "user_message": "x"}},
		{"missing session_id", map[string]string{"user_id": "u1", "user_message": "x"}},
		{"missing user_message", map[string]string{"user_id": "u1", "session_id": "s1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, srv, "/message", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Error == "" {
				t.Error("error body missing message")
			}
		})
	}
}

func TestMessageEndpointBadJSON(t *testing.T) {
	srv := newTestServer(t, &fakeChat{})

	req := httptest.NewRequest(http.MethodPost, "/message", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMessageEndpointRateLimited(t *testing.T) {
	chat := &fakeChat{sendErr: fmt.Errorf("%w: 45 messages in the last 2m0s", history.ErrRateLimited)}
	srv := newTestServer(t, chat)

	rec := postJSON(t, srv, "/message", map[string]string{
		"user_id": "u1", "session_id": "s1", "user_message": "x",
	})

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error == "" {
		t.Error("error body missing message")
	}
}

func TestMessageEndpointStorageFailure(t *testing.T) {
	chat := &fakeChat{sendErr: fmt.Errorf("%w: connection refused", history.ErrStorage)}
	srv := newTestServer(t, chat)

	rec := postJSON(t, srv, "/message", map[string]string{
		"user_id": "u1", "session_id": "s1", "user_message": "x",
	})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	// Internal detail must not leak to the client.
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("error body leaks internal detail")
	}
}

func TestMessageEndpointMalformedSession(t *testing.T) {
	chat := &fakeChat{sendErr: fmt.Errorf("%w: setup row 0", history.ErrMalformedSession)}
	srv := newTestServer(t, chat)

	rec := postJSON(t, srv, "/message", map[string]string{
		"user_id": "u1", "session_id": "s1", "user_message": "x",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestGetUserMessagesEndpoint(t *testing.T) {
	chat := &fakeChat{sessions: []string{"s1", "s2"}}
	srv := newTestServer(t, chat)

	rec := postJSON(t, srv, "/get_user_messages", map[string]string{"user_id": "u1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp sessionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Sessions) != 2 {
		t.Errorf("sessions = %v", resp.Sessions)
	}
}

func TestGetUserMessagesEmpty(t *testing.T) {
	srv := newTestServer(t, &fakeChat{})

	rec := postJSON(t, srv, "/get_user_messages", map[string]string{"user_id": "u1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	// A user with no sessions gets an empty array, not null.
	if !strings.Contains(rec.Body.String(), `"sessions":[]`) {
		t.Errorf("body = %s, want empty sessions array", rec.Body.String())
	}
}

func TestGetConversationEndpoint(t *testing.T) {
	chat := &fakeChat{entries: []history.Entry{
		{Kind: history.KindHumanNoPrompt, Content: "tacos?"},
		{Kind: history.KindAI, Content: "Try La Taqueria."},
	}}
	srv := newTestServer(t, chat)

	rec := postJSON(t, srv, "/get_conversation", map[string]string{
		"user_id": "u1", "session_id": "s1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var entries []history.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Kind != history.KindHumanNoPrompt {
		t.Errorf("entry 0 kind = %s", entries[0].Kind)
	}

	// The wire format uses message_type, matching the stored column name.
	if !strings.Contains(rec.Body.String(), `"message_type":"human_no_prompt"`) {
		t.Errorf("body = %s, want message_type field", rec.Body.String())
	}
}

func TestGetConversationEmpty(t *testing.T) {
	srv := newTestServer(t, &fakeChat{})

	rec := postJSON(t, srv, "/get_conversation", map[string]string{
		"user_id": "u1", "session_id": "s1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want empty array", body)
	}
}

func TestClearConversationEndpoint(t *testing.T) {
	chat := &fakeChat{}
	srv := newTestServer(t, chat)

	rec := postJSON(t, srv, "/clear_conversation", map[string]string{
		"user_id": "u1", "session_id": "s1",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if chat.clearCalls != 1 {
		t.Errorf("clear called %d times", chat.clearCalls)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeChat{})

	req := httptest.NewRequest(http.MethodGet, "/message", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
