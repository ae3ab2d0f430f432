package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/munch-labs/munch/internal/history"
)

// ChatService is the conversation capability the handlers need.
// Implemented by chat.Service.
type ChatService interface {
	Send(ctx context.Context, userID, sessionID, userMessage string) (string, error)
	Transcript(ctx context.Context, userID, sessionID string) ([]history.Entry, error)
	Sessions(ctx context.Context, userID string) ([]string, error)
	Clear(ctx context.Context, userID, sessionID string) error
}

type chatHandler struct {
	chat   ChatService
	logger *slog.Logger
}

func (h *chatHandler) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /message", h.message)
	mux.HandleFunc("POST /get_user_messages", h.userSessions)
	mux.HandleFunc("POST /get_conversation", h.conversation)
	mux.HandleFunc("POST /clear_conversation", h.clearConversation)
}

type messageRequest struct {
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	UserMessage string `json:"user_message"`
}

type messageResponse struct {
	Input  string `json:"input"`
	Sender string `json:"sender"`
}

// message handles POST /message: one full chat turn.
func (h *chatHandler) message(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.SessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "user_id and session_id are required")
		return
	}
	if req.UserMessage == "" {
		writeError(w, h.logger, http.StatusBadRequest, "user_message is required")
		return
	}

	reply, err := h.chat.Send(r.Context(), req.UserID, req.SessionID, req.UserMessage)
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, messageResponse{Input: reply, Sender: "system"})
}

type sessionRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

type sessionsResponse struct {
	Sessions []string `json:"sessions"`
}

// userSessions handles POST /get_user_messages: list the session ids a user
// has conversed under.
func (h *chatHandler) userSessions(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "user_id is required")
		return
	}

	sessions, err := h.chat.Sessions(r.Context(), req.UserID)
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []string{}
	}

	writeJSON(w, h.logger, http.StatusOK, sessionsResponse{Sessions: sessions})
}

// conversation handles POST /get_conversation: the projected user-facing
// transcript for one session.
func (h *chatHandler) conversation(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.SessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "user_id and session_id are required")
		return
	}

	entries, err := h.chat.Transcript(r.Context(), req.UserID, req.SessionID)
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	writeJSON(w, h.logger, http.StatusOK, entries)
}

// clearConversation handles POST /clear_conversation. Clearing a session
// that does not exist succeeds.
func (h *chatHandler) clearConversation(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.SessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "user_id and session_id are required")
		return
	}

	if err := h.chat.Clear(r.Context(), req.UserID, req.SessionID); err != nil {
		h.writeChatError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeChatError maps service errors to HTTP responses. Internal detail
// stays in the log; clients get a stable message.
func (h *chatHandler) writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, history.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		writeError(w, h.logger, http.StatusTooManyRequests, "too many messages, slow down")
	case errors.Is(err, history.ErrMalformedSession):
		h.logger.Warn("malformed session", "path", r.URL.Path, "error", err)
		writeError(w, h.logger, http.StatusConflict, "conversation history is corrupted, clear it and retry")
	case errors.Is(err, history.ErrStorage):
		h.logger.Error("storage failure", "path", r.URL.Path, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "internal server error")
	default:
		h.logger.Error("chat request failed", "path", r.URL.Path, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "internal server error")
	}
}
