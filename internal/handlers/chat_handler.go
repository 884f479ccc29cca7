package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/llm"
)

// ChatService drives one research conversation, streaming the final answer.
type ChatService interface {
	Chat(ctx context.Context, history []llm.Message, w io.Writer) error
}

// ChatHandler serves the interactive research chat.
type ChatHandler struct {
	chat   ChatService
	logger arbor.ILogger
}

// NewChatHandler creates a new ChatHandler instance
func NewChatHandler(chat ChatService, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: logger,
	}
}

type chatRequest struct {
	Messages []llm.Message `json:"messages"`
}

// ChatHandler relays the model's final streamed turn as server-sent events.
// POST /api/chat
func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		WriteError(w, http.StatusBadRequest, "messages required")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err := h.chat.Chat(r.Context(), req.Messages, w); err != nil {
		h.logger.Error().Err(err).Msg("Chat failed")
		h.writeChatError(w, err)
	}
}

// writeChatError maps gateway exhaustion errors to their distinct status
// codes. Headers may already be written when the stream failed mid-flight;
// in that case the status line is best-effort.
func (h *ChatHandler) writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		WriteError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, llm.ErrQuotaExhausted):
		WriteError(w, http.StatusPaymentRequired, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
