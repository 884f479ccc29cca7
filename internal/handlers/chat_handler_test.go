package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/chainscan/internal/common"
	"github.com/ternarybob/chainscan/internal/llm"
)

type fakeChatService struct {
	history []llm.Message
	stream  string
	err     error
}

func (f *fakeChatService) Chat(ctx context.Context, history []llm.Message, w io.Writer) error {
	f.history = history
	if f.err != nil {
		return f.err
	}
	_, err := fmt.Fprint(w, f.stream)
	return err
}

func TestChatRelaysStream(t *testing.T) {
	chat := &fakeChatService{stream: "data: {\"choices\":[]}\n\ndata: [DONE]\n\n"}
	handler := NewChatHandler(chat, common.GetLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"messages":[{"role":"user","content":"What is NVDA's price?"}]}`))
	rec := httptest.NewRecorder()
	handler.ChatHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "data: [DONE]")

	require.Len(t, chat.history, 1)
	assert.Equal(t, "user", chat.history[0].Role)
}

func TestChatRequiresMessages(t *testing.T) {
	handler := NewChatHandler(&fakeChatService{}, common.GetLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[]}`))
	rec := httptest.NewRecorder()
	handler.ChatHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatErrorStatuses(t *testing.T) {
	cases := map[error]int{
		llm.ErrRateLimited:    http.StatusTooManyRequests,
		llm.ErrQuotaExhausted: http.StatusPaymentRequired,
		llm.ErrTooManyIterations: http.StatusInternalServerError,
	}

	for err, wantStatus := range cases {
		handler := NewChatHandler(&fakeChatService{err: err}, common.GetLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/chat",
			strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
		rec := httptest.NewRecorder()
		handler.ChatHandler(rec, req)

		assert.Equal(t, wantStatus, rec.Code, "for %v", err)
		assert.Contains(t, rec.Body.String(), "error")
	}
}
