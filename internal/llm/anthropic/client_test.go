package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docintel/internal/llm"
)

func TestCompleteJoinsTextBlocks(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-haiku-4-5",
			"content": [{"type": "text", "text": "{\"a\":"}, {"type": "text", "text": " 1}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 4}
		}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Model: "claude-haiku-4-5"}, nil)
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), llm.Request{System: "Du bist ein Vertragsanalyst.", Prompt: "text"})
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, out)
	assert.EqualValues(t, 8192, body["max_tokens"])
	assert.NotNil(t, body["system"])
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{Model: "claude-haiku-4-5"}, nil)
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}
