package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/whitecat-bot/pkg/history"
)

type request struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func fakeAPI(t *testing.T, answer string) (*httptest.Server, *request) {
	t.Helper()
	var got request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"1","object":"chat.completion","model":"m","choices":[`+answer+`],"usage":{"prompt_tokens":3,"completion_tokens":2}}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)
}

func TestChat(t *testing.T) {
	srv, got := fakeAPI(t, `{"index":0,"message":{"role":"assistant","content":"  Meow!  "},"finish_reason":"stop"}`)
	c, err := NewClient("token", WithBaseURL(srv.URL+"/"), WithModel("cat-1"))
	require.NoError(t, err)

	answer, err := c.Chat(context.Background(), "", []history.Turn{
		{Role: history.RoleUser, Content: "hi"},
		{Role: history.RoleModel, Content: "hello"},
		{Role: history.RoleUser, Content: "how are you?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Meow!", answer)

	assert.Equal(t, "cat-1", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, DefaultSystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "how are you?", got.Messages[3].Content)
}

func TestSummarize(t *testing.T) {
	srv, got := fakeAPI(t, `{"index":0,"message":{"role":"assistant","content":"They talked about cats."}}`)
	c, err := NewClient("token", WithBaseURL(srv.URL), WithModel("cat-1"), WithSummaryModel("cat-mini"))
	require.NoError(t, err)

	summary, err := c.Summarize(context.Background(), "[2024-01-01 10:00] @a: cats")
	require.NoError(t, err)
	assert.Equal(t, "They talked about cats.", summary)
	assert.Equal(t, "cat-mini", got.Model)
	assert.Equal(t, summaryMaxTokens, got.MaxTokens)
	assert.InDelta(t, summaryTemperature, got.Temperature, 0.001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestChat_EmptyResponse(t *testing.T) {
	srv, _ := fakeAPI(t, ``)
	c, err := NewClient("token", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), "sys", nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestChat_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	c, err := NewClient("token", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), "sys", []history.Turn{{Role: history.RoleUser, Content: "hi"}})
	assert.Error(t, err)
}
