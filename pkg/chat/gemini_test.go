package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oladoye/sitesync/pkg/model"
)

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini("", "")
	require.Error(t, err)
	assert.Equal(t, model.ErrConfigurationMissing, errors.Cause(err))
}

func TestNewGemini_DefaultModel(t *testing.T) {
	g, err := NewGemini("key", "")
	require.NoError(t, err)
	assert.Equal(t, "gemini-pro", g.modelName)
}

func reply(text string) generateResponse {
	var out generateResponse
	out.Candidates = []struct {
		Content content `json:"content"`
	}{
		{Content: content{Parts: []part{{Text: text}}}},
	}

	return out
}

func TestGemini_Answer(t *testing.T) {
	var got generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-pro:generateContent", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(reply("Grace and peace to you."))
	}))
	defer srv.Close()

	g, err := NewGemini("key", "gemini-pro")
	require.NoError(t, err)

	g.endpoint = srv.URL

	answer, err := g.Answer(context.Background(), "What should I read first?", []Message{
		{Role: "user", Text: "Hello"},
		{Role: "assistant", Text: "Hi, how can I help?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace and peace to you.", answer)

	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 1)

	prompt := got.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "User: Hello")
	assert.Contains(t, prompt, "Assistant: Hi, how can I help?")
	assert.Contains(t, prompt, "User: What should I read first?")

	// Standing instructions always lead the prompt
	assert.Contains(t, prompt, "Faithjesus Oladoye")

	assert.Equal(t, 0.7, got.GenerationConfig.Temperature)
	assert.Equal(t, 1000, got.GenerationConfig.MaxOutputTokens)
	assert.Len(t, got.SafetySettings, 4)
}

func TestGemini_AnswerUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g, err := NewGemini("key", "")
	require.NoError(t, err)

	g.endpoint = srv.URL

	_, err = g.Answer(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.Equal(t, model.ErrSourceUnavailable, errors.Cause(err))
}

func TestGemini_AnswerNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	g, err := NewGemini("key", "")
	require.NoError(t, err)

	g.endpoint = srv.URL

	_, err = g.Answer(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.Equal(t, model.ErrSourceUnavailable, errors.Cause(err))
}
