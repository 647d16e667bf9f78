package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soyeahso/maitred/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

// --- Registry tests ---

func TestRegistryResolveDirect(t *testing.T) {
	reg := NewRegistry(silentLog())
	mock := &MockClient{ProviderName: "mistral"}
	reg.Register("mistral", mock)

	c, err := reg.Resolve("mistral")
	require.NoError(t, err)
	assert.Equal(t, "mistral", c.Name())
}

func TestRegistryResolveAlias(t *testing.T) {
	reg := NewRegistry(silentLog())
	reg.Register("mistral", &MockClient{ProviderName: "mistral"})
	reg.Alias("mistral-small-latest", "mistral")

	c, err := reg.Resolve("mistral-small-latest")
	require.NoError(t, err)
	assert.Equal(t, "mistral", c.Name())
}

func TestRegistryResolveFallback(t *testing.T) {
	reg := NewRegistry(silentLog())
	reg.Register("mock", &MockClient{})
	reg.SetFallback("mock")

	c, err := reg.Resolve("something-else")
	require.NoError(t, err)
	assert.Equal(t, "mock", c.Name())
}

func TestRegistryResolveUnknown(t *testing.T) {
	reg := NewRegistry(silentLog())
	_, err := reg.Resolve("nope")
	assert.Error(t, err)
}

// --- MistralClient tests ---

func TestMistralComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "mistral-small-latest", body["model"])

		msgs := body["messages"].([]any)
		first := msgs[0].(map[string]any)
		assert.Equal(t, "system", first["role"])

		json.NewEncoder(w).Encode(mistralAPIResponse{
			Model: "mistral-small-latest",
			Choices: []mistralChoice{
				{Message: mistralMessage{Role: "assistant", Content: "Bonjour !"}},
			},
			Usage: mistralUsage{PromptTokens: 12, CompletionTokens: 4},
		})
	}))
	defer srv.Close()

	c := NewMistralClient("test-key", "mistral-small-latest", srv.URL)
	resp, err := c.Complete(context.Background(), CompletionRequest{
		System:   "Tu es un assistant de restaurant.",
		Messages: []Message{{Role: RoleUser, Content: "Bonjour"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour !", resp.Content)
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, 4, resp.Usage.OutputTokens)
}

func TestMistralCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewMistralClient("test-key", "mistral-small-latest", srv.URL)
	_, err := c.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, 429, provErr.Code)
}

func TestMistralCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(mistralAPIResponse{})
	}))
	defer srv.Close()

	c := NewMistralClient("test-key", "m", srv.URL)
	_, err := c.Complete(context.Background(), CompletionRequest{})
	assert.Error(t, err)
}
