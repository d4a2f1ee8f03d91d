package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Generate_ReturnsTextAndUsage(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := chatResponse{}
		resp.Choices = []struct {
			Message Message `json:"message"`
		}{{Message: Message{Role: RoleAssistant, Content: `{"tool":"complete_task","parameters":{},"rationale":"done"}`}}}
		resp.Usage.PromptTokens = 42
		resp.Usage.CompletionTokens = 7
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "secret-key", "test-model")
	out, err := client.Generate(context.Background(), GenerateInput{
		Messages: []Message{{Role: RoleUser, Content: "scan example.com"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.Contains(t, out.Text, "complete_task")
	assert.Equal(t, 42, out.InputTokens)
	assert.Equal(t, 7, out.OutputTokens)
}

func TestHTTPClient_Generate_PerCallModelOverridesDefault(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		resp := chatResponse{}
		resp.Choices = []struct {
			Message Message `json:"message"`
		}{{Message: Message{Role: RoleAssistant, Content: "ok"}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", "default-model")
	_, err := client.Generate(context.Background(), GenerateInput{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Model:    "override-model",
	})
	require.NoError(t, err)
	assert.Equal(t, "override-model", gotReq.Model)
}

func TestHTTPClient_Generate_NonOKStatusReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", "m")
	_, err := client.Generate(context.Background(), GenerateInput{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.Error(t, err)
}

func TestHTTPClient_Generate_NoChoicesReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(chatResponse{}))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", "m")
	_, err := client.Generate(context.Background(), GenerateInput{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.Error(t, err)
}
