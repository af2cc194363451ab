package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinsgen/twin-problem-service/internal/models"
)

func chatServer(t *testing.T, status int, body string, seen *map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const completionBody = `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
"choices":[{"index":0,"message":{"role":"assistant","content":"{\"text\":\"2x + 3 = 7\"}"},"finish_reason":"stop"}]}`

func TestOpenAIProviderExtractData(t *testing.T) {
	var req map[string]interface{}
	srv := chatServer(t, http.StatusOK, completionBody, &req)

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1", "gpt-4o-mini")
	out, err := p.ExtractData(context.Background(), "transcribe", "")
	require.NoError(t, err)
	assert.Equal(t, `{"text":"2x + 3 = 7"}`, out)

	assert.Equal(t, "gpt-4o-mini", req["model"])
	format, ok := req["response_format"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
}

func TestOpenAIProviderMapsErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limit", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`, ErrRateLimited},
		{"quota", http.StatusTooManyRequests, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`, ErrQuotaExceeded},
		{"bad key", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`, ErrInvalidAPIKey},
		{"forbidden", http.StatusForbidden, `{"error":{"message":"Country not supported","type":"invalid_request_error","code":"unsupported_country"}}`, ErrPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.status, tt.body, nil)
			p := NewOpenAIProvider("sk-test", srv.URL+"/v1", "gpt-4o-mini")

			_, err := p.ExtractData(context.Background(), "prompt", "")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOllamaProviderUsesV1Endpoint(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3.1")
	_, err := p.ExtractData(context.Background(), "prompt", "")
	require.NoError(t, err)
	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, "ollama", p.Name())
}

func TestMissingAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "", "").ExtractData(context.Background(), "p", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewGeminiProvider("", "").ExtractData(context.Background(), "p", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewProvider(t *testing.T) {
	cfg := models.AIConfig{
		DefaultProvider: "gemini",
		Gemini:          models.GeminiConfig{APIKey: "g", Model: "gemini-2.0-flash"},
		OpenAI:          models.OpenAIConfig{APIKey: "o", Model: "gpt-4o-mini"},
	}

	p, err := NewProvider(cfg, "", "")
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())

	p, err = NewProvider(cfg, "openai", "")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = NewProvider(cfg, "claude", "")
	assert.Error(t, err)
}

func TestClassifyProviderErrorFromText(t *testing.T) {
	assert.ErrorIs(t, mapProviderError(errors.New("rpc error: RESOURCE_EXHAUSTED")), ErrQuotaExceeded)
	assert.ErrorIs(t, mapProviderError(errors.New("googleapi: Error 403: PERMISSION_DENIED")), ErrPermissionDenied)

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapProviderError(plain))
}
