package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pregador/apperr"
	"pregador/config"
	"pregador/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Configuration {
	var cfg config.Configuration
	cfg.AI.GroqBaseURL = "https://groq.test/openai/v1"
	cfg.AI.GroqModel = "llama"
	cfg.AI.OpenAIBaseURL = "https://openai.test/v1"
	cfg.AI.OpenAIModel = "gpt"
	return cfg
}

func TestResolveProvider(t *testing.T) {
	cfg := testConfig()

	t.Run("no key anywhere", func(t *testing.T) {
		_, err := ResolveProvider(models.Company{}, cfg)
		require.Error(t, err)
		assert.Equal(t, apperr.KindAIUnavailable, apperr.KindOf(err))
		assert.Equal(t, http.StatusForbidden, apperr.HTTPStatus(err))
	})

	t.Run("company key wins", func(t *testing.T) {
		c := cfg
		c.AI.GroqApiKey = "system-groq"
		p, err := ResolveProvider(models.Company{AIProvider: models.AI_PROVIDER_OPENAI, AIApiKey: "company"}, c)
		require.NoError(t, err)
		assert.Equal(t, models.AI_PROVIDER_OPENAI, p.Name)
		assert.Equal(t, "company", p.APIKey)
		assert.Equal(t, "gpt", p.Model)
	})

	t.Run("company key defaults to groq", func(t *testing.T) {
		p, err := ResolveProvider(models.Company{AIApiKey: "company"}, cfg)
		require.NoError(t, err)
		assert.Equal(t, models.AI_PROVIDER_GROQ, p.Name)
		assert.Equal(t, "https://groq.test/openai/v1", p.BaseURL)
	})

	t.Run("system groq before openai", func(t *testing.T) {
		c := cfg
		c.AI.GroqApiKey = "g"
		c.AI.OpenAIApiKey = "o"
		p, err := ResolveProvider(models.Company{}, c)
		require.NoError(t, err)
		assert.Equal(t, "g", p.APIKey)
	})

	t.Run("system openai", func(t *testing.T) {
		c := cfg
		c.AI.OpenAIApiKey = "o"
		p, err := ResolveProvider(models.Company{}, c)
		require.NoError(t, err)
		assert.Equal(t, models.AI_PROVIDER_OPENAI, p.Name)
	})
}

func TestChatClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "m", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "escreva", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  A Graça\nTexto  "}}]}`))
	}))
	defer srv.Close()

	cc := NewChatClient(time.Second)
	out, err := cc.Complete(context.Background(), Provider{Name: "groq", BaseURL: srv.URL + "/v1/", APIKey: "key", Model: "m"}, "sys", "escreva")
	require.NoError(t, err)
	assert.Equal(t, "A Graça\nTexto", out)
}

func TestChatClient_ProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cc := NewChatClient(time.Second)
	_, err := cc.Complete(context.Background(), Provider{Name: "groq", BaseURL: srv.URL, APIKey: "key", Model: "m"}, "sys", "p")
	require.Error(t, err)
	assert.Equal(t, apperr.KindAIUnavailable, apperr.KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(err))
}

func TestChatClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewChatClient(time.Second).Complete(context.Background(), Provider{Name: "openai", BaseURL: srv.URL}, "s", "p")
	require.Error(t, err)
}

func TestSplitTitle(t *testing.T) {
	title, body := SplitTitle("## O Bom Pastor\n\nIntrodução...", "fallback")
	assert.Equal(t, "O Bom Pastor", title)
	assert.Equal(t, "Introdução...", body)

	title, body = SplitTitle("uma linha só", "fallback")
	assert.Equal(t, "fallback", title)
	assert.Equal(t, "uma linha só", body)
}

func TestCheckPassword(t *testing.T) {
	assert.Equal(t, "password", CheckPassword("12345", 6))
	assert.Equal(t, "", CheckPassword("123456", 6))
}
