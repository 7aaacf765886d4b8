package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pregador/apperr"
	"pregador/config"
	"pregador/metrics"
	"pregador/models"

	"go.uber.org/zap"
)

// Provider is an OpenAI compatible chat completions endpoint.
type Provider struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
}

// ResolveProvider picks the key used for a company: the company's own key
// first, then the system Groq key, then the system OpenAI key.
func ResolveProvider(company models.Company, cfg config.Configuration) (Provider, error) {
	if company.HasAIKey() {
		if company.AIProvider == models.AI_PROVIDER_OPENAI {
			return Provider{Name: models.AI_PROVIDER_OPENAI, BaseURL: cfg.AI.OpenAIBaseURL, APIKey: company.AIApiKey, Model: cfg.AI.OpenAIModel}, nil
		}
		return Provider{Name: models.AI_PROVIDER_GROQ, BaseURL: cfg.AI.GroqBaseURL, APIKey: company.AIApiKey, Model: cfg.AI.GroqModel}, nil
	}
	if strings.TrimSpace(cfg.AI.GroqApiKey) != "" {
		return Provider{Name: models.AI_PROVIDER_GROQ, BaseURL: cfg.AI.GroqBaseURL, APIKey: cfg.AI.GroqApiKey, Model: cfg.AI.GroqModel}, nil
	}
	if strings.TrimSpace(cfg.AI.OpenAIApiKey) != "" {
		return Provider{Name: models.AI_PROVIDER_OPENAI, BaseURL: cfg.AI.OpenAIBaseURL, APIKey: cfg.AI.OpenAIApiKey, Model: cfg.AI.OpenAIModel}, nil
	}
	return Provider{}, apperr.AIDisabled("nenhuma chave de IA configurada. Cadastre a chave da sua conta ou fale com o suporte.")
}

// Generator produces text from a prompt. Controllers depend on this so tests can fake the LLM.
type Generator interface {
	Complete(ctx context.Context, provider Provider, system, prompt string) (string, error)
}

// ChatClient calls {BaseURL}/chat/completions once, without retries.
type ChatClient struct {
	HTTP *http.Client
}

func NewChatClient(timeout time.Duration) *ChatClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChatClient{HTTP: &http.Client{Timeout: timeout}}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete returns the assistant text. Any failure is an AIFailed error.
func (cc *ChatClient) Complete(ctx context.Context, provider Provider, system, prompt string) (string, error) {
	start := time.Now()
	out, err := cc.complete(ctx, provider, system, prompt)

	status := "ok"
	if err != nil {
		status = "error"
		zap.L().Error("falha na chamada ao provedor de IA",
			zap.String("provider", provider.Name),
			zap.String("model", provider.Model),
			zap.Error(err),
		)
		err = apperr.AIFailed(err)
	}
	metrics.AIRequestDuration.WithLabelValues(provider.Name, status).Observe(time.Since(start).Seconds())
	return out, err
}

func (cc *ChatClient) complete(ctx context.Context, provider Provider, system, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: provider.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(provider.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+provider.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := cc.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%s error %d: %s", provider.Name, resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode %s response: %w", provider.Name, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", provider.Name)
	}
	out := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("empty response from %s", provider.Name)
	}
	return out, nil
}
