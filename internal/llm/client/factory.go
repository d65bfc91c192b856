package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderMiniMax    = "minimax"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"

	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	MiniMaxBaseURL    = "https://api.minimax.io/v1"

	DefaultTemperature float32 = 0.7
	DefaultMaxTokens           = 8000
)

// ProviderConfig selects and configures one provider variant.
type ProviderConfig struct {
	Provider    string
	APIName     string
	APIKey      string
	BaseURL     string
	AppURL      string
	AppTitle    string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// Factory builds a Provider; the orchestrator takes one so tests can substitute fakes.
type Factory func(ctx context.Context, cfg ProviderConfig) (Provider, error)

// NewProvider builds the eino chat model for cfg.Provider and wraps it.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s API key is required", cfg.Provider)
	}
	if strings.TrimSpace(cfg.APIName) == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	var (
		chat model.BaseChatModel
		err  error
	)
	switch cfg.Provider {
	case ProviderOpenRouter:
		chat, err = newOpenAICompatible(ctx, cfg, defaultString(cfg.BaseURL, OpenRouterBaseURL), attributionClient(cfg))
	case ProviderMiniMax:
		chat, err = newOpenAICompatible(ctx, cfg, defaultString(cfg.BaseURL, MiniMaxBaseURL), nil)
	case ProviderOpenAI:
		chat, err = newOpenAICompatible(ctx, cfg, cfg.BaseURL, nil)
	case ProviderAnthropic:
		chat, err = newClaude(ctx, cfg)
	case ProviderGemini:
		chat, err = newGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", cfg.Provider, err)
	}
	return NewChatModelProvider(cfg.Provider, cfg.APIName, chat), nil
}

func newOpenAICompatible(ctx context.Context, cfg ProviderConfig, baseURL string, httpClient *http.Client) (model.BaseChatModel, error) {
	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     baseURL,
		Model:       cfg.APIName,
		Timeout:     cfg.Timeout,
		HTTPClient:  httpClient,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
}

func newClaude(ctx context.Context, cfg ProviderConfig) (model.BaseChatModel, error) {
	temperature := cfg.Temperature
	conf := &claude.Config{
		APIKey:      cfg.APIKey,
		Model:       cfg.APIName,
		MaxTokens:   cfg.MaxTokens,
		Temperature: &temperature,
	}
	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		conf.BaseURL = &baseURL
	}
	return claude.NewChatModel(ctx, conf)
}

func newGemini(ctx context.Context, cfg ProviderConfig) (model.BaseChatModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens
	return gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.APIName,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
}

// attributionClient adds the referer and title headers OpenRouter uses for app attribution.
func attributionClient(cfg ProviderConfig) *http.Client {
	headers := map[string]string{}
	if cfg.AppURL != "" {
		headers["HTTP-Referer"] = cfg.AppURL
	}
	if cfg.AppTitle != "" {
		headers["X-Title"] = cfg.AppTitle
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &headerTransport{base: http.DefaultTransport, headers: headers},
	}
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		clone.Header.Set(k, v)
	}
	return t.base.RoundTrip(clone)
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
