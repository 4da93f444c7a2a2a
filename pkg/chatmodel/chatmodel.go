package chatmodel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

var defaultBaseURLs = map[string]string{
	ProviderOpenAI:     "https://api.openai.com/v1",
	ProviderOpenRouter: "https://openrouter.ai/api/v1",
	ProviderOllama:     "http://localhost:11434/v1",
}

// Ollama ignores the key but the OpenAI wire protocol requires one.
const ollamaPlaceholderKey = "ollama"

type LLMBuilder interface {
	New(ctx context.Context) (model.ToolCallingChatModel, error)
}

var _ LLMBuilder = (*Config)(nil)

type Config struct {
	Provider           string
	BaseURL            string
	APIKey             string
	Model              string
	MaxCompletionToken *int
	Temperature        float32
	Timeout            time.Duration
	SiteURL            string
	SiteName           string
}

func (c *Config) provider() string {
	p := strings.ToLower(strings.TrimSpace(c.Provider))
	if p == "" {
		return ProviderOpenAI
	}
	return p
}

// ResolvedBaseURL returns the configured base URL or the provider default.
func (c *Config) ResolvedBaseURL() string {
	if trimmed := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"); trimmed != "" {
		return trimmed
	}
	return defaultBaseURLs[c.provider()]
}

func (c *Config) apiKey() string {
	key := strings.TrimSpace(c.APIKey)
	if key == "" && c.provider() == ProviderOllama {
		return ollamaPlaceholderKey
	}
	return key
}

func (c *Config) Validate() error {
	if _, ok := defaultBaseURLs[c.provider()]; !ok {
		return fmt.Errorf("chatmodel: unsupported provider %q", c.Provider)
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("chatmodel: model is required")
	}
	if c.apiKey() == "" {
		return fmt.Errorf("chatmodel: api key is required for provider %q", c.provider())
	}
	return nil
}

func (c *Config) New(ctx context.Context) (model.ToolCallingChatModel, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	conf := &openaimodel.ChatModelConfig{
		BaseURL:     c.ResolvedBaseURL(),
		APIKey:      c.apiKey(),
		Model:       strings.TrimSpace(c.Model),
		MaxTokens:   c.MaxCompletionToken,
		Temperature: &c.Temperature,
		Timeout:     c.Timeout,
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("chatmodel: create %s chat model: %w", c.provider(), err)
	}

	return m, nil
}

// NewClient creates an OpenAI SDK client for the configured provider.
func NewClient(cfg Config) (*openaisdk.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.apiKey()),
		option.WithBaseURL(cfg.ResolvedBaseURL()),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	if cfg.provider() == ProviderOpenRouter {
		if cfg.SiteURL != "" {
			opts = append(opts, option.WithHeader("HTTP-Referer", cfg.SiteURL))
		}
		if cfg.SiteName != "" {
			opts = append(opts, option.WithHeader("X-Title", cfg.SiteName))
		}
	}

	client := openaisdk.NewClient(opts...)
	return &client, nil
}

// ListModels returns the sorted model IDs the provider exposes.
func ListModels(ctx context.Context, client *openaisdk.Client) ([]string, error) {
	if client == nil {
		return nil, errors.New("chatmodel: client is nil")
	}
	page, err := client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("chatmodel: list models: %w", err)
	}

	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		if id := strings.TrimSpace(m.ID); id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
