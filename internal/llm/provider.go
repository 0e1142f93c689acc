package llm

import (
	"fmt"

	"github.com/rahul/stacksmith/internal/observability"
	"github.com/rahul/stacksmith/pkg/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewFromProvider builds a Client for one of the OpenAI-compatible providers.
func NewFromProvider(name string, p config.ProviderConfig, logger *observability.Logger) (*Client, error) {
	var model llms.Model
	switch name {
	case "deepseek", "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(p.APIKey),
			openai.WithModel(p.Model),
		}
		if p.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(p.BaseURL))
		}
		m, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize %s client: %w", name, err)
		}
		model = m
	default:
		return nil, fmt.Errorf("provider %s not supported", name)
	}

	return New(model,
		WithModelName(p.Model),
		WithTemperature(p.Temp()),
		WithMaxTokens(p.MaxTokens),
		WithLogger(logger),
	), nil
}
