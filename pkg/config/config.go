package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrMissingAPIKey is returned by Validate when no enabled provider has a key.
var ErrMissingAPIKey = errors.New("API key is not configured (set DEEPSEEK_API_KEY or providers.<name>.api_key)")

const (
	DefaultProvider    = "deepseek"
	DefaultModel       = "deepseek-chat"
	DefaultBaseURL     = "https://api.deepseek.com"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4000
)

type Config struct {
	App       AppConfig                 `json:"app"`
	Providers map[string]ProviderConfig `json:"providers"`
	Search    SearchConfig              `json:"search"`
	Memory    MemoryConfig              `json:"memory"`
	Gateways  map[string]GatewayConfig  `json:"gateways"`
	Logging   LoggingConfig             `json:"logging"`
}

type AppConfig struct {
	Name           string `json:"name"`
	OutputDir      string `json:"output_dir"`
	DocumentPrefix string `json:"document_prefix"`
	PromptsDir     string `json:"prompts_dir,omitempty"`
	FormDefaults   string `json:"form_defaults,omitempty"`
}

type ProviderConfig struct {
	APIKey      string   `json:"api_key"`
	Model       string   `json:"model"`
	BaseURL     string   `json:"base_url,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Enabled     bool     `json:"enabled"`
}

type SearchConfig struct {
	Enabled           bool     `json:"enabled"`
	MaxResults        int      `json:"max_results"`
	ResultsPerKeyword int      `json:"results_per_keyword"`
	KeywordLimit      int      `json:"keyword_limit"`
	DelayMillis       int      `json:"delay_ms"`
	EnrichTop         int      `json:"enrich_top"`
	UserAgent         string   `json:"user_agent,omitempty"`
	DenyTerms         []string `json:"deny_terms,omitempty"`
	DenyPatterns      []string `json:"deny_patterns,omitempty"`
}

type MemoryConfig struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

type GatewayConfig struct {
	Token   string `json:"token"`
	ChatID  int64  `json:"chat_id"`
	Enabled bool   `json:"enabled"`
}

type LoggingConfig struct {
	Verbose    bool   `json:"verbose"`
	LLMLogPath string `json:"llm_log_path"`
}

// Temp returns the sampling temperature. Zero is a valid setting; only an
// unset value takes DefaultTemperature.
func (p ProviderConfig) Temp() float64 {
	if p.Temperature == nil {
		return DefaultTemperature
	}
	return *p.Temperature
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:           "stacksmith",
			OutputDir:      "outputs",
			DocumentPrefix: "tech_stack",
		},
		Providers: map[string]ProviderConfig{},
		Search: SearchConfig{
			Enabled:           true,
			MaxResults:        5,
			ResultsPerKeyword: 3,
			KeywordLimit:      8,
			DelayMillis:       1000,
		},
		Memory: MemoryConfig{
			Type: "sqlite",
			Path: "stacksmith.db",
		},
		Gateways: map[string]GatewayConfig{},
		Logging: LoggingConfig{
			LLMLogPath: "logs/llm.jsonl",
		},
	}
}

// LoadConfig reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case err == nil:
			defer file.Close()
			decoder := json.NewDecoder(file)
			if err := decoder.Decode(cfg); err != nil {
				return nil, fmt.Errorf("failed to decode config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.fillProviderDefaults()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	if v := os.Getenv("STACKSMITH_OUTPUT_DIR"); v != "" {
		c.App.OutputDir = v
	}

	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		p := c.Providers[DefaultProvider]
		p.APIKey = key
		p.Enabled = true
		c.Providers[DefaultProvider] = p
	}

	p, ok := c.Providers[DefaultProvider]
	if !ok {
		return nil
	}
	if v := os.Getenv("DEEPSEEK_MODEL"); v != "" {
		p.Model = v
	}
	if v := os.Getenv("DEEPSEEK_BASE_URL"); v != "" {
		p.BaseURL = v
	}
	if v := os.Getenv("DEEPSEEK_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid DEEPSEEK_TEMPERATURE %q: %w", v, err)
		}
		p.Temperature = &t
	}
	if v := os.Getenv("DEEPSEEK_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DEEPSEEK_MAX_TOKENS %q: %w", v, err)
		}
		p.MaxTokens = n
	}
	c.Providers[DefaultProvider] = p
	return nil
}

func (c *Config) fillProviderDefaults() {
	for name, p := range c.Providers {
		if p.Temperature == nil {
			t := DefaultTemperature
			p.Temperature = &t
		}
		if p.MaxTokens == 0 {
			p.MaxTokens = DefaultMaxTokens
		}
		if name == DefaultProvider {
			if p.Model == "" {
				p.Model = DefaultModel
			}
			if p.BaseURL == "" {
				p.BaseURL = DefaultBaseURL
			}
		}
		c.Providers[name] = p
	}
}

// GetDefaultProvider returns the first enabled provider in name order.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	tg, ok := c.Gateways["telegram"]
	if ok && tg.Enabled && tg.Token != "" && tg.ChatID != 0 {
		return tg, true
	}
	return GatewayConfig{}, false
}

// Validate fails fast before any network call is made.
func (c *Config) Validate() error {
	name, p := c.GetDefaultProvider()
	if name == "" || strings.TrimSpace(p.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if p.Model == "" {
		return fmt.Errorf("provider %s: model is not configured", name)
	}
	if c.App.OutputDir == "" {
		return errors.New("app.output_dir is empty")
	}
	return nil
}
