package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DEEPSEEK_API_KEY", "DEEPSEEK_MODEL", "DEEPSEEK_BASE_URL",
		"DEEPSEEK_TEMPERATURE", "DEEPSEEK_MAX_TOKENS", "STACKSMITH_OUTPUT_DIR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, "outputs", cfg.App.OutputDir)
	assert.Equal(t, "tech_stack", cfg.App.DocumentPrefix)
	assert.Equal(t, 8, cfg.Search.KeywordLimit)
	assert.True(t, errors.Is(cfg.Validate(), ErrMissingAPIKey))
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("DEEPSEEK_TEMPERATURE", "0.2")
	t.Setenv("DEEPSEEK_MAX_TOKENS", "1234")
	t.Setenv("STACKSMITH_OUTPUT_DIR", "/tmp/docs")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	name, p := cfg.GetDefaultProvider()
	assert.Equal(t, "deepseek", name)
	assert.Equal(t, "sk-test", p.APIKey)
	assert.Equal(t, DefaultModel, p.Model)
	assert.Equal(t, DefaultBaseURL, p.BaseURL)
	assert.Equal(t, 0.2, p.Temp())
	assert.Equal(t, 1234, p.MaxTokens)
	assert.Equal(t, "/tmp/docs", cfg.App.OutputDir)
}

func TestLoadConfig_ZeroTemperatureIsKept(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("DEEPSEEK_TEMPERATURE", "0")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	_, p := cfg.GetDefaultProvider()
	require.NotNil(t, p.Temperature)
	assert.Equal(t, 0.0, p.Temp())

	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"providers": {"openai": {"api_key": "k", "model": "gpt-4o-mini", "temperature": 0, "enabled": true}}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	_, p = cfg.GetDefaultProvider()
	assert.Equal(t, 0.0, p.Temp())
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("DEEPSEEK_MAX_TOKENS", "lots")

	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "DEEPSEEK_MAX_TOKENS")
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"app": {"output_dir": "docs", "document_prefix": "stack"},
		"providers": {
			"openrouter": {"api_key": "or-key", "model": "deepseek/deepseek-chat", "base_url": "https://openrouter.ai/api/v1", "enabled": true},
			"openai": {"api_key": "oa-key", "model": "gpt-4o-mini", "enabled": false}
		},
		"search": {"enabled": false, "deny_terms": ["acme"]},
		"gateways": {"telegram": {"token": "t", "chat_id": 42, "enabled": true}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	name, p := cfg.GetDefaultProvider()
	assert.Equal(t, "openrouter", name)
	assert.Equal(t, DefaultTemperature, p.Temp())
	assert.Equal(t, DefaultMaxTokens, p.MaxTokens)

	assert.Equal(t, "docs", cfg.App.OutputDir)
	assert.False(t, cfg.Search.Enabled)
	assert.Equal(t, 8, cfg.Search.KeywordLimit, "unset fields keep defaults")
	assert.Equal(t, []string{"acme"}, cfg.Search.DenyTerms)

	tg, ok := cfg.GetTelegramConfig()
	require.True(t, ok)
	assert.Equal(t, int64(42), tg.ChatID)
}

func TestLoadConfig_BadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "failed to decode config file")
}

func TestGetDefaultProvider_Deterministic(t *testing.T) {
	cfg := &Config{Providers: map[string]ProviderConfig{
		"zeta":  {Enabled: true, APIKey: "z"},
		"alpha": {Enabled: true, APIKey: "a"},
		"beta":  {Enabled: false, APIKey: "b"},
	}}
	for i := 0; i < 10; i++ {
		name, _ := cfg.GetDefaultProvider()
		assert.Equal(t, "alpha", name)
	}
}

func TestGetTelegramConfig_RequiresChat(t *testing.T) {
	cfg := &Config{Gateways: map[string]GatewayConfig{"telegram": {Token: "t", Enabled: true}}}
	_, ok := cfg.GetTelegramConfig()
	assert.False(t, ok)
}
