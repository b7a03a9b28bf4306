package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no config.yaml present

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "scorecards.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 20, cfg.Portfolio.MaxBusinesses)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, int64(2048), cfg.Anthropic.MaxTokens)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCORECARD_STORE_DRIVER", "postgres")
	t.Setenv("SCORECARD_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Store:     StoreConfig{Driver: "sqlite", DatabaseURL: "test.db"},
			Anthropic: AnthropicConfig{Key: "sk-test", MaxTokens: 1024},
			Server:    ServerConfig{Port: 8080},
		}
	}

	t.Run("valid scopes", func(t *testing.T) {
		cfg := base()
		assert.NoError(t, cfg.Validate("store"))
		assert.NoError(t, cfg.Validate("report"))
		assert.NoError(t, cfg.Validate("serve"))
	})

	t.Run("bad driver", func(t *testing.T) {
		cfg := base()
		cfg.Store.Driver = "oracle"
		assert.Error(t, cfg.Validate("store"))
	})

	t.Run("missing anthropic key", func(t *testing.T) {
		cfg := base()
		cfg.Anthropic.Key = ""
		assert.Error(t, cfg.Validate("report"))
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate("serve"))
	})

	t.Run("unknown scope", func(t *testing.T) {
		assert.Error(t, base().Validate("export"))
	})
}
