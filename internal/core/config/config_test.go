package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haiku-api/internal/domain"
)

const sample = `
app:
  http:
    port: 9090
log:
  level: debug
db:
  driver: sqlite
  dsn: haiku.db
  acquiretimeoutms: 250
generator:
  base_url: https://llm.example.com/v1
  api_key: file-key
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	c, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, 9090, c.App.HTTP.Port)
	assert.Equal(t, "0.0.0.0", c.App.HTTP.Host)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, 250, c.DB.AcquireTimeoutMs)
	assert.Equal(t, "https://llm.example.com/v1", c.Generator.BaseURL)
	assert.Equal(t, "file-key", c.Generator.APIKey)
	assert.Equal(t, 30, c.Generator.TimeoutSec)
	assert.Equal(t, 32, c.Dispatch.MaxBatch)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("APP_DB_DSN", "other.db")
	t.Setenv("DEEPSEEK_API_KEY", "env-key")

	c, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "other.db", c.DB.DSN)
	assert.Equal(t, "env-key", c.Generator.APIKey)
}

func TestLoadWithoutFileUsesEnv(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("APP_DB_DRIVER", "sqlite")
	t.Setenv("APP_DB_DSN", "haiku.db")
	t.Setenv("DEEPSEEK_API_URL", "http://127.0.0.1:9000")
	t.Setenv("DEEPSEEK_API_KEY", "k")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", c.Generator.BaseURL)
	assert.Equal(t, 8080, c.App.HTTP.Port)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestLoadMissingGeneratorKey(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("APP_GENERATOR_API_KEY", "")
	_, err := Load(writeConfig(t, `
db:
  driver: sqlite
  dsn: haiku.db
generator:
  base_url: https://llm.example.com
`))
	require.Error(t, err)
	assert.Equal(t, domain.KindConfiguration, domain.KindOf(err))
	assert.Contains(t, err.Error(), "api_key")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			App:       App{HTTP: HTTP{Port: 8080}},
			DB:        DB{Driver: "postgres", DSN: "postgres://x", AcquireTimeoutMs: 100},
			Generator: Generator{BaseURL: "https://llm.example.com", APIKey: "k"},
		}
	}
	c := valid()
	require.NoError(t, c.Validate())

	cases := map[string]func(*Config){
		"driver":  func(c *Config) { c.DB.Driver = "oracle" },
		"dsn":     func(c *Config) { c.DB.DSN = " " },
		"port":    func(c *Config) { c.App.HTTP.Port = 70000 },
		"url":     func(c *Config) { c.Generator.BaseURL = "llm.example.com" },
		"key":     func(c *Config) { c.Generator.APIKey = "" },
		"acquire": func(c *Config) { c.DB.AcquireTimeoutMs = 0 },
		"no url":  func(c *Config) { c.Generator.BaseURL = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			assert.True(t, errors.Is(c.Validate(), domain.ErrConfiguration))
		})
	}
}
