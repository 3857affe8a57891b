package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://worklog.db")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "https://router.huggingface.co/v1", cfg.AI.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 200, cfg.RateLimit)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worklog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url: postgres://file
jwt_secret: from-file
worker_count: 4
ai:
  provider: gemini
  model: gemini-2.0-flash
  timeout: 10s
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AI_MODEL", "override")
	t.Setenv("HF_MODEL_ID", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://file", cfg.DatabaseURL)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "override", cfg.AI.Model)
	assert.Equal(t, 10*time.Second, cfg.AI.Timeout)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "x")
	t.Setenv("JWT_SECRET", "y")
	t.Setenv("AI_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}
