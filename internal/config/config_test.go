package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory with an empty HOME so no
// stray .env or config.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "public", cfg.StaticDir)
	assert.Equal(t, BackendSQLite, cfg.State.Backend)
	assert.Equal(t, int64(42000), cfg.InitialBalance)
	assert.Equal(t, "0 9 * * *", cfg.NoticeCron)
	assert.Equal(t, "primary", cfg.Google.CalendarID)
	assert.Equal(t, 100, cfg.Export.QueueSize)
	assert.Equal(t, 2, cfg.Export.Workers)
	assert.Empty(t, cfg.Stripe.SecretKey)
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "8081")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_abc")
	t.Setenv("STRIPE_PRICE_PREMIUM", "price_premium")
	t.Setenv("STRIPE_PRICE_ONE_TIME", "price_once")
	t.Setenv("STATE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/decision?sslmode=disable")
	t.Setenv("INITIAL_BALANCE", "1000")
	t.Setenv("NOTION_TOKEN", "secret_notion")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.LogFormat, "production defaults to json logs")
	assert.Equal(t, "sk_test_abc", cfg.Stripe.SecretKey)
	assert.Equal(t, "price_premium", cfg.Stripe.PricePremium)
	assert.Equal(t, "price_once", cfg.Stripe.PriceOneTime)
	assert.Equal(t, BackendPostgres, cfg.State.Backend)
	assert.Equal(t, int64(1000), cfg.InitialBalance)
	assert.Equal(t, "secret_notion", cfg.Notion.Token)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\nstate_backend: memory\nexport_workers: 4\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.State.Backend)
	assert.Equal(t, 4, cfg.Export.Workers)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("port: \"9000\"\n"), 0o600))
	t.Setenv("PORT", "7000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STRIPE_PRICE_PREMIUM=price_from_dotenv\n"), 0o600))
	// godotenv sets real process variables; register cleanup through Setenv.
	t.Setenv("STRIPE_PRICE_PREMIUM", "")
	require.NoError(t, os.Unsetenv("STRIPE_PRICE_PREMIUM"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "price_from_dotenv", cfg.Stripe.PricePremium)
}

func TestLoad_InvalidBackend(t *testing.T) {
	isolate(t)
	t.Setenv("STATE_BACKEND", "redis")

	_, err := Load("")
	assert.ErrorContains(t, err, "unknown STATE_BACKEND")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port:      "3000",
			LogFormat: "console",
			State:     StateConfig{Backend: BackendMemory},
			Export:    ExportConfig{QueueSize: 1, Workers: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid memory", func(c *Config) {}, ""},
		{"empty port", func(c *Config) { c.Port = "" }, "PORT"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"sqlite without path", func(c *Config) { c.State.Backend = BackendSQLite }, "STATE_SQLITE_PATH"},
		{"postgres without url", func(c *Config) { c.State.Backend = BackendPostgres }, "DATABASE_URL"},
		{"gcs without bucket", func(c *Config) { c.State.Backend = BackendGCS }, "STATE_GCS_BUCKET"},
		{"gcs without object", func(c *Config) {
			c.State.Backend = BackendGCS
			c.State.GCSBucket = "bucket"
		}, "STATE_GCS_OBJECT"},
		{"zero workers", func(c *Config) { c.Export.Workers = 0 }, "EXPORT_WORKERS"},
		{"zero queue", func(c *Config) { c.Export.QueueSize = 0 }, "EXPORT_QUEUE_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
