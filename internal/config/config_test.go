package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Validate())
	assert.Equal(t, 90*time.Second, cfg.Packing.Duration)
	assert.Equal(t, 500*time.Millisecond, cfg.Packing.Tick)
	assert.Equal(t, "cl", cfg.Geocoding.CountryCodes)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "mongo"
	cfg.Packing.Tick = 10 * time.Second
	cfg.Geocoding.UserAgent = " "
	cfg.Routing.BaseURL = "not a url"

	errs := cfg.Validate()
	require.Len(t, errs, 4)
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"storage.driver", "packing.tick", "geocoding.user_agent", "routing.base_url"}, fields)
	assert.Contains(t, errs.Error(), "4 validation errors")
}

func TestLoadFromViperWithFileAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  driver: memory
packing:
  duration: 45s
  tick: 1s
`), 0644))

	SetDefaults()
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())
	viper.Set("server.addr", ":8080")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 45*time.Second, cfg.Packing.Duration)
	assert.Equal(t, time.Second, cfg.Packing.Tick)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "Puerto Montt", cfg.Shop.DefaultCity)
}

func TestLoadRejectsInvalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()
	viper.Set("notify.driver", "kafka")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify.driver")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SUSHIKOI_TEST_DOTENV=hello\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("SUSHIKOI_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "hello", os.Getenv("SUSHIKOI_TEST_DOTENV"))
}
