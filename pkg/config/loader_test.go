package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/moneylens/pkg/config"
)

type defaultsConfig struct {
	Driver   string `env:"TEST_STORAGE_DRIVER" envDefault:"mongo"`
	Port     int    `env:"TEST_HTTP_PORT" envDefault:"8080"`
	Redirect bool   `env:"TEST_REDIRECT_ENABLED" envDefault:"true"`
}

type singletonConfig struct {
	Value string `env:"TEST_SINGLETON_VALUE" envDefault:"first"`
}

type requiredConfig struct {
	Secret string `env:"TEST_REQUIRED_SECRET,required"`
}

type validatedConfig struct {
	Provider string `env:"TEST_VALIDATED_PROVIDER" envDefault:"stripe"`
	Key      string `env:"TEST_VALIDATED_KEY"`
}

func (c *validatedConfig) Validate() error {
	if c.Provider == "stripe" && c.Key == "" {
		return errors.New("TEST_VALIDATED_KEY is required for stripe")
	}
	return nil
}

type fileConfig struct {
	FromFile string `env:"TEST_FROM_FILE"`
}

// These tests mutate process environment and the package cache, so they run serially.

func TestLoad_DefaultValues(t *testing.T) {
	config.ResetCache()

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "mongo", cfg.Driver)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.Redirect)
}

func TestLoad_FromEnvironment(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_STORAGE_DRIVER", "postgres")
	t.Setenv("TEST_HTTP_PORT", "9090")
	t.Setenv("TEST_REDIRECT_ENABLED", "false")

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, 9090, cfg.Port)
	assert.False(t, cfg.Redirect)
}

func TestLoad_Cached(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_SINGLETON_VALUE", "first")

	var a singletonConfig
	require.NoError(t, config.Load(&a))

	t.Setenv("TEST_SINGLETON_VALUE", "second")

	var b singletonConfig
	require.NoError(t, config.Load(&b))
	assert.Equal(t, "first", b.Value, "cached value must be returned")

	config.ResetCache()
	var c singletonConfig
	require.NoError(t, config.Load(&c))
	assert.Equal(t, "second", c.Value)
}

func TestLoad_Concurrent(t *testing.T) {
	config.ResetCache()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var cfg singletonConfig
			assert.NoError(t, config.Load(&cfg))
			assert.NotEmpty(t, cfg.Value)
		}()
	}
	wg.Wait()
}

func TestLoad_MissingRequired(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("TEST_REQUIRED_SECRET")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_Validator(t *testing.T) {
	t.Run("invalid", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("TEST_VALIDATED_KEY", "")

		var cfg validatedConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("valid", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("TEST_VALIDATED_KEY", "sk_test_123")

		var cfg validatedConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "sk_test_123", cfg.Key)
	})
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *defaultsConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestMustLoad(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("TEST_REQUIRED_SECRET")

	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("explicit file", func(t *testing.T) {
		config.ResetCache()
		os.Unsetenv("TEST_FROM_FILE")
		t.Cleanup(func() { os.Unsetenv("TEST_FROM_FILE") })

		path := filepath.Join(t.TempDir(), ".env.test")
		require.NoError(t, os.WriteFile(path, []byte("TEST_FROM_FILE=file_value\n"), 0o600))

		require.NoError(t, config.LoadEnv(path))

		var cfg fileConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "file_value", cfg.FromFile)
	})

	t.Run("environment wins over file", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("TEST_FROM_FILE", "env_value")

		path := filepath.Join(t.TempDir(), ".env.test")
		require.NoError(t, os.WriteFile(path, []byte("TEST_FROM_FILE=file_value\n"), 0o600))
		require.NoError(t, config.LoadEnv(path))

		var cfg fileConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "env_value", cfg.FromFile)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		err := config.LoadEnv(filepath.Join(t.TempDir(), "absent.env"))
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	})

	t.Run("default file is optional", func(t *testing.T) {
		assert.NoError(t, config.LoadEnv())
	})
}
