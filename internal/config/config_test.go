package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing secret file aborts startup", func(t *testing.T) {
		t.Setenv("SECRET_KEY_FILE", filepath.Join(t.TempDir(), "absent.env"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("empty secret aborts startup", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secret.env")
		require.NoError(t, os.WriteFile(path, []byte("SECRET_KEY=\n"), 0o600))
		t.Setenv("SECRET_KEY_FILE", path)

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("secret and defaults are loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secret.env")
		require.NoError(t, os.WriteFile(path, []byte("SECRET_KEY=s3cr3t\n"), 0o600))
		t.Setenv("SECRET_KEY_FILE", path)
		t.Setenv("RUN_ADDRESS", "")
		t.Setenv("FAVORITES_VALIDATE_UPSTREAM", "")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "s3cr3t", cfg.JWTSecret)
		assert.Equal(t, ":8080", cfg.RunAddr)
		assert.True(t, cfg.ValidateFavorites)
	})

	t.Run("favorites validation can be disabled", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secret.env")
		require.NoError(t, os.WriteFile(path, []byte("SECRET_KEY=s3cr3t\n"), 0o600))
		t.Setenv("SECRET_KEY_FILE", path)
		t.Setenv("FAVORITES_VALIDATE_UPSTREAM", "false")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.ValidateFavorites)
	})
}
