package config

import (
	"alcyxob/coaching-plans/internal/domain"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "coaching_plans", cfg.Database.Name)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.False(t, cfg.S3.Enabled())
	assert.Equal(t, domain.LocaleSR, cfg.Locale.DefaultLocale())
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
server:
  address: ":9090"
database:
  driver: memory
jwt:
  secret: file-secret
  expiration: 30m
s3:
  bucket_name: catalog-images
  endpoint: http://localhost:9000
locale:
  default: en
`)
	t.Setenv("JWT_EXPIRATION", "2h")
	t.Setenv("S3_REGION", "eu-central-1")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiration)
	assert.True(t, cfg.S3.Enabled())
	assert.Equal(t, "eu-central-1", cfg.S3.Region)
	assert.Equal(t, domain.LocaleEN, cfg.Locale.DefaultLocale())
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "JWT_SECRET=dotenv-secret\nDATABASE_DRIVER=memory\n")
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("DATABASE_DRIVER")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-secret", cfg.JWT.Secret)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":  {},
		"unknown driver":  {"JWT_SECRET": "s", "DATABASE_DRIVER": "postgres"},
		"zero expiration": {"JWT_SECRET": "s", "JWT_EXPIRATION": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestLocaleDefaultFallsBack(t *testing.T) {
	assert.Equal(t, domain.LocaleRU, LocaleConfig{Default: " RU "}.DefaultLocale())
	assert.Equal(t, domain.LocaleSR, LocaleConfig{Default: "de"}.DefaultLocale())
	assert.Equal(t, domain.LocaleSR, LocaleConfig{}.DefaultLocale())
}
