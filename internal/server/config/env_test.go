package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_Variables(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	chdir(t, t.TempDir())

	t.Setenv("VIDHUB_HTTP_ADDRESS", ":9999")
	t.Setenv("VIDHUB_ACCESS_TOKEN_TTL", "30s")
	t.Setenv("VIDHUB_MAX_UPLOAD_BYTES", "1024")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9999", cfg.HTTPAddress)
	assert.Equal(t, 30*time.Second, cfg.AccessTokenValidityDuration)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, "media", cfg.S3Bucket, "unset variables keep defaults")
}

func TestParseEnv_DotEnvFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	envFile := filepath.Join(dir, "vidhub.env")
	require.NoError(t, os.WriteFile(envFile, []byte("VIDHUB_S3_BUCKET=avatars\nVIDHUB_LOG_FORMAT=json\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("VIDHUB_S3_BUCKET")
		_ = os.Unsetenv("VIDHUB_LOG_FORMAT")
	})
	t.Setenv("VIDHUB_LOG_FORMAT", "text")

	os.Args = []string{"testbin", "-envfile", envFile}

	cfg := &Config{}
	parseEnv(cfg)

	assert.Equal(t, "avatars", cfg.S3Bucket)
	assert.Equal(t, "text", cfg.LogFormat, "real environment wins over .env")
}

func TestParseEnv_ExplicitMissingFilePanics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-envfile", filepath.Join(t.TempDir(), "nope.env")}

	require.Panics(t, func() { parseEnv(&Config{}) })
}

func TestParseEnv_BadValuePanics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	chdir(t, t.TempDir())
	t.Setenv("VIDHUB_ACCESS_TOKEN_TTL", "forever")

	require.Panics(t, func() { parseEnv(&Config{}) })
}
