package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-d", "db", "-s", "access", "-k", "refresh",
				"-t", "15", "-r", "60", "-u", "user", "-p", "password", "-b", "bucket",
				"-g", "us-west-1", "-e", "http://endpoint", "-m", "http://cdn/media",
				"-o", "http://localhost:5173", "-l", "debug",
			},
			expected: &Config{
				HTTPAddress:                  "127.0.0.1:9090",
				DatabaseDSN:                  "db",
				AccessTokenSecret:            "access",
				RefreshTokenSecret:           "refresh",
				AccessTokenValidityDuration:  15 * time.Minute,
				RefreshTokenValidityDuration: 60 * time.Minute,
				S3RootUser:                   "user",
				S3RootPassword:               "password",
				S3Bucket:                     "bucket",
				S3Region:                     "us-west-1",
				S3BaseEndpoint:               "http://endpoint",
				S3PublicURL:                  "http://cdn/media",
				CORSOrigin:                   "http://localhost:5173",
				LogLevel:                     "debug",
			},
		},
		{
			name:        "non-numeric ttl",
			args:        []string{"cmd", "-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestParseFlags_KeepsSubMinuteTTLWhenFlagAbsent(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cmd", "-a", ":1"}

	config := &Config{AccessTokenValidityDuration: 30 * time.Second}
	parseFlags(config)

	assert.Equal(t, 30*time.Second, config.AccessTokenValidityDuration)
}
