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
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret",
			"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			"-t", "5", "-r", "localhost:6379", "-n", "7", "-l", "debug",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrGRPC:  "127.0.0.1:9090",
				DatabaseDSN:       "db",
				SecretKey:         "secret",
				S3RootUser:        "user",
				S3RootPassword:    "password",
				S3Bucket:          "bucket",
				S3Region:          "us-west-1",
				S3BaseEndpoint:    "http://endpoint",
				UploadURLValidity: 5 * time.Minute,
				RedisAddr:         "localhost:6379",
				TxMaxRetries:      7,
				LogLevel:          "debug",
			}},
		{name: "unrelated flags ignored", args: []string{"cmd", "-c", "cfg.json", "-x", "1"},
			expected: &Config{}},
		{name: "bad int panics", args: []string{"cmd", "-n", "many"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
