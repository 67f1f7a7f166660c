package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, Config{
		ServerEndpointAddr:  "127.0.0.1:50051",
		AccessToken:         "",
		OnlineCheckInterval: 3 * time.Second,
	}, c)
}

func TestLoadDefaults_OverwritesPreviousValues(t *testing.T) {
	c := Config{
		ServerEndpointAddr:  "drive.example:443",
		AccessToken:         "stale",
		OnlineCheckInterval: time.Minute,
	}
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Empty(t, c.AccessToken, "a token is never baked into defaults")
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	orig := os.Args
	os.Args = []string{"client"}
	defer func() { os.Args = orig }()

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "127.0.0.1:50051", cfg.ServerEndpointAddr)
	assert.Empty(t, cfg.AccessToken)
	assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
}
