package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophdrive/internal/flagx"
	"github.com/dmitrijs2005/gophdrive/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Missing keys
// leave the corresponding Config value untouched.
type JsonConfig struct {
	ServerEndpointAddr  string          `json:"server_endpoint_addr"`
	AccessToken         string          `json:"access_token"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JSONConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.AccessToken != "" {
		cfg.AccessToken = jc.AccessToken
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
}
