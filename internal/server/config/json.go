package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophdrive/internal/flagx"
	"github.com/dmitrijs2005/gophdrive/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted. Pointer
// and zero-valued fields that are absent from the file leave the current
// value untouched.
type JsonConfig struct {
	EndpointAddrGRPC  string          `json:"endpoint_addr_grpc"`
	DatabaseDSN       string          `json:"database_dsn"`
	SecretKey         string          `json:"secret_key"`
	S3RootUser        string          `json:"s3_root_user"`
	S3RootPassword    string          `json:"s3_root_password"`
	S3Bucket          string          `json:"s3_bucket"`
	S3Region          string          `json:"s3_region"`
	S3BaseEndpoint    string          `json:"s3_base_endpoint"`
	UploadURLValidity *timex.Duration `json:"upload_url_validity"`
	RedisAddr         string          `json:"redis_addr"`
	ListingCacheTTL   *timex.Duration `json:"listing_cache_ttl"`
	TxMaxRetries      *int            `json:"tx_max_retries"`
	LogBackend        string          `json:"log_backend"`
	LogLevel          string          `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config onto
// config. Nothing happens when no file is given; an unreadable or invalid
// file panics, since the server cannot start with a half-applied config.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JSONConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)

	if c.UploadURLValidity != nil {
		config.UploadURLValidity = c.UploadURLValidity.Duration
	}
	if c.ListingCacheTTL != nil {
		config.ListingCacheTTL = c.ListingCacheTTL.Duration
	}
	if c.TxMaxRetries != nil {
		config.TxMaxRetries = *c.TxMaxRetries
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
