// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the GophDrive server.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the public gRPC endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret shared with the identity provider for HS256 access tokens.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible blob store.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
//   - UploadURLValidity: lifetime of presigned upload URLs.
//   - RedisAddr: listing cache address. Empty disables the cache.
//   - ListingCacheTTL: lifetime of a cached children listing.
//   - TxMaxRetries: extra attempts for transactions aborted by serialization conflicts.
//   - LogBackend / LogLevel: "slog" or "zerolog", and the minimum level.
type Config struct {
	EndpointAddrGRPC  string
	DatabaseDSN       string
	SecretKey         string
	S3RootUser        string
	S3RootPassword    string
	S3Bucket          string
	S3Region          string
	S3BaseEndpoint    string
	UploadURLValidity time.Duration
	RedisAddr         string
	ListingCacheTTL   time.Duration
	TxMaxRetries      int
	LogBackend        string
	LogLevel          string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = ""
	c.EndpointAddrGRPC = ":50051"
	c.SecretKey = "secretKey"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "drive"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000"
	c.UploadURLValidity = 15 * time.Minute
	c.RedisAddr = ""
	c.ListingCacheTTL = 5 * time.Minute
	c.TxMaxRetries = 3
	c.LogBackend = "slog"
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
