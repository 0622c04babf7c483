// Package config handles configuration for notevault, including defaults,
// JSON overlay, and command-line flags.
package config

import (
	"time"

	"github.com/dmitrijs2005/notevault/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings.
//
// Fields:
//   - DatabaseDSN: postgres:// URL (pgx) or a SQLite file path.
//   - MediaBackend: "fs" (files under MediaDir) or "s3".
//   - S3*: S3-compatible object storage settings, used when MediaBackend is "s3".
//   - ExternalID: chat identity used by the terminal transport.
//   - ExportDir: where the terminal transport writes delivered attachments.
//   - LogBackend / LogLevel: "zap" or "slog"; debug, info, warn or error.
//   - MetricsAddr: bind address for /metrics and /healthz; empty disables it.
type Config struct {
	DatabaseDSN      string
	MediaBackend     string
	MediaDir         string
	S3RootUser       string
	S3RootPassword   string
	S3Bucket         string
	S3Region         string
	S3BaseEndpoint   string
	S3Prefix         string
	ExternalID       int64
	ExportDir        string
	LogBackend       string
	LogLevel         string
	MetricsAddr      string
	BcryptCost       int
	MaxSearchResults int
	BatchSize        int
	ShutdownTimeout  time.Duration
}

const (
	MediaBackendFS = "fs"
	MediaBackendS3 = "s3"
)

// LoadDefaults populates Config with local single-user defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "notevault.db"
	c.MediaBackend = MediaBackendFS
	c.MediaDir = "media"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "vault"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3Prefix = "media/"
	c.ExternalID = 1
	c.ExportDir = "exports"
	c.LogBackend = "zap"
	c.LogLevel = "info"
	c.MetricsAddr = ""
	c.BcryptCost = bcrypt.DefaultCost
	c.MaxSearchResults = common.MaxSearchResults
	c.BatchSize = common.BatchSize
	c.ShutdownTimeout = 5 * time.Second
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
