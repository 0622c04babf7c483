package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/notevault/internal/flagx"
	"github.com/dmitrijs2005/notevault/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Keys missing
// from the file keep the value already present in Config.
type JsonConfig struct {
	DatabaseDSN      string         `json:"database_dsn"`
	MediaBackend     string         `json:"media_backend"`
	MediaDir         string         `json:"media_dir"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	S3Prefix         string         `json:"s3_prefix"`
	ExternalID       int64          `json:"external_id"`
	ExportDir        string         `json:"export_dir"`
	LogBackend       string         `json:"log_backend"`
	LogLevel         string         `json:"log_level"`
	MetricsAddr      string         `json:"metrics_addr"`
	BcryptCost       int            `json:"bcrypt_cost"`
	MaxSearchResults int            `json:"max_search_results"`
	BatchSize        int            `json:"batch_size"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		DatabaseDSN:      c.DatabaseDSN,
		MediaBackend:     c.MediaBackend,
		MediaDir:         c.MediaDir,
		S3RootUser:       c.S3RootUser,
		S3RootPassword:   c.S3RootPassword,
		S3Bucket:         c.S3Bucket,
		S3Region:         c.S3Region,
		S3BaseEndpoint:   c.S3BaseEndpoint,
		S3Prefix:         c.S3Prefix,
		ExternalID:       c.ExternalID,
		ExportDir:        c.ExportDir,
		LogBackend:       c.LogBackend,
		LogLevel:         c.LogLevel,
		MetricsAddr:      c.MetricsAddr,
		BcryptCost:       c.BcryptCost,
		MaxSearchResults: c.MaxSearchResults,
		BatchSize:        c.BatchSize,
		ShutdownTimeout:  timex.Duration{Duration: c.ShutdownTimeout},
	}
}

// parseJson overlays the file named by -c/-config onto config. Without the
// flag nothing is loaded. Unreadable or invalid files panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.DatabaseDSN = c.DatabaseDSN
	config.MediaBackend = c.MediaBackend
	config.MediaDir = c.MediaDir
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.S3Prefix = c.S3Prefix
	config.ExternalID = c.ExternalID
	config.ExportDir = c.ExportDir
	config.LogBackend = c.LogBackend
	config.LogLevel = c.LogLevel
	config.MetricsAddr = c.MetricsAddr
	config.BcryptCost = c.BcryptCost
	config.MaxSearchResults = c.MaxSearchResults
	config.BatchSize = c.BatchSize
	config.ShutdownTimeout = c.ShutdownTimeout.Duration
}
