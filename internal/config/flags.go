package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/notevault/internal/flagx"
)

// parseFlags populates Config fields from short command-line flags.
//
//	-d string   database DSN (postgres:// URL or SQLite path)
//	-m string   media backend: fs or s3
//	-f string   media directory for the fs backend
//	-u/-p       S3 root user and password
//	-b/-g/-e    S3 bucket, region and base endpoint
//	-x int      external id of the terminal session
//	-o string   directory for delivered attachments
//	-k string   log backend: zap or slog
//	-l string   log level
//	-a string   metrics listen address
//	-n int      bcrypt cost
//	-s int      max search results delivered
//	-z int      batch size for bulk delivery
//	-t duration shutdown timeout
//
// Arguments naming other flags are skipped so flags of other components do
// not collide. Parse errors panic.
func parseFlags(config *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MediaBackend, "m", config.MediaBackend, "media backend (fs|s3)")
	fs.StringVar(&config.MediaDir, "f", config.MediaDir, "media directory")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.Int64Var(&config.ExternalID, "x", config.ExternalID, "external id")
	fs.StringVar(&config.ExportDir, "o", config.ExportDir, "attachment export directory")
	fs.StringVar(&config.LogBackend, "k", config.LogBackend, "log backend (zap|slog)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.MetricsAddr, "a", config.MetricsAddr, "metrics listen address")
	fs.IntVar(&config.BcryptCost, "n", config.BcryptCost, "bcrypt cost")
	fs.IntVar(&config.MaxSearchResults, "s", config.MaxSearchResults, "max search results")
	fs.IntVar(&config.BatchSize, "z", config.BatchSize, "bulk delivery batch size")
	fs.DurationVar(&config.ShutdownTimeout, "t", config.ShutdownTimeout, "shutdown timeout")

	if err := flagx.Parse(fs, os.Args[1:]); err != nil {
		panic(err)
	}
}
