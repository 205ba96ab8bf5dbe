package config

import (
	"flag"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/finwise/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-t", "-l", "-k", "-f", "-w", "-u", "-p", "-b", "-g", "-e", "-o"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   token signing secret
//	-t int      access token validity, minutes
//	-l string   log level
//	-k string   log backend (logrus|slog)
//	-f string   log format (json|text)
//	-w int      shutdown timeout, seconds
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name (empty disables export)
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-o string   comma-separated CORS origins
//
// Args are filtered with flagx.FilterArgs first, so flags owned by other
// components (such as -c) do not break parsing.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogBackend, "k", config.LogBackend, "log backend (logrus|slog)")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format (json|text)")
	shutdownSeconds := fs.Int("w", int(config.ShutdownTimeout.Seconds()), "shutdown timeout (in seconds)")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	origins := fs.String("o", strings.Join(config.CORSAllowedOrigins, ","), "CORS allowed origins, comma-separated")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*tokenMinutes) * time.Minute
		case "w":
			config.ShutdownTimeout = time.Duration(*shutdownSeconds) * time.Second
		case "o":
			config.CORSAllowedOrigins = splitList(*origins)
		}
	})
	return nil
}
