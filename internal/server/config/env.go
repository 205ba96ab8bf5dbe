package config

import (
	"fmt"
	"os"
	"time"
)

var lookupEnv = os.LookupEnv

// parseEnv overlays values from FINWISE_* variables. The conventional
// DATABASE_URL, JWT_SECRET and PORT are honoured too; the FINWISE_ names
// win when both are set.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	dur := func(dst *time.Duration, key string) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	if port, ok := lookup("PORT"); ok && port != "" {
		config.EndpointAddrHTTP = ":" + port
	}
	str(&config.EndpointAddrHTTP, "FINWISE_ADDR")
	str(&config.DatabaseDSN, "FINWISE_DATABASE_DSN", "DATABASE_URL")
	str(&config.SecretKey, "FINWISE_SECRET_KEY", "JWT_SECRET")
	if err := dur(&config.AccessTokenValidityDuration, "FINWISE_ACCESS_TOKEN_TTL"); err != nil {
		return err
	}
	str(&config.LogLevel, "FINWISE_LOG_LEVEL", "LOG_LEVEL")
	str(&config.LogBackend, "FINWISE_LOG_BACKEND")
	str(&config.LogFormat, "FINWISE_LOG_FORMAT")
	if err := dur(&config.ShutdownTimeout, "FINWISE_SHUTDOWN_TIMEOUT"); err != nil {
		return err
	}
	str(&config.S3RootUser, "FINWISE_S3_ROOT_USER")
	str(&config.S3RootPassword, "FINWISE_S3_ROOT_PASSWORD")
	str(&config.S3Bucket, "FINWISE_S3_BUCKET")
	str(&config.S3Region, "FINWISE_S3_REGION")
	str(&config.S3BaseEndpoint, "FINWISE_S3_BASE_ENDPOINT")
	if v, ok := lookup("FINWISE_CORS_ORIGINS"); ok && v != "" {
		config.CORSAllowedOrigins = splitList(v)
	}
	return nil
}
