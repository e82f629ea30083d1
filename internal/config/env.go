package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome         = "FEDICORE_HOME"
	EnvBridgeURL    = "FEDICORE_BRIDGE_URL"
	EnvFederationID = "FEDICORE_FEDERATION_ID"
	EnvNetwork      = "FEDICORE_NETWORK"
	EnvOutputFormat = "FEDICORE_OUTPUT_FORMAT"
	EnvVerbose      = "FEDICORE_VERBOSE"
	EnvLogLevel     = "FEDICORE_LOG_LEVEL"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvBridgeURL); v != "" {
		cfg.Bridge.URL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvFederationID); v != "" {
		cfg.Bridge.FederationID = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvNetwork); v != "" {
		cfg.Network = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL cleans a URL string by removing invalid characters and trimming whitespace.
// Bridge endpoints are frequently pasted from terminals with trailing artifacts.
func SanitizeURL(url string) string {
	return sanitize.URL(strings.TrimSpace(url))
}
