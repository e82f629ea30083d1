// Package config provides configuration management for fedicore.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fedibtc/fedicore/internal/fileutil"
	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version int           `yaml:"version"`
	Home    string        `yaml:"home"`
	Network string        `yaml:"network"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	LNURL   LNURLConfig   `yaml:"lnurl"`
	Parser  ParserConfig  `yaml:"parser"`
	Cache   CacheConfig   `yaml:"cache"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// BridgeConfig defines how to reach the Fedimint bridge.
type BridgeConfig struct {
	// URL is the websocket endpoint of the bridge RPC. Empty means the
	// offline decoder is used.
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	FederationID   string `yaml:"federation_id"`
}

// LNURLConfig defines LNURL resolution settings.
type LNURLConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
	Burst          int     `yaml:"burst"`
	AllowHTTPOnion bool    `yaml:"allow_http_onion"`
}

// ParserConfig defines input classifier settings.
type ParserConfig struct {
	// Precedence is "race" (first match wins) or "ordered" (declared priority).
	Precedence string `yaml:"precedence"`
}

// CacheConfig defines display-name cache settings.
type CacheConfig struct {
	ProfileTTLMinutes int    `yaml:"profile_ttl_minutes"`
	File              string `yaml:"file"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"`
	MaxSizeKB int64  `yaml:"max_size_kb"`
	MaxRolls  int    `yaml:"max_rolls"`
}

// Valid values for enumerated settings.
//
//nolint:gochecknoglobals // Lookup tables for validation
var (
	validNetworks    = []string{"mainnet", "testnet", "signet", "regtest"}
	validPrecedences = []string{"race", "ordered"}
	validFormats     = []string{"text", "json", "auto"}
)

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fedierr.Wrap(fedierr.ErrConfigInvalid, "parsing %s: %v", path, err)
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DefaultHome returns the default fedicore home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fedicore"
	}
	return filepath.Join(home, ".fedicore")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// SetHome sets the data directory. File settings still pointing inside the
// default home are moved along with it.
func (c *Config) SetHome(home string) {
	c.Home = home
	c.Cache.File = rebase(c.Cache.File, home)
	c.Logging.File = rebase(c.Logging.File, home)
}

func rebase(path, home string) string {
	if rest, ok := strings.CutPrefix(path, defaultHomePrefix); ok {
		return filepath.Join(home, rest)
	}
	return path
}

// Validate checks enumerated settings and numeric bounds.
func (c *Config) Validate() error {
	if !contains(validNetworks, c.Network) {
		return fedierr.WithDetails(fedierr.ErrConfigInvalid, map[string]string{
			"network": c.Network,
			"valid":   strings.Join(validNetworks, ", "),
		})
	}
	if !contains(validPrecedences, c.Parser.Precedence) {
		return fedierr.WithDetails(fedierr.ErrConfigInvalid, map[string]string{
			"parser.precedence": c.Parser.Precedence,
			"valid":             strings.Join(validPrecedences, ", "),
		})
	}
	if !contains(validFormats, c.Output.DefaultFormat) {
		return fedierr.WithDetails(fedierr.ErrConfigInvalid, map[string]string{
			"output.default_format": c.Output.DefaultFormat,
			"valid":                 strings.Join(validFormats, ", "),
		})
	}
	if _, ok := ParseLogLevel(c.Logging.Level); !ok {
		return fedierr.WithDetails(fedierr.ErrConfigInvalid, map[string]string{
			"logging.level": c.Logging.Level,
		})
	}
	if c.LNURL.RatePerSecond <= 0 || c.LNURL.Burst <= 0 {
		return fedierr.WithDetails(fedierr.ErrConfigInvalid, map[string]string{
			"lnurl": fmt.Sprintf("rate %.2f burst %d", c.LNURL.RatePerSecond, c.LNURL.Burst),
		})
	}
	return nil
}

// IsOrdered reports whether the classifier should use declared priority.
func (c *Config) IsOrdered() bool {
	return c.Parser.Precedence == "ordered"
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
