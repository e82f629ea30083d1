package config

// DefaultBridgeTimeoutSeconds bounds a single bridge RPC round-trip.
const DefaultBridgeTimeoutSeconds = 15

// DefaultLNURLTimeoutSeconds bounds LNURL parameter resolution. The
// classifier imposes no timeout of its own, so the caller's budget is this.
const DefaultLNURLTimeoutSeconds = 10

// defaultHomePrefix is how file settings in Defaults refer to the home directory.
const defaultHomePrefix = "~/.fedicore/"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.fedicore",
		Network: "mainnet",
		Bridge: BridgeConfig{
			URL:            "",
			TimeoutSeconds: DefaultBridgeTimeoutSeconds,
		},
		LNURL: LNURLConfig{
			TimeoutSeconds: DefaultLNURLTimeoutSeconds,
			RatePerSecond:  2,
			Burst:          4,
			AllowHTTPOnion: true,
		},
		Parser: ParserConfig{
			Precedence: "race",
		},
		Cache: CacheConfig{
			ProfileTTLMinutes: 30,
			File:              "~/.fedicore/profiles.json",
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level:     "warn",
			File:      "~/.fedicore/fedicore.log",
			MaxSizeKB: 10 * 1024,
			MaxRolls:  3,
		},
	}
}
