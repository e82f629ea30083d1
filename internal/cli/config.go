package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"

	"github.com/fedibtc/fedicore/internal/config"
	"github.com/fedibtc/fedicore/internal/output"
	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

// maxKeySuggestionDistance is the largest edit distance at which an unknown
// key gets a "did you mean" suggestion.
const maxKeySuggestionDistance = 3

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage configuration",
	Long:    `View and modify fedicore configuration settings.`,
	GroupID: groupConfig,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.fedicore/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.`,
	Example: `  fedicore config init
  fedicore config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration: the config file merged with
environment overrides and command-line flags.`,
	Example: `  fedicore config show
  fedicore config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value by its path.

The path uses dot notation to navigate the configuration tree.`,
	Example: `  fedicore config get bridge.url
  fedicore config get parser.precedence`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value by its path.

The path uses dot notation to navigate the configuration tree. The
configuration file is updated immediately; values that would leave it
invalid are refused.`,
	Example: `  fedicore config set bridge.url ws://127.0.0.1:8080/rpc
  fedicore config set parser.precedence ordered
  fedicore config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configGetCmd, configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

// configKey binds a dot path to a config field.
type configKey struct {
	path string
	get  func(c *config.Config) string
	set  func(c *config.Config, v string) error
}

// configKeys lists every settable path in display order.
//
//nolint:gochecknoglobals // Static lookup table
var configKeys = []configKey{
	{"home", func(c *config.Config) string { return c.Home }, setString(func(c *config.Config) *string { return &c.Home })},
	{"network", func(c *config.Config) string { return c.Network }, setLower(func(c *config.Config) *string { return &c.Network })},

	{"bridge.url", func(c *config.Config) string { return c.Bridge.URL }, func(c *config.Config, v string) error {
		c.Bridge.URL = config.SanitizeURL(v)
		return nil
	}},
	{"bridge.timeout_seconds", func(c *config.Config) string { return strconv.Itoa(c.Bridge.TimeoutSeconds) }, setInt(func(c *config.Config) *int { return &c.Bridge.TimeoutSeconds })},
	{"bridge.federation_id", func(c *config.Config) string { return c.Bridge.FederationID }, setString(func(c *config.Config) *string { return &c.Bridge.FederationID })},

	{"lnurl.timeout_seconds", func(c *config.Config) string { return strconv.Itoa(c.LNURL.TimeoutSeconds) }, setInt(func(c *config.Config) *int { return &c.LNURL.TimeoutSeconds })},
	{"lnurl.rate_per_second", func(c *config.Config) string {
		return strconv.FormatFloat(c.LNURL.RatePerSecond, 'f', -1, 64)
	}, func(c *config.Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return invalidValue(v, "a number")
		}
		c.LNURL.RatePerSecond = f
		return nil
	}},
	{"lnurl.burst", func(c *config.Config) string { return strconv.Itoa(c.LNURL.Burst) }, setInt(func(c *config.Config) *int { return &c.LNURL.Burst })},
	{"lnurl.allow_http_onion", func(c *config.Config) string { return strconv.FormatBool(c.LNURL.AllowHTTPOnion) }, setBool(func(c *config.Config) *bool { return &c.LNURL.AllowHTTPOnion })},

	{"parser.precedence", func(c *config.Config) string { return c.Parser.Precedence }, setLower(func(c *config.Config) *string { return &c.Parser.Precedence })},

	{"cache.profile_ttl_minutes", func(c *config.Config) string { return strconv.Itoa(c.Cache.ProfileTTLMinutes) }, setInt(func(c *config.Config) *int { return &c.Cache.ProfileTTLMinutes })},
	{"cache.file", func(c *config.Config) string { return c.Cache.File }, setString(func(c *config.Config) *string { return &c.Cache.File })},

	{"output.default_format", func(c *config.Config) string { return c.Output.DefaultFormat }, setLower(func(c *config.Config) *string { return &c.Output.DefaultFormat })},
	{"output.verbose", func(c *config.Config) string { return strconv.FormatBool(c.Output.Verbose) }, setBool(func(c *config.Config) *bool { return &c.Output.Verbose })},

	{"logging.level", func(c *config.Config) string { return c.Logging.Level }, setLower(func(c *config.Config) *string { return &c.Logging.Level })},
	{"logging.file", func(c *config.Config) string { return c.Logging.File }, setString(func(c *config.Config) *string { return &c.Logging.File })},
	{"logging.max_size_kb", func(c *config.Config) string { return strconv.FormatInt(c.Logging.MaxSizeKB, 10) }, func(c *config.Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return invalidValue(v, "a non-negative integer")
		}
		c.Logging.MaxSizeKB = n
		return nil
	}},
	{"logging.max_rolls", func(c *config.Config) string { return strconv.Itoa(c.Logging.MaxRolls) }, setInt(func(c *config.Config) *int { return &c.Logging.MaxRolls })},
}

func setString(field func(*config.Config) *string) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		*field(c) = strings.TrimSpace(v)
		return nil
	}
}

func setLower(field func(*config.Config) *string) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		*field(c) = strings.ToLower(strings.TrimSpace(v))
		return nil
	}
}

func setInt(field func(*config.Config) *int) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return invalidValue(v, "a non-negative integer")
		}
		*field(c) = n
		return nil
	}
}

func setBool(field func(*config.Config) *bool) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return invalidValue(v, "true or false")
		}
		*field(c) = b
		return nil
	}
}

func invalidValue(v, want string) error {
	return fedierr.WithDetails(fedierr.ErrInvalidFormat, map[string]string{"value": v, "valid": want})
}

// lookupConfigKey finds path, suggesting the nearest known key on a miss.
func lookupConfigKey(path string) (configKey, error) {
	path = strings.ToLower(strings.TrimSpace(path))
	for _, k := range configKeys {
		if k.path == path {
			return k, nil
		}
	}

	err := fedierr.WithDetails(fedierr.ErrUnknownConfigKey, map[string]string{"path": path})
	if s := suggestConfigKey(path); s != "" {
		err = fedierr.WithSuggestion(err, fmt.Sprintf("did you mean '%s'?", s))
	}
	return configKey{}, err
}

// suggestConfigKey returns the known key closest to path, or "" when none
// is close enough.
func suggestConfigKey(path string) string {
	best, bestDist := "", maxKeySuggestionDistance+1
	for _, k := range configKeys {
		if d := levenshtein.ComputeDistance(path, k.path); d < bestDist {
			best, bestDist = k.path, d
		}
	}
	return best
}

// getConfigValue retrieves a value from the config using dot notation.
func getConfigValue(c *config.Config, path string) (string, error) {
	k, err := lookupConfigKey(path)
	if err != nil {
		return "", err
	}
	return k.get(c), nil
}

// setConfigValue sets a value using dot notation and rejects values that
// leave the configuration invalid.
func setConfigValue(c *config.Config, path, value string) error {
	k, err := lookupConfigKey(path)
	if err != nil {
		return err
	}
	if err := k.set(c, value); err != nil {
		return err
	}
	return c.Validate()
}

func configFields(c *config.Config) []output.Field {
	fields := make([]output.Field, 0, len(configKeys))
	for _, k := range configKeys {
		v := k.get(c)
		if v == "" {
			v = "(not set)"
		}
		fields = append(fields, output.Field{Name: k.path, Value: v})
	}
	return fields
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cfg.Home)

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return fedierr.WithSuggestion(
			fedierr.WithDetails(fedierr.ErrGeneral, map[string]string{"path": configPath}),
			"configuration already exists; use --force to overwrite",
		)
	}

	defaults := config.Defaults()
	defaults.SetHome(cfg.Home)
	if err := config.Save(defaults, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - bridge.url: websocket endpoint of the Fedimint bridge (empty decodes offline)")
	outln(w, "  - bridge.federation_id: active federation for BIP21 and fee quotes")
	outln(w, "  - network: mainnet, testnet, signet or regtest")
	outln(w, "  - parser.precedence: race or ordered")
	outln(w, "  - logging.level: off, error, warn, info, debug or trace")
	return nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	return formatter.PrintFields(configFields(cfg))
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, err := getConfigValue(cfg, args[0])
	if err != nil {
		return err
	}
	outln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, value := args[0], args[1]

	configPath := config.Path(cfg.Home)
	current, err := config.Load(configPath)
	if err != nil {
		current = config.Defaults()
		current.SetHome(cfg.Home)
	}

	if err := setConfigValue(current, path, value); err != nil {
		return err
	}
	if err := config.Save(current, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out(cmd.OutOrStdout(), "Set %s = %s\n", strings.ToLower(path), value)
	return nil
}
