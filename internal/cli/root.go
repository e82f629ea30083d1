// Package cli implements the fedicore command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fedibtc/fedicore/internal/bridge"
	"github.com/fedibtc/fedicore/internal/config"
	"github.com/fedibtc/fedicore/internal/lnurl"
	"github.com/fedibtc/fedicore/internal/output"
	"github.com/fedibtc/fedicore/internal/parser"
	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

// Command group ids.
const (
	groupClassify   = "classify"
	groupMultispend = "multispend"
	groupConfig     = "config"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg        *config.Config
	logManager *config.LogManager
	formatter  *output.Formatter
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "fedicore",
	Short: "Classify Fedi payment inputs and inspect multispend rooms",
	Long: `fedicore recognizes anything a Fedi user might paste or scan: lightning
invoices and offers, LNURLs and lightning addresses, bitcoin addresses and
BIP21 URIs, Cashu and Fedimint ecash, federation and community invites,
fedi: chat links and websites.

It also derives the status of multispend withdrawal requests and group
invitations from an exported room state.`,
	Example: `  fedicore parse lnbc10u1p3...
  fedicore parse alice@fedi.example --ordered
  fedicore multispend status --file room.json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command. An interrupt cancels the running command.
func Execute() error {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		if cmd != rootCmd {
			enrichParentLong(cmd)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(rootCmd.ErrOrStderr(), err, format)
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return fedierr.ExitCode(err)
}

// initGlobals loads configuration and sets up logging and the formatter.
// Precedence is flags, then environment, then the config file.
func initGlobals(cmd *cobra.Command) error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}
	home = config.ExpandHome(home)

	loaded, err := config.Load(config.Path(home))
	switch {
	case err == nil:
		cfg = loaded
	case errors.Is(err, fs.ErrNotExist):
		cfg = config.Defaults()
	default:
		return err
	}

	config.ApplyEnvironment(cfg)
	cfg.SetHome(home)

	if verbose {
		cfg.Output.Verbose = true
	}
	if outputFormat != "" && outputFormat != string(output.FormatAuto) {
		cfg.Output.DefaultFormat = outputFormat
	}

	if err := cfg.Validate(); err != nil {
		return fedierr.WithSuggestion(err,
			fmt.Sprintf("fix %s or run 'fedicore config init --force'", config.Path(home)))
	}

	logManager, err = config.NewLogManager(cfg.Logging, cfg.Output.Verbose, cmd.ErrOrStderr())
	if err != nil {
		output.Warn(cmd.ErrOrStderr(), "logging disabled: %v", err)
		logManager = config.NullLogManager()
	}
	useLoggers(logManager)

	formatter = output.NewFormatter(output.ParseFormat(cfg.Output.DefaultFormat), cmd.OutOrStdout())

	log.Debugf("home=%s network=%s precedence=%s bridge=%q",
		cfg.Home, cfg.Network, cfg.Parser.Precedence, cfg.Bridge.URL)
	return nil
}

// useLoggers hands each package its subsystem logger.
func useLoggers(m *config.LogManager) {
	parser.UseLogger(m.Logger(config.SubsystemParser))
	lnurl.UseLogger(m.Logger(config.SubsystemLNURL))
	bridge.UseLogger(m.Logger(config.SubsystemBridge))
	UseLogger(m.Logger(config.SubsystemCLI))
}

// cleanup releases resources.
func cleanup() {
	if logManager != nil {
		_ = logManager.Close()
	}
}

// out writes formatted output, ignoring write errors to the terminal.
func out(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// outln writes a line of output.
func outln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupClassify, Title: "Input Classification:"},
		&cobra.Group{ID: groupMultispend, Title: "Multispend:"},
		&cobra.Group{ID: groupConfig, Title: "Configuration:"},
	)
	rootCmd.SetHelpCommandGroupID(groupConfig)

	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "fedicore data directory (default: ~/.fedicore)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level to stderr")
}
