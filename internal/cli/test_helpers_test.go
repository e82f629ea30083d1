package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/fedibtc/fedicore/internal/config"
)

// resetCommandState restores every flag variable and command context and
// points the CLI at a fresh home directory. Cobra keeps flag values between
// executions, and a subcommand keeps the context of the first execution
// that reached it.
func resetCommandState(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	for _, env := range []string{
		config.EnvBridgeURL, config.EnvFederationID, config.EnvNetwork,
		config.EnvOutputFormat, config.EnvVerbose, config.EnvLogLevel,
	} {
		t.Setenv(env, "")
	}

	homeDir, outputFormat, verbose = "", "auto", false
	parseFederation, parseOrdered, parseOffline, parseQR, parseTimeout = "", false, false, false, 30*time.Second
	multispendFile, multispendUser, multispendFilter = "", "", "all"
	configForce, versionCheck = false, false
	cfg, logManager, formatter = nil, nil, nil

	walkCommands(rootCmd, func(cmd *cobra.Command) {
		cmd.SetContext(context.Background())
		if f := cmd.Flags().Lookup("help"); f != nil {
			_ = f.Value.Set("false")
		}
	})
	return home
}

// runCommand executes the CLI with args and stdin and returns stdout and
// stderr.
func runCommand(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	cleanup()
	return stdout.String(), stderr.String(), err
}

// executeCommand resets state and runs the CLI with empty stdin.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetCommandState(t)
	return runCommand(t, strings.NewReader(""), args...)
}

// writeFile writes content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
