package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fedibtc/fedicore/internal/output"
	"github.com/fedibtc/fedicore/internal/version"
	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	versionCheck bool

	// newVersionClient is replaced in tests.
	newVersionClient = func() *version.Client { return version.NewClient() }
)

// versionCmd prints build information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Show the fedicore version, commit and build platform. --check also
asks GitHub whether a newer release is available.`,
	Example: `  fedicore version
  fedicore version --check -o json`,
	Args:    cobra.NoArgs,
	GroupID: groupConfig,
	RunE:    runVersion,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
}

// versionResponse is the JSON shape of "version".
type versionResponse struct {
	version.Info
	Update *version.Update `json:"update,omitempty"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	resp := versionResponse{Info: version.Current()}

	if versionCheck {
		ctx, cancel := contextWithTimeout(cmd, 15*time.Second)
		defer cancel()

		up, err := newVersionClient().Check(ctx, resp.Version)
		if err != nil {
			return fedierr.Wrap(fedierr.ErrNetworkError, "checking for updates: %v", err)
		}
		resp.Update = up
	}

	if formatter.IsJSON() {
		return formatter.Print(resp)
	}

	fields := []output.Field{
		{Name: "Version", Value: resp.Version},
		{Name: "Platform", Value: resp.Platform},
		{Name: "Go", Value: resp.GoVersion},
	}
	if resp.Commit != "" {
		fields = append(fields, output.Field{Name: "Commit", Value: resp.Commit})
	}
	if resp.Date != "" {
		fields = append(fields, output.Field{Name: "Built", Value: resp.Date})
	}
	if err := formatter.PrintFields(fields); err != nil {
		return err
	}

	if up := resp.Update; up != nil {
		if up.Available {
			output.Warn(cmd.ErrOrStderr(), "fedicore %s is available: %s", up.Latest, up.URL)
		} else {
			outln(cmd.OutOrStdout(), "You are on the latest release.")
		}
	}
	return nil
}
