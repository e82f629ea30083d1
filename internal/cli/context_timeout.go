package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// contextWithTimeout derives a context from the command's. A non-positive d
// sets no deadline; cancelling the command context still cancels it.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, d)
}
