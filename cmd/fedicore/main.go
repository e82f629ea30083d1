// Package main is the entry point for the fedicore CLI.
package main

import (
	"os"

	"github.com/fedibtc/fedicore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
