package cli

import "github.com/btcsuite/btclog"

// log is the command logger. It stays disabled until initGlobals hands out
// the CLI subsystem logger.
var log btclog.Logger //nolint:gochecknoglobals // package logger

//nolint:gochecknoinits // logger must start disabled
func init() {
	DisableLog()
}

// DisableLog disables command log output.
func DisableLog() {
	log = btclog.Disabled
}

// UseLogger sets the command logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}
