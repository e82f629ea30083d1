package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// Subsystem tags used by the packages that log.
const (
	SubsystemParser = "PRSR"
	SubsystemLNURL  = "LNRL"
	SubsystemBridge = "BRDG"
	SubsystemCLI    = "CLI "
)

// ParseLogLevel parses a log level string. "none" is accepted as an alias
// for "off". The boolean is false for unrecognised input.
func ParseLogLevel(s string) (btclog.Level, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "none" {
		return btclog.LevelOff, true
	}
	return btclog.LevelFromString(s)
}

// LogManager owns the logging backend and hands out subsystem loggers.
type LogManager struct {
	mu      sync.Mutex
	backend *btclog.Backend
	rotator *rotator.Rotator
	level   btclog.Level
	loggers map[string]btclog.Logger
}

// NewLogManager creates the backend described by cfg. When verbose is set
// log lines are also copied to stderr.
func NewLogManager(cfg LoggingConfig, verbose bool, stderr io.Writer) (*LogManager, error) {
	level, ok := ParseLogLevel(cfg.Level)
	if !ok {
		level = btclog.LevelWarn
	}
	if verbose && level > btclog.LevelDebug {
		level = btclog.LevelDebug
	}

	m := &LogManager{
		level:   level,
		loggers: make(map[string]btclog.Logger),
	}

	var writers []io.Writer
	if level != btclog.LevelOff && cfg.File != "" {
		path := ExpandHome(cfg.File)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, err
		}

		maxRolls := cfg.MaxRolls
		if maxRolls <= 0 {
			maxRolls = 3
		}
		r, err := rotator.New(path, cfg.MaxSizeKB, false, maxRolls)
		if err != nil {
			return nil, err
		}
		m.rotator = r
		writers = append(writers, r)
	}
	if verbose && stderr != nil {
		writers = append(writers, stderr)
	}

	switch len(writers) {
	case 0:
		m.backend = btclog.NewBackend(io.Discard)
	case 1:
		m.backend = btclog.NewBackend(writers[0])
	default:
		m.backend = btclog.NewBackend(io.MultiWriter(writers...))
	}

	return m, nil
}

// Logger returns the logger for a subsystem, creating it on first use.
func (m *LogManager) Logger(subsystem string) btclog.Logger {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.loggers[subsystem]; ok {
		return l
	}

	l := m.backend.Logger(subsystem)
	l.SetLevel(m.level)
	m.loggers[subsystem] = l
	return l
}

// SetLevel changes the level of every subsystem logger.
func (m *LogManager) SetLevel(level btclog.Level) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.level = level
	for _, l := range m.loggers {
		l.SetLevel(level)
	}
}

// Level returns the current log level.
func (m *LogManager) Level() btclog.Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// Close flushes and closes the log file.
func (m *LogManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rotator != nil {
		err := m.rotator.Close()
		m.rotator = nil
		return err
	}
	return nil
}

// NullLogManager returns a manager whose loggers discard all output.
func NullLogManager() *LogManager {
	return &LogManager{
		backend: btclog.NewBackend(io.Discard),
		level:   btclog.LevelOff,
		loggers: make(map[string]btclog.Logger),
	}
}
