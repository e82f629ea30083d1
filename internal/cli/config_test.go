package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedibtc/fedicore/internal/config"
	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

func TestConfigInit(t *testing.T) {
	home := resetCommandState(t)

	stdout, _, err := runCommand(t, strings.NewReader(""), "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration initialized")
	assert.FileExists(t, filepath.Join(home, "config.yaml"))

	_, _, err = runCommand(t, strings.NewReader(""), "config", "init")
	require.ErrorIs(t, err, fedierr.ErrGeneral)

	_, _, err = runCommand(t, strings.NewReader(""), "config", "init", "--force")
	require.NoError(t, err)
}

func TestConfigSetGet(t *testing.T) {
	home := resetCommandState(t)

	_, _, err := runCommand(t, strings.NewReader(""), "config", "set", "parser.precedence", "Ordered")
	require.NoError(t, err)

	stdout, _, err := runCommand(t, strings.NewReader(""), "config", "get", "parser.precedence")
	require.NoError(t, err)
	assert.Equal(t, "ordered", strings.TrimSpace(stdout))

	loaded, err := config.Load(config.Path(home))
	require.NoError(t, err)
	assert.Equal(t, "ordered", loaded.Parser.Precedence)
}

func TestConfigSet_Invalid(t *testing.T) {
	home := resetCommandState(t)

	_, _, err := runCommand(t, strings.NewReader(""), "config", "set", "network", "moonnet")
	require.ErrorIs(t, err, fedierr.ErrConfigInvalid)

	_, statErr := os.Stat(filepath.Join(home, "config.yaml"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestConfigGet_UnknownKeySuggests(t *testing.T) {
	_, _, err := executeCommand(t, "config", "get", "bridge.ulr")
	require.ErrorIs(t, err, fedierr.ErrUnknownConfigKey)

	var fe *fedierr.FediError
	require.True(t, fedierr.As(err, &fe))
	assert.Equal(t, "did you mean 'bridge.url'?", fe.Suggestion)
	assert.Equal(t, fedierr.ExitInput, ExitCode(err))
}

func TestConfigShow_JSON(t *testing.T) {
	stdout, _, err := executeCommand(t, "config", "show", "-o", "json")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "mainnet", got["network"])
	assert.Equal(t, "race", got["parser.precedence"])
	assert.Equal(t, "(not set)", got["bridge.url"])
	assert.Len(t, got, len(configKeys))
}

func TestConfigShow_EnvironmentOverrides(t *testing.T) {
	resetCommandState(t)
	t.Setenv(config.EnvNetwork, "signet")

	stdout, _, err := runCommand(t, strings.NewReader(""), "config", "get", "network")
	require.NoError(t, err)
	assert.Equal(t, "signet", strings.TrimSpace(stdout))
}

func TestSuggestConfigKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"netwrok", "network"},
		{"logging.levl", "logging.level"},
		{"cache.fil", "cache.file"},
		{"something.else.entirely", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, suggestConfigKey(tt.in))
		})
	}
}

func TestSetConfigValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		value   string
		check   func(t *testing.T, c *config.Config)
		wantErr error
	}{
		{
			name: "bridge url", path: "bridge.url", value: " ws://127.0.0.1:8080/rpc ",
			check: func(t *testing.T, c *config.Config) { assert.Equal(t, "ws://127.0.0.1:8080/rpc", c.Bridge.URL) },
		},
		{
			name: "rate", path: "lnurl.rate_per_second", value: "0.5",
			check: func(t *testing.T, c *config.Config) { assert.InDelta(t, 0.5, c.LNURL.RatePerSecond, 1e-9) },
		},
		{
			name: "bool", path: "lnurl.allow_http_onion", value: "false",
			check: func(t *testing.T, c *config.Config) { assert.False(t, c.LNURL.AllowHTTPOnion) },
		},
		{
			name: "upper case path", path: "Cache.Profile_TTL_Minutes", value: "5",
			check: func(t *testing.T, c *config.Config) { assert.Equal(t, 5, c.Cache.ProfileTTLMinutes) },
		},
		{name: "negative int", path: "bridge.timeout_seconds", value: "-1", wantErr: fedierr.ErrInvalidFormat},
		{name: "not a bool", path: "output.verbose", value: "sometimes", wantErr: fedierr.ErrInvalidFormat},
		{name: "zero burst", path: "lnurl.burst", value: "0", wantErr: fedierr.ErrConfigInvalid},
		{name: "bad level", path: "logging.level", value: "loud", wantErr: fedierr.ErrConfigInvalid},
		{name: "unknown", path: "bridge.password", value: "x", wantErr: fedierr.ErrUnknownConfigKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := config.Defaults()
			err := setConfigValue(c, tt.path, tt.value)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}
