package model_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/CZERTAINLY/procawait/internal/launch"
	"github.com/CZERTAINLY/procawait/internal/model"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PROCAWAIT_HOME", "/home/procawait")
	yml := `
version: 0
verbose: true
drain_timeout: 1s
command:
  timeout: 30s
  dir: /tmp
  env:
    HOME: $PROCAWAIT_HOME
    LC_ALL: C
`
	cfg, err := model.LoadConfig(strings.NewReader(yml))
	require.NoError(t, err)
	require.True(t, cfg.Verbose)
	require.Equal(t, model.Duration(time.Second), cfg.DrainTimeout)
	require.Equal(t, model.Duration(30*time.Second), cfg.Command.Timeout)
	require.Equal(t, "/tmp", cfg.Command.Dir)

	env := cfg.Command.Environ()
	require.Equal(t, []string{"HOME=/home/procawait", "LC_ALL=C"}, env[len(env)-2:])

	t.Run("descriptor", func(t *testing.T) {
		d := cfg.Descriptor("sh", []string{"-c", "true"})
		require.Equal(t, "sh", d.Executable)
		require.Equal(t, []string{"-c", "true"}, d.ArgumentList)
		require.Equal(t, "/tmp", d.WorkingDir)
		require.Equal(t, 30*time.Second, d.Timeout)
		require.Equal(t, env, d.Env)
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := model.LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, model.DefaultConfig(), cfg)
	require.Equal(t, model.Duration(launch.DefaultDrainTimeout), cfg.DrainTimeout)
	require.Nil(t, cfg.Command.Environ())
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		given    string
	}{
		{"version", "version: 1"},
		{"duration", "drain_timeout: soon"},
		{"negative", "command:\n  timeout: -1s"},
		{"env", "command:\n  env:\n    \"A=B\": x"},
		{"env type", "command:\n  env:\n    A: [1]"},
		{"unknown field", "unknown: 1"},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			_, err := model.LoadConfig(strings.NewReader(tt.given))
			require.Error(t, err)
			require.ErrorIs(t, err, model.ErrConfig)

			details := model.CueErrDetails(err)
			require.NotEmpty(t, details)
			require.Equal(t, "procawait.yaml", details[0].Pos.Filename)
			require.Positive(t, details[0].Pos.Line)
			require.NotEmpty(t, details[0].Code)
		})
	}

	t.Run("all reported", func(t *testing.T) {
		t.Parallel()
		_, err := model.LoadConfig(strings.NewReader("version: 2\ncommand:\n  timeout: -1s"))
		require.ErrorIs(t, err, model.ErrConfig)
		details := model.CueErrDetails(err)
		lines := make([]int, 0, len(details))
		for _, d := range details {
			lines = append(lines, d.Pos.Line)
		}
		require.Contains(t, lines, 1)
		require.Contains(t, lines, 3)
	})

	t.Run("not a schema error", func(t *testing.T) {
		t.Parallel()
		require.Nil(t, model.CueErrDetails(model.ErrDuration))
	})
}

func TestStoreDefaultConfig(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, yaml.NewEncoder(&buf).Encode(model.DefaultConfig()))
	require.Contains(t, buf.String(), "drain_timeout: 250ms")

	cfg, err := model.LoadConfig(&buf)
	require.NoError(t, err)
	require.Equal(t, model.DefaultConfig(), cfg)
}
