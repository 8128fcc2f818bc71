package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/CZERTAINLY/procawait/internal/model"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errb bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	err = cmd.Execute()
	return out.String(), errb.String(), err
}

func lookSh(t *testing.T) string {
	t.Helper()
	// an empty value disables the config file lookup
	t.Setenv(configEnv, "")
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skipf("skipped, binary sh not available: %v", err)
	}
	return sh
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var exitErr *exitCodeError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, code, exitErr.code)
}

func TestRun(t *testing.T) {
	sh := lookSh(t)
	stdout, stderr, err := execute(t, "run", "--", sh, "-c", "echo out; echo err 1>&2")
	require.NoError(t, err)
	require.Equal(t, "out\n", stdout)
	require.Equal(t, "err\n", stderr)
}

func TestRunArgs(t *testing.T) {
	sh := lookSh(t)
	stdout, _, err := execute(t, "run", "--args", `-c "echo Hello World"`, sh)
	require.NoError(t, err)
	require.Equal(t, "Hello World\n", stdout)

	t.Run("combined with positional", func(t *testing.T) {
		_, _, err := execute(t, "run", "--args", "-c true", sh, "-c", "true")
		require.Error(t, err)
	})
}

func TestRunEnvDir(t *testing.T) {
	sh := lookSh(t)
	dir := t.TempDir()
	stdout, _, err := execute(t, "run", "--dir", dir, "--env", "PROCAWAIT_TEST=42", "--", sh, "-c", `echo "$PROCAWAIT_TEST"; pwd -P`)
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	require.Equal(t, "42\n"+want+"\n", stdout)
}

func TestRunExitCode(t *testing.T) {
	sh := lookSh(t)
	_, _, err := execute(t, "run", "--", sh, "-c", "exit 3")
	requireExitCode(t, err, 3)
}

func TestRunTimeout(t *testing.T) {
	sh := lookSh(t)
	_, _, err := execute(t, "run", "--timeout", "100ms", "--", sh, "-c", "sleep 5")
	requireExitCode(t, err, exitCancelled)
}

func TestRunDrainDisabled(t *testing.T) {
	sh := lookSh(t)
	path := filepath.Join(t.TempDir(), "procawait.yaml")
	require.NoError(t, os.WriteFile(path, []byte("drain_timeout: 5s\n"), 0o600))

	start := time.Now()
	_, _, err := execute(t, "--config", path, "run", "--drain", "0", "--", sh, "-c", "sleep 2 & exit 0")
	require.NoError(t, err)
	require.Less(t, time.Since(start), 1500*time.Millisecond)
}

func TestRunNotFound(t *testing.T) {
	lookSh(t)
	_, _, err := execute(t, "run", "--", filepath.Join(t.TempDir(), "does-not-exist"))
	requireExitCode(t, err, exitStartFailed)
	var exitErr *exitCodeError
	require.ErrorAs(t, err, &exitErr)
	require.Error(t, exitErr.err)
}

func TestConfigFile(t *testing.T) {
	sh := lookSh(t)
	path := filepath.Join(t.TempDir(), "procawait.yaml")
	err := os.WriteFile(path, []byte("version: 0\ncommand:\n  timeout: 100ms\n  env:\n    PROCAWAIT_TEST: from-config\n"), 0o600)
	require.NoError(t, err)

	stdout, _, err := execute(t, "--config", path, "config")
	require.NoError(t, err)
	require.Contains(t, stdout, "# "+path)
	require.Contains(t, stdout, "timeout: 100ms")

	stdout, _, err = execute(t, "--config", path, "run", "--", sh, "-c", `echo "$PROCAWAIT_TEST"`)
	require.NoError(t, err)
	require.Equal(t, "from-config\n", stdout)

	_, _, err = execute(t, "--config", path, "run", "--", sh, "-c", "sleep 5")
	requireExitCode(t, err, exitCancelled)

	t.Run("invalid", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "procawait.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("version: 3\n"), 0o600))
		_, _, err := execute(t, "--config", bad, "config")
		require.ErrorIs(t, err, model.ErrConfig)
	})
}

func TestVersion(t *testing.T) {
	lookSh(t)
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, stdout, "procawait")
}
