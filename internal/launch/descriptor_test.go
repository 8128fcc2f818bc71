package launch_test

import (
	"testing"

	"github.com/CZERTAINLY/procawait/internal/launch"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	d := launch.Descriptor{
		Executable:   "sh",
		ArgumentList: []string{"-c", "true"},
		UseShell:     true,
		CreateWindow: true,
	}
	n := d.Normalize()
	require.True(t, n.RedirectOutput)
	require.True(t, n.RedirectError)
	require.False(t, n.UseShell)
	require.False(t, n.CreateWindow)

	// the caller's value stays as it was
	require.False(t, d.RedirectOutput)
	require.True(t, d.UseShell)
	n.ArgumentList[1] = "false"
	require.Equal(t, "true", d.ArgumentList[1])
}

func TestArgv(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		given    launch.Descriptor
		then     []string
	}{
		{"empty", launch.Descriptor{Executable: "true"}, nil},
		{"words", launch.Descriptor{Arguments: "Hello World"}, []string{"Hello", "World"}},
		{"quoted", launch.Descriptor{Arguments: `-c "echo Hello World 1>&2"`}, []string{"-c", "echo Hello World 1>&2"}},
		{"list wins", launch.Descriptor{Arguments: "ignored", ArgumentList: []string{"a b"}}, []string{"a b"}},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			argv, err := tt.given.Argv()
			require.NoError(t, err)
			require.Equal(t, tt.then, argv)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	err := launch.Descriptor{}.Validate()
	require.ErrorIs(t, err, launch.ErrNoExecutable)

	err = launch.Descriptor{Executable: "sh", Arguments: `-c "unterminated`}.Validate()
	require.ErrorIs(t, err, launch.ErrArguments)

	err = launch.Descriptor{Executable: "sh", Arguments: "-c true"}.Validate()
	require.NoError(t, err)
}

func TestStartErrorMessage(t *testing.T) {
	t.Parallel()
	err := &launch.StartError{Executable: "nope", Arguments: "-x", Err: launch.ErrNoExecutable}
	require.EqualError(t, err, `starting "nope" with arguments "-x": executable path is empty`)
	require.ErrorIs(t, err, launch.ErrStart)
	require.ErrorIs(t, err, launch.ErrNoExecutable)
}
