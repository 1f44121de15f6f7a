package executor

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanceccraig/Tooling.DevOps/errs"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	requireShell(t)

	var stdout bytes.Buffer
	c := New(nil, WithStdout(&stdout), WithStderr(&bytes.Buffer{}))

	err := c.Run(context.Background(), "sh", []string{"-c", "echo $GREETING; pwd"},
		WithEnv("GREETING", "hello"), WithWorkingDir(t.TempDir()))
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "hello\n")
}

func TestRunExitCode(t *testing.T) {
	requireShell(t)

	c := New(nil, WithStdout(&bytes.Buffer{}), WithStderr(&bytes.Buffer{}))
	err := c.Run(context.Background(), "sh", []string{"-c", "exit 3"})
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, `sh -c "exit 3"`, exitErr.Command)
	assert.True(t, IsExitError(err))
	assert.Equal(t, errs.CodeExecutionFailed, errs.CodeOf(err))
}

func TestRunMissingProgram(t *testing.T) {
	c := New(nil)
	err := c.Run(context.Background(), "definitely-not-a-real-program-xyz", nil)
	require.Error(t, err)
	assert.False(t, IsExitError(err))
	assert.Equal(t, errs.CodeExecutionFailed, errs.CodeOf(err))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "plain", args: []string{"build", "-c", "Release"}, want: "dotnet build -c Release"},
		{name: "spaces quoted", args: []string{"test", "tests/My Project"}, want: `dotnet test "tests/My Project"`},
		{name: "empty quoted", args: []string{""}, want: `dotnet ""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format("dotnet", tt.args))
		})
	}
}

func TestRecorder(t *testing.T) {
	var echo bytes.Buffer
	rec := &Recorder{Echo: &echo}

	require.NoError(t, rec.Run(context.Background(), "dotnet", []string{"build"}, WithWorkingDir("/repo")))
	assert.Equal(t, []Call{{Name: "dotnet", Args: []string{"build"}, Dir: "/repo"}}, rec.Calls())
	assert.Equal(t, "dotnet build\n", echo.String())

	rec.Fail = func(c Call) error { return &ExitError{Command: c.Line(), Code: 1} }
	err := rec.Run(context.Background(), "dotnet", []string{"test"})
	assert.True(t, IsExitError(err))
	assert.Equal(t, []string{"dotnet build", "dotnet test"}, rec.Lines())
}
