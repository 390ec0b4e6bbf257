package feed

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/pkg/errors"
)

const defaultHookTimeout = time.Minute

// ExecHook is a command to run after a refresh merged new episodes
type ExecHook struct {
	Command []string `toml:"command"`
	// Timeout in seconds, zero means one minute
	Timeout int `toml:"timeout"`
}

// Invoke runs the hook with env appended to the process environment.
// A single element command is passed to the shell.
func (h *ExecHook) Invoke(ctx context.Context, env []string) error {
	if h == nil {
		return nil
	}

	if len(h.Command) == 0 {
		return errors.New("hook command is empty")
	}

	timeout := defaultHookTimeout
	if h.Timeout > 0 {
		timeout = time.Duration(h.Timeout) * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if len(h.Command) == 1 {
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", h.Command[0])
	} else {
		cmd = exec.CommandContext(ctx, h.Command[0], h.Command[1:]...)
	}

	cmd.Env = append(os.Environ(), env...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "hook execution failed, output: %s", output)
	}

	return nil
}
