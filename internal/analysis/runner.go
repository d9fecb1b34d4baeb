package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
)

// Runner executes an external command and returns its stdout. A non-zero
// exit must be reported as an external_tool error carrying stderr.
type Runner func(ctx context.Context, dir string, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return stdout.Bytes(), nil
	case errors.As(err, &exitErr):
		return nil, ferrors.ExternalToolError(fmt.Sprintf("%s failed with status %d", name, exitErr.ExitCode())).
			WithContext(ferrors.KeyCommand, strings.Join(append([]string{name}, args...), " ")).
			WithContext(ferrors.KeyStatus, exitErr.ExitCode()).
			WithContext(ferrors.KeyStderr, stderr.String()).
			Build()
	default:
		return nil, ferrors.WrapError(err, ferrors.CategoryExternalTool, fmt.Sprintf("failed to run %s", name)).
			UserAction().
			WithContext(ferrors.KeyCommand, name).
			Build()
	}
}
