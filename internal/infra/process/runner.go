// Package process runs the external video generator as a child process.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"explainit-service/internal/domain"
)

// ExitError reports a generator run that finished with a non-zero status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("script exited with code %d", e.Code)
}

// ScriptRunner invokes `<python> <script> character1 character2 topic duration`
// inside the generation directory, passing its output through.
type ScriptRunner struct {
	Python string
	Script string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

func NewScriptRunner(python, script, dir string) *ScriptRunner {
	return &ScriptRunner{
		Python: python,
		Script: script,
		Dir:    dir,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (r *ScriptRunner) Run(ctx context.Context, req domain.GenerationRequest) error {
	cmd := exec.CommandContext(ctx, r.Python, r.Script,
		req.Character1, req.Character2, req.Topic, strconv.Itoa(req.Duration))
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("generator stopped: %w", ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("start generator: %w", err)
}
