package garmin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"

	"github.com/fitbridge/fitbridge/pkg/apperrors"
)

// syncArgs is the fixed argument set: download and import activity data,
// analyze it, and only fetch what is newer than the last sync.
var syncArgs = []string{"--activities", "--download", "--import", "--analyze", "--latest"}

// SyncResult captures one completed tool invocation.
type SyncResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ProcessError is returned when the tool ran but exited non-zero. The
// captured streams stay server-side; handlers must not expose them.
type ProcessError struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("sync tool exited with code %d", e.ExitCode)
}

// Runner invokes the external sync tool as a subprocess.
type Runner struct {
	pythonBin string
	module    string
	workDir   string
	timeout   time.Duration
}

// NewRunner creates a Runner. timeout zero means no execution bound.
func NewRunner(pythonBin, module, workDir string, timeout time.Duration) *Runner {
	return &Runner{pythonBin: pythonBin, module: module, workDir: workDir, timeout: timeout}
}

// Run launches the tool and blocks until it exits or the timeout elapses.
// Stdout and stderr are captured in full, not streamed. One attempt, no
// retries. Outcomes map to:
//   - exit 0: (*SyncResult, nil)
//   - non-zero exit: apperrors-compatible *ProcessError with streams
//   - deadline exceeded: apperrors.ErrSyncTimeout
//   - interpreter or module runner missing: apperrors.ErrToolNotFound
func (r *Runner) Run(ctx context.Context) (*SyncResult, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := append([]string{"-m", r.module}, syncArgs...)
	cmd := exec.CommandContext(ctx, r.pythonBin, args...)
	cmd.Dir = r.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return &SyncResult{ExitCode: 0, Stdout: stdout.String(), Stderr: stderr.String()}, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w after %s", apperrors.ErrSyncTimeout, r.timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, &ProcessError{
			ExitCode: exitErr.ExitCode(),
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}
	}

	// The command never started. A missing interpreter is a deployment
	// problem, distinct from the tool itself failing.
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrToolNotFound, r.pythonBin)
	}
	return nil, fmt.Errorf("starting sync tool: %w", err)
}
