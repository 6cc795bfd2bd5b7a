package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"pictor/internal/config"
)

// Runner abstracts external tool execution for testability.
type Runner interface {
	Run(ctx context.Context, binary string, args ...string) error
}

// ExecRunner invokes binaries as blocking subprocesses, capturing stderr
// into any failure. A non-zero Timeout bounds each invocation; on expiry
// the returned error wraps context.DeadlineExceeded so callers can revert
// status exactly as for any other failure.
type ExecRunner struct {
	Timeout time.Duration
}

// New builds an ExecRunner from the configured tool timeout.
func New(cfg *config.Config) ExecRunner {
	var timeout time.Duration
	if cfg != nil && cfg.Tools.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Tools.TimeoutSeconds) * time.Second
	}
	return ExecRunner{Timeout: timeout}
}

func (r ExecRunner) Run(ctx context.Context, binary string, args ...string) error {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return errors.New("binary not configured")
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, binary, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runErr := runCtx.Err(); errors.Is(runErr, context.DeadlineExceeded) {
			return fmt.Errorf("%s timed out after %s: %w", binary, r.Timeout, runErr)
		}
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return fmt.Errorf("%s: %w: %s", binary, err, detail)
		}
		return fmt.Errorf("%s: %w", binary, err)
	}
	return nil
}
