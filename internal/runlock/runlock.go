// Package runlock serializes pipeline commands with a file lock so that
// cron-driven invocations cannot overlap on the same machine.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"pictor/internal/config"
)

// ErrHeld indicates another process holds the pipeline lock.
var ErrHeld = errors.New("another pictor process is running")

// Lock is a held pipeline lock.
type Lock struct {
	flock *flock.Flock
}

// Acquire takes the pipeline lock without blocking. It returns ErrHeld
// when another process already holds it.
func Acquire(cfg *config.Config) (*Lock, error) {
	path := filepath.Join(cfg.Paths.LogDir, "pictor.lock")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, ErrHeld
	}
	return &Lock{flock: fl}, nil
}

// Release drops the lock. Releasing a nil lock is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}
