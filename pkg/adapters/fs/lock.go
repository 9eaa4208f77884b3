package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrLocked is returned when the state lock cannot be acquired in time.
var ErrLocked = errors.New("state is locked by another process")

// lockPollInterval is the delay between two lock attempts.
const lockPollInterval = 10 * time.Millisecond

// Lock acquires the advisory state lock ({systemDir}/state.lock).
// It blocks until the lock is acquired, ctx is done or the configured
// LockTimeout elapses. The returned function releases the lock.
//
// The core never takes this lock; callers that run one load-mutate-save cycle
// per process (the CLI) hold it for the whole cycle.
func (r *Repository) Lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(r.lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	if r.config.LockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.LockTimeout)
		defer cancel()
	}

	for {
		// Try to create lock file atomically
		f, err := os.OpenFile(r.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
			f.Close()
			if r.config.Logger != nil {
				r.config.Logger.Debug("state lock acquired", "path", r.lockPath)
			}
			return func() {
				os.Remove(r.lockPath)
				if r.config.Logger != nil {
					r.config.Logger.Debug("state lock released", "path", r.lockPath)
				}
			}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrLocked, r.lockPath)
		case <-time.After(lockPollInterval):
		}
	}
}
