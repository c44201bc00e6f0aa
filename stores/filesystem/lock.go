package filesystem

import (
	"context"
	"fmt"
	"json-storage/core"
	"os"
	"time"
)

// lockExclusive takes an exclusive advisory lock on f, polling until the
// lock is free, timeout elapses or ctx is done.
func lockExclusive(ctx context.Context, f *os.File, timeout, poll time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		ok, err := tryLock(f)
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", f.Name(), err)
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %s after %s", core.ErrLockTimeout, f.Name(), timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
