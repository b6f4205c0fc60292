package destination

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked reports that another process is organizing the same destination.
var ErrLocked = errors.New("destination is locked by another run")

// Lock is an exclusive advisory lock on one destination.
type Lock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file used for root inside lockDir.
func LockPath(lockDir, root string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(root)))
	return filepath.Join(lockDir, hex.EncodeToString(sum[:8])+".lock")
}

// AcquireLock takes the lock for root without blocking.
func AcquireLock(lockDir, root string) (*Lock, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	path := LockPath(lockDir, root)
	l := &Lock{path: path, lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", root, ErrLocked)
	}
	return l, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock.
func (l *Lock) Release() error {
	return l.lock.Unlock()
}
