// Package lockfile guards a catalog against two sync runs writing it at the
// same time. The lock is advisory and lives next to the catalog as
// "<catalog>.lock".
package lockfile

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/agentstation/pubmap/pkg/constants"
	"github.com/agentstation/pubmap/pkg/errors"
)

// Lock is a held catalog lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// PathFor returns the lock file path guarding catalogPath.
func PathFor(catalogPath string) string {
	return catalogPath + constants.LockSuffix
}

// Acquire takes the lock for catalogPath without blocking. A lock held by
// another process is reported as an *errors.ResourceError wrapping
// errors.ErrLocked.
func Acquire(catalogPath string) (*Lock, error) {
	path := PathFor(catalogPath)
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("mkdir", filepath.Dir(path), err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.WrapResource("lock", "catalog", catalogPath, err)
	}
	if !ok {
		return nil, errors.WrapResource("lock", "catalog", catalogPath, errors.ErrLocked)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. The lock file itself is left in place; removing
// it would race with a process that is about to lock it.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return errors.WrapResource("unlock", "catalog", l.path, err)
	}
	return nil
}
