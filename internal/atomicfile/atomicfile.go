// Package atomicfile writes files so that readers see either the previous
// content or the new content, never a partial write.
package atomicfile

import (
	"os"
	"path/filepath"

	"github.com/agentstation/pubmap/pkg/constants"
	"github.com/agentstation/pubmap/pkg/errors"
)

// WriteFile writes data to path through a temporary file in the same
// directory that is synced and renamed into place.
//
// perm applies to the new file. If perm is 0 the existing file's mode is
// kept, falling back to constants.FilePermissions.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if perm == 0 {
		perm = constants.FilePermissions
		if st, err := os.Stat(path); err == nil {
			perm = st.Mode().Perm()
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.WrapIO("write", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return errors.WrapIO("sync", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("close", tmpPath, err)
	}
	// Chmod after close; some filesystems ignore it on open descriptors.
	if err := os.Chmod(tmpPath, perm); err != nil {
		return errors.WrapIO("chmod", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.WrapIO("rename", path, err)
	}

	committed = true
	syncDir(dir)
	return nil
}

// syncDir flushes the directory entry for the rename. Failures are ignored;
// not every platform allows opening a directory for sync.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
