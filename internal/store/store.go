// Package store implements the two flat-file stores the crawler reads
// and writes: the region exploration memo and the segment collection.
// Each store owns one JSON file, guarded by an advisory lock for the
// lifetime of the handle, and saves atomically via temp-file rename.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pacelab/segscout/internal/segment"
)

// fileLock is a process-level advisory lock over a store location.
// Stores assume a single writer per location; the lock file turns a
// violated assumption into a load failure instead of a corrupt file.
type fileLock struct {
	path string
}

func acquireLock(storePath string) (*fileLock, error) {
	lockPath := storePath + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s is locked by another process", segment.ErrStoreUnavailable, storePath)
		}
		return nil, fmt.Errorf("%w: create lock for %s: %v", segment.ErrStoreUnavailable, storePath, err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close lock file: %w", err)
	}
	return &fileLock{path: lockPath}, nil
}

func (l *fileLock) release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}

// readStoreFile loads the raw bytes of a store location. The file must
// pre-exist; an empty collection is an empty JSON array, not a missing
// file.
func readStoreFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", segment.ErrStoreUnavailable, path, err)
	}
	return data, nil
}

// writeAtomic writes data next to the target and renames it into place,
// so a crash mid-write leaves the previous contents intact.
func writeAtomic(path string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", segment.ErrStoreUnavailable, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", segment.ErrStoreUnavailable, tmp, err)
	}
	return nil
}
