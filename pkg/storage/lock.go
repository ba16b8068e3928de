package storage

import (
	"fmt"
	"os"

	errs "jirascraper/pkg/errors"
)

// Lock is an advisory lock file preventing two scraper processes from
// appending to the same output directory at once. It relies on
// O_CREATE|O_EXCL being atomic on the local filesystem.
type Lock struct {
	path string
}

// AcquireLock creates the lock file, recording the holder's pid. It
// fails if another process already holds the lock.
func AcquireLock(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			holder, _ := os.ReadFile(path)
			return nil, errs.Newf(errs.KindFatal,
				"output is locked by another process (pid %s); remove %s if it is stale",
				string(holder), path)
		}
		return nil, errs.Newf(errs.KindIO, "failed to create lock file: %v", err)
	}

	fmt.Fprintf(file, "%d", os.Getpid())
	if err := file.Close(); err != nil {
		os.Remove(path)
		return nil, errs.Newf(errs.KindIO, "failed to write lock file: %v", err)
	}

	return &Lock{path: path}, nil
}

// Release removes the lock file
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errs.Newf(errs.KindIO, "failed to remove lock file: %v", err)
	}
	return nil
}
