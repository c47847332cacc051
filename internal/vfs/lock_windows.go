//go:build windows

// lock_windows.go implements file locking on Windows systems, used to guard
// a CDB directory against two clerks opening the same journal store.
package vfs

import (
	"io"
	"os"
)

// fileLock implements file locking on Windows systems.
type fileLock struct {
	f *os.File
}

// lockFile opens (creating if needed) the named file and holds it open
// until Close. On Windows it takes no lock: the open is not exclusive, so
// a second holder of the same file is not refused.
func lockFile(name string) (io.Closer, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	return &fileLock{f: f}, nil
}

func (l *fileLock) Close() error {
	return l.f.Close()
}
