package config

import (
	"os"
	"path/filepath"
)

const lockFileName = "state.lock"

// FileLock guards the state file against concurrent blockterm processes.
// It locks a sidecar file next to the data file, so readers and writers
// never hold the data file itself open across the lock.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a lock for the given path. The sidecar lives in the
// same directory as path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		path: filepath.Join(filepath.Dir(path), lockFileName),
	}
}
