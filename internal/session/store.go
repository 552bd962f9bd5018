// Package session persists conversation sessions as JSON files with
// per-session locking, atomic writes and backup rotation.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chatsim-dev/chatsim/internal/api"
	"github.com/chatsim-dev/chatsim/internal/errors"
)

// Lock represents an exclusive lock on a specific session file. Different
// sessions in the same store can be held by different processes.
type Lock struct {
	name     string
	lockFile *os.File
	lockPath string
}

// Release releases the session lock and cleans up the lock file.
func (l *Lock) Release() error {
	if l.lockFile == nil {
		return nil
	}
	syscall.Flock(int(l.lockFile.Fd()), syscall.LOCK_UN)
	err := l.lockFile.Close()
	l.lockFile = nil
	// Clean up lock file (best effort)
	os.Remove(l.lockPath)
	return err
}

// Store persists sessions under a directory, one <name>.json per session.
type Store struct {
	dir     string
	backups int
}

// NewStore creates a session store. backups is the number of rotated backup
// copies kept per session on overwrite; zero disables backups.
func NewStore(dir string, backups int) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating sessions dir: %w", err)
	}

	// Recover from any interrupted writes
	if err := recoverInterruptedWrites(dir); err != nil {
		return nil, fmt.Errorf("recovering interrupted writes: %w", err)
	}

	return &Store{dir: dir, backups: backups}, nil
}

// Acquire takes an exclusive lock for a session, preventing concurrent
// writers from other processes.
func (s *Store) Acquire(name string) (*Lock, error) {
	lockPath := filepath.Join(s.dir, name+".json.lock")
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening session lock file: %w", err)
	}

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		lockFile.Close()
		return nil, errors.SessionLocked(name).WithCause(err)
	}

	return &Lock{
		name:     name,
		lockFile: lockFile,
		lockPath: lockPath,
	}, nil
}

// recoverInterruptedWrites handles .tmp files left from crashed writes.
func recoverInterruptedWrites(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".json.tmp") {
			continue
		}

		tmpPath := filepath.Join(dir, entry.Name())
		mainPath := strings.TrimSuffix(tmpPath, ".tmp")

		// Check if main file exists and is valid
		if _, err := os.Stat(mainPath); err == nil {
			// Main file exists, delete orphan temp
			os.Remove(tmpPath)
		} else {
			// Main file missing, promote temp
			os.Rename(tmpPath, mainPath)
		}
	}
	return nil
}

// Get loads a session by name.
func (s *Store) Get(name string) (*api.Request, error) {
	path := filepath.Join(s.dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.SessionNotFound(name)
		}
		return nil, errors.IOReadError(path, err)
	}

	var session api.Request
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.SessionInvalid(name, err)
	}
	return &session, nil
}

// Save persists a session atomically (write-then-rename), rotating backups
// of the previous content first.
func (s *Store) Save(name string, session *api.Request) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	data = append(data, '\n')

	mainPath := filepath.Join(s.dir, name+".json")

	if err := s.rotateBackups(mainPath); err != nil {
		return err
	}

	tmpPath := mainPath + ".tmp"

	// Write to temp file
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return errors.IOWriteError(tmpPath, err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, mainPath); err != nil {
		os.Remove(tmpPath) // Clean up on failure
		return errors.IOWriteError(mainPath, err)
	}

	return nil
}

// rotateBackups shifts <path>.bak.N up by one, dropping the oldest, and
// copies the current file to <path>.bak.1. No-op when the file does not
// exist yet or backups are disabled.
func (s *Store) rotateBackups(path string) error {
	if s.backups <= 0 {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	// Shift older backups out of the way, oldest first.
	for i := s.backups - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.bak.%d", path, i)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dst := fmt.Sprintf("%s.bak.%d", path, i+1)
		if err := os.Rename(src, dst); err != nil {
			return errors.IOWriteError(dst, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.IOReadError(path, err)
	}
	if err := os.WriteFile(path+".bak.1", data, 0644); err != nil {
		return errors.IOWriteError(path+".bak.1", err)
	}
	return nil
}

// Delete removes a session and its backups.
func (s *Store) Delete(name string) error {
	path := filepath.Join(s.dir, name+".json")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.SessionNotFound(name)
		}
		return err
	}
	for i := 1; i <= s.backups; i++ {
		os.Remove(fmt.Sprintf("%s.bak.%d", path, i))
	}
	return nil
}

// List returns the names of all stored sessions, skipping temp, lock and
// backup files.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	return names, nil
}
