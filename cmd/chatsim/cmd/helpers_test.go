package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/chatsim-dev/chatsim/internal/session"
)

// captureOutput runs fn with os.Stdout redirected to a pipe and returns
// everything written to it.
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}

	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fnErr := fn()

	w.Close()
	data, readErr := io.ReadAll(r)
	if readErr != nil {
		t.Fatalf("reading captured output: %v", readErr)
	}

	return string(data), fnErr
}

// setWorkDir points the global --workdir flag at dir for the test.
func setWorkDir(t *testing.T, dir string) {
	t.Helper()
	workDir = dir
	t.Cleanup(func() { workDir = "" })
}

// initProject initializes a chatsim project in a temp dir and returns it.
// HOME is pointed at an empty dir so a user-global config cannot leak in.
func initProject(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	setWorkDir(t, dir)

	if _, err := captureOutput(t, func() error {
		return runInit(initCmd, nil)
	}); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}
	return dir
}

// openStoreAt opens the session store of an initialized project.
func openStoreAt(t *testing.T, dir string) (*session.Store, error) {
	t.Helper()
	return session.NewStore(filepath.Join(dir, ".chatsim", "sessions"), 3)
}
