package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path (and its parents) holding size bytes of filler
// content. Library items and delivery limits only care about the size.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size < 1 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create parent of %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte("p"), int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
