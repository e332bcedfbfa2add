package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteSampleFile creates a file of the given size filled with a repeating
// pattern and returns its path.
func WriteSampleFile(t testing.TB, name string, size int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	data := bytes.Repeat([]byte("ferry-sample-data-"), size/18+1)[:size]
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write sample file: %v", err)
	}
	return path
}
