package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
)

// TempPrefix starts the name of every temporary file created by
// WriteFileAtomic. Directory scans use it to skip in-flight writes.
const TempPrefix = ".tmp-"

// WriteFileAtomic writes data to a temporary file in the same directory as
// path and renames it into place, so readers see either the previous file or
// the complete new one, never a partial write. Concurrent writers of the same
// path each rename their own temp file; the last rename wins.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// leftover temp files are swept by cache maintenance
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename into place: %w", err)
	}

	return nil
}
