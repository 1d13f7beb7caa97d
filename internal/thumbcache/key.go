package thumbcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"pair-viewer/internal/filesystem"
)

// KeyError reports a source whose identity could not be established.
type KeyError struct {
	Path string
	Err  error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("cache key for %s: %v", e.Path, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }

// DeriveKey returns the 64-character hex digest identifying the rendering of
// sourcePath under params. The modification time is read at call time, so
// touching the source yields a new key.
func DeriveKey(sourcePath string, params RenderParams) (string, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return "", &KeyError{Path: sourcePath, Err: err}
	}
	info, err := filesystem.StatWithRetry(abs, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", &KeyError{Path: sourcePath, Err: err}
	}
	return keyFor(abs, info.ModTime().UnixNano(), params), nil
}

func keyFor(absPath string, mtimeNanos int64, params RenderParams) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%d-%s", absPath, mtimeNanos, params.Summary())))
	return hex.EncodeToString(sum[:])
}

// entryName is the cache file name for key. The source stem is kept for
// humans browsing the cache directory.
func entryName(key, sourcePath string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return key + "_" + stem + entrySuffix
}
