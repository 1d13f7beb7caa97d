package pairing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pair-viewer/internal/filesystem"
	"pair-viewer/internal/filetypes"
	"pair-viewer/internal/logging"
	"pair-viewer/internal/metadata"
	"pair-viewer/internal/metrics"
)

// Side names which folder an error or collision refers to.
type Side string

const (
	SidePrimary  Side = "primary"
	SideOriginal Side = "original"
)

var (
	// ErrInvalidInput is returned when the primary folder is not given.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDirectoryNotFound is returned when a folder is missing or is not a
	// directory.
	ErrDirectoryNotFound = errors.New("directory not found")

	// ErrDirectoryUnreadable is returned when a folder exists but cannot be
	// listed.
	ErrDirectoryUnreadable = errors.New("directory unreadable")

	// ErrNoPairsFound is returned when no stem is shared by both folders, or
	// in primary-only mode when the folder holds no primary images.
	ErrNoPairsFound = errors.New("no image pairs found")
)

// DirectoryError describes a folder that could not be scanned.
type DirectoryError struct {
	Side Side
	Path string
	// Kind is ErrDirectoryNotFound or ErrDirectoryUnreadable.
	Kind error
	Err  error
}

func (e *DirectoryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s folder %s: %v", e.Side, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s folder %s: %v: %v", e.Side, e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the classification and the underlying cause.
func (e *DirectoryError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ImagePair is one matched primary file and its original.
type ImagePair struct {
	// BaseName is the primary file's stem in its original case.
	BaseName     string                  `json:"base_name"`
	PrimaryPath  string                  `json:"primary_path"`
	OriginalPath string                  `json:"original_path,omitempty"`
	Metadata     *metadata.ImageMetadata `json:"metadata,omitempty"`
}

// HasOriginal reports whether the pair has an original file.
func (p ImagePair) HasOriginal() bool {
	return p.OriginalPath != ""
}

// Match scans primaryDir and originalDir and returns every pair whose stems
// are equal ignoring case, sorted by folded stem. An empty originalDir
// selects primary-only mode.
//
// Match never writes and is safe to call concurrently.
func Match(primaryDir, originalDir string) ([]ImagePair, error) {
	start := time.Now()
	pairs, err := match(primaryDir, originalDir)
	metrics.PairingScanDuration.Observe(time.Since(start).Seconds())
	metrics.PairingScansTotal.WithLabelValues(scanResult(err)).Inc()
	if err == nil {
		metrics.PairingPairsFound.Observe(float64(len(pairs)))
	}
	return pairs, err
}

func match(primaryDir, originalDir string) ([]ImagePair, error) {
	if strings.TrimSpace(primaryDir) == "" {
		return nil, fmt.Errorf("%w: primary folder is required", ErrInvalidInput)
	}

	primaryAbs, err := checkDir(SidePrimary, primaryDir)
	if err != nil {
		return nil, err
	}

	primaryOnly := strings.TrimSpace(originalDir) == ""
	var originalAbs string
	if !primaryOnly {
		if originalAbs, err = checkDir(SideOriginal, originalDir); err != nil {
			return nil, err
		}
	}

	primaries, err := scan(SidePrimary, primaryAbs, filetypes.IsPrimary)
	if err != nil {
		return nil, err
	}

	var originals map[string]string
	if !primaryOnly {
		if originals, err = scan(SideOriginal, originalAbs, filetypes.IsOriginal); err != nil {
			return nil, err
		}
	}

	stems := make([]string, 0, len(primaries))
	for folded := range primaries {
		if primaryOnly {
			stems = append(stems, folded)
			continue
		}
		if _, ok := originals[folded]; ok {
			stems = append(stems, folded)
		}
	}
	sort.Strings(stems)

	if len(stems) == 0 {
		if primaryOnly {
			return nil, fmt.Errorf("%w: no primary images in %s", ErrNoPairsFound, primaryAbs)
		}
		return nil, fmt.Errorf("%w: %s and %s share no file names", ErrNoPairsFound, primaryAbs, originalAbs)
	}

	pairs := make([]ImagePair, 0, len(stems))
	for _, folded := range stems {
		primaryPath := primaries[folded]
		stem, _ := filetypes.SplitName(filepath.Base(primaryPath))
		pairs = append(pairs, ImagePair{
			BaseName:     stem,
			PrimaryPath:  primaryPath,
			OriginalPath: originals[folded],
		})
	}

	if primaryOnly {
		logging.Info("Matched %d primary images in %s (no original folder)", len(pairs), primaryAbs)
	} else {
		logging.Info("Matched %d pairs between %s and %s", len(pairs), primaryAbs, originalAbs)
	}
	return pairs, nil
}

// checkDir resolves dir to an absolute path and confirms it is a directory.
func checkDir(side Side, dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", &DirectoryError{Side: side, Path: dir, Kind: ErrDirectoryNotFound, Err: err}
	}

	info, err := filesystem.StatWithRetry(abs, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &DirectoryError{Side: side, Path: abs, Kind: ErrDirectoryNotFound, Err: err}
		}
		return "", &DirectoryError{Side: side, Path: abs, Kind: ErrDirectoryUnreadable, Err: err}
	}
	if !info.IsDir() {
		return "", &DirectoryError{Side: side, Path: abs, Kind: ErrDirectoryNotFound, Err: errors.New("not a directory")}
	}
	return abs, nil
}

// scan maps folded stem to file path for every immediate regular entry of dir
// whose extension passes accept. Entries come back sorted by name, so on a
// case-folding collision the first name in that order wins.
func scan(side Side, dir string, accept func(ext string) bool) (map[string]string, error) {
	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, &DirectoryError{Side: side, Path: dir, Kind: ErrDirectoryUnreadable, Err: err}
	}

	files := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stem, ext := filetypes.SplitName(entry.Name())
		if stem == "" || !accept(ext) {
			continue
		}

		folded := strings.ToLower(stem)
		path := filepath.Join(dir, entry.Name())
		if kept, dup := files[folded]; dup {
			logging.Warn("Ignoring %s: %s already matches %q in %s folder",
				path, filepath.Base(kept), folded, side)
			metrics.PairingCollisionsTotal.WithLabelValues(string(side)).Inc()
			continue
		}
		files[folded] = path
	}

	logging.Debug("Scanned %s folder %s: %d candidate files", side, dir, len(files))
	return files, nil
}

func scanResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	case errors.Is(err, ErrNoPairsFound):
		return "no_pairs"
	case errors.Is(err, ErrDirectoryNotFound):
		return "not_found"
	default:
		return "unreadable"
	}
}
