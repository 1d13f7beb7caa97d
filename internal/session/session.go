// Package session holds the browsing state of one viewer: the matched pair
// list, the selected index and the sort order. A Session is an explicit
// value owned by the HTTP layer; all methods are safe for concurrent use.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"pair-viewer/internal/logging"
	"pair-viewer/internal/metadata"
	"pair-viewer/internal/pairing"
)

var (
	// ErrNotLoaded is returned by navigation when no folders are loaded.
	ErrNotLoaded = errors.New("no folders loaded")

	// ErrInvalidIndex is returned for an index outside the pair list.
	ErrInvalidIndex = errors.New("invalid image index")

	// ErrNoOriginal is returned when an original is requested in
	// primary-only mode.
	ErrNoOriginal = errors.New("pair has no original file")

	// ErrInvalidSortOrder is returned for an unknown sort token.
	ErrInvalidSortOrder = errors.New("invalid sort order")
)

// SortOrder is the persisted token naming a pair ordering.
type SortOrder string

const (
	SortNameAsc  SortOrder = "name_asc"
	SortNameDesc SortOrder = "name_desc"
	SortDateAsc  SortOrder = "date_asc"
	SortDateDesc SortOrder = "date_desc"
)

// ParseSortOrder validates a sort token. The empty string means name_asc.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "":
		return SortNameAsc, nil
	case SortNameAsc, SortNameDesc, SortDateAsc, SortDateDesc:
		return SortOrder(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSortOrder, s)
	}
}

// FileKind selects one file of a pair.
type FileKind string

const (
	FilePrimary  FileKind = "primary"
	FileOriginal FileKind = "original"
)

// MetadataSource extracts display metadata from an image file.
type MetadataSource interface {
	Extract(path string) metadata.ImageMetadata
}

// LoadOptions tunes Load.
type LoadOptions struct {
	// InitialIndex is selected when it is within range; otherwise 0.
	InitialIndex *int
	SortOrder    SortOrder
}

// Status is a snapshot of the session.
type Status struct {
	Loaded          bool      `json:"loaded"`
	CurrentIndex    int       `json:"current_index"`
	Total           int       `json:"total_images"`
	PrimaryFolder   string    `json:"primary_folder"`
	OriginalFolder  string    `json:"original_folder"`
	CurrentPrimary  string    `json:"current_primary,omitempty"`
	CurrentOriginal string    `json:"current_original,omitempty"`
	SortOrder       SortOrder `json:"sort_order"`
	PrimaryOnly     bool      `json:"primary_only"`
}

// Session is the selection state over one loaded folder pair.
type Session struct {
	mu             sync.Mutex
	extractor      MetadataSource
	pairs          []pairing.ImagePair
	current        int
	primaryFolder  string
	originalFolder string
	sortOrder      SortOrder
}

// New returns an empty session. extractor may be nil, in which case
// metadata is never read.
func New(extractor MetadataSource) *Session {
	return &Session{extractor: extractor, current: -1, sortOrder: SortNameAsc}
}

// Load matches primaryDir against originalDir and replaces the pair list.
// On failure the session is cleared and the matcher error is returned as is.
func (s *Session) Load(primaryDir, originalDir string, opts LoadOptions) (Status, error) {
	order, err := ParseSortOrder(string(opts.SortOrder))
	if err != nil {
		return s.Status(), err
	}

	pairs, err := pairing.Match(primaryDir, originalDir)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.reset()
		logging.Warn("Failed to load folders %q / %q: %v", primaryDir, originalDir, err)
		return s.status(), err
	}

	s.pairs = pairs
	s.primaryFolder = absOrSelf(primaryDir)
	s.originalFolder = ""
	if originalDir != "" {
		s.originalFolder = absOrSelf(originalDir)
	}
	s.sortOrder = order
	s.sortPairs()

	s.current = 0
	if opts.InitialIndex != nil {
		if i := *opts.InitialIndex; i >= 0 && i < len(s.pairs) {
			s.current = i
		} else {
			logging.Debug("Initial index %d out of range for %d pairs, selecting 0", i, len(s.pairs))
		}
	}

	logging.Info("Loaded %d pairs (sort: %s, index: %d)", len(s.pairs), s.sortOrder, s.current)
	return s.status(), nil
}

// Select makes i the current index.
func (s *Session) Select(i int) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pairs) == 0 {
		return s.status(), ErrNotLoaded
	}
	if err := s.checkIndex(i); err != nil {
		return s.status(), err
	}
	s.current = i
	return s.status(), nil
}

// Next advances the selection, staying on the last pair at the end.
func (s *Session) Next() (Status, error) {
	return s.step(1)
}

// Prev moves the selection back, staying on the first pair at the start.
func (s *Session) Prev() (Status, error) {
	return s.step(-1)
}

func (s *Session) step(delta int) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pairs) == 0 {
		return s.status(), ErrNotLoaded
	}
	s.current = min(max(s.current+delta, 0), len(s.pairs)-1)
	return s.status(), nil
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

// Pairs returns a copy of the pair list in display order.
func (s *Session) Pairs() []pairing.ImagePair {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]pairing.ImagePair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// Pair returns the pair at index i.
func (s *Session) Pair(i int) (pairing.ImagePair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIndex(i); err != nil {
		return pairing.ImagePair{}, err
	}
	return s.pairs[i], nil
}

// PathFor returns the path of one file of pair i.
func (s *Session) PathFor(i int, kind FileKind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIndex(i); err != nil {
		return "", err
	}
	pair := s.pairs[i]
	switch kind {
	case FilePrimary:
		return pair.PrimaryPath, nil
	case FileOriginal:
		if !pair.HasOriginal() {
			return "", fmt.Errorf("%w: %s", ErrNoOriginal, pair.BaseName)
		}
		return pair.OriginalPath, nil
	default:
		return "", fmt.Errorf("unknown file kind %q", kind)
	}
}

// Metadata returns the display metadata of pair i, extracting it on first
// use.
func (s *Session) Metadata(i int) (metadata.ImageMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIndex(i); err != nil {
		return metadata.ImageMetadata{}, err
	}
	return s.metadataLocked(i), nil
}

func (s *Session) metadataLocked(i int) metadata.ImageMetadata {
	pair := &s.pairs[i]
	if pair.Metadata != nil {
		return *pair.Metadata
	}
	var md metadata.ImageMetadata
	if s.extractor != nil {
		md = s.extractor.Extract(pair.PrimaryPath)
		if md.IsEmpty() && pair.HasOriginal() {
			md = s.extractor.Extract(pair.OriginalPath)
		}
	}
	pair.Metadata = &md
	return md
}

func (s *Session) checkIndex(i int) error {
	if i < 0 || i >= len(s.pairs) {
		return fmt.Errorf("%w: %d (have %d pairs)", ErrInvalidIndex, i, len(s.pairs))
	}
	return nil
}

func (s *Session) reset() {
	s.pairs = nil
	s.current = -1
	s.primaryFolder = ""
	s.originalFolder = ""
	s.sortOrder = SortNameAsc
}

func (s *Session) status() Status {
	st := Status{
		Loaded:         len(s.pairs) > 0,
		CurrentIndex:   s.current,
		Total:          len(s.pairs),
		PrimaryFolder:  s.primaryFolder,
		OriginalFolder: s.originalFolder,
		SortOrder:      s.sortOrder,
		PrimaryOnly:    len(s.pairs) > 0 && s.originalFolder == "",
	}
	if s.current >= 0 && s.current < len(s.pairs) {
		pair := s.pairs[s.current]
		st.CurrentPrimary = filepath.Base(pair.PrimaryPath)
		if pair.HasOriginal() {
			st.CurrentOriginal = filepath.Base(pair.OriginalPath)
		}
	}
	return st
}

// sortPairs reorders s.pairs, which arrive in name_asc order from the
// matcher.
func (s *Session) sortPairs() {
	switch s.sortOrder {
	case SortNameDesc:
		for i, j := 0, len(s.pairs)-1; i < j; i, j = i+1, j-1 {
			s.pairs[i], s.pairs[j] = s.pairs[j], s.pairs[i]
		}
	case SortDateAsc, SortDateDesc:
		times := make(map[string]time.Time, len(s.pairs))
		for i := range s.pairs {
			times[s.pairs[i].PrimaryPath] = s.captureTime(i)
		}
		desc := s.sortOrder == SortDateDesc
		sort.SliceStable(s.pairs, func(a, b int) bool {
			ta, tb := times[s.pairs[a].PrimaryPath], times[s.pairs[b].PrimaryPath]
			if desc {
				return ta.After(tb)
			}
			return ta.Before(tb)
		})
	}
}

// captureTime is the EXIF capture time of pair i, falling back to the
// primary file's modification time.
func (s *Session) captureTime(i int) time.Time {
	if t, ok := s.metadataLocked(i).CaptureTimeValue(); ok {
		return t
	}
	if info, err := os.Stat(s.pairs[i].PrimaryPath); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
