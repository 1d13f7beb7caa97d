package session

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"pair-viewer/internal/metadata"
	"pair-viewer/internal/pairing"
)

// fakeExtractor returns canned metadata by file name and counts calls.
type fakeExtractor struct {
	mu     sync.Mutex
	byName map[string]metadata.ImageMetadata
	calls  map[string]int
}

func newFakeExtractor(byName map[string]metadata.ImageMetadata) *fakeExtractor {
	return &fakeExtractor{byName: byName, calls: map[string]int{}}
}

func (f *fakeExtractor) Extract(path string) metadata.ImageMetadata {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := filepath.Base(path)
	f.calls[name]++
	return f.byName[name]
}

func (f *fakeExtractor) callsFor(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func setupFolders(t *testing.T, stems ...string) (string, string) {
	t.Helper()
	primary, original := t.TempDir(), t.TempDir()
	for _, stem := range stems {
		if err := os.WriteFile(filepath.Join(primary, stem+".jpg"), []byte("j"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(original, stem+".cr2"), []byte("r"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return primary, original
}

func names(pairs []pairing.ImagePair) []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.BaseName
	}
	return out
}

func intPtr(i int) *int { return &i }

func TestLoad(t *testing.T) {
	primary, original := setupFolders(t, "c", "a", "b")
	s := New(nil)

	st, err := s.Load(primary, original, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !st.Loaded || st.Total != 3 || st.CurrentIndex != 0 {
		t.Errorf("Unexpected status %+v", st)
	}
	if st.CurrentPrimary != "a.jpg" || st.CurrentOriginal != "a.cr2" {
		t.Errorf("Expected current files a.jpg/a.cr2, got %s/%s", st.CurrentPrimary, st.CurrentOriginal)
	}
	if st.SortOrder != SortNameAsc {
		t.Errorf("Expected default sort %s, got %s", SortNameAsc, st.SortOrder)
	}
	if st.PrimaryOnly {
		t.Error("Expected paired mode")
	}
	if got := names(s.Pairs()); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Pairs() = %v", got)
	}
}

func TestLoad_InitialIndex(t *testing.T) {
	primary, original := setupFolders(t, "a", "b", "c")

	tests := []struct {
		name  string
		index *int
		want  int
	}{
		{"absent", nil, 0},
		{"in range", intPtr(2), 2},
		{"too large", intPtr(3), 0},
		{"negative", intPtr(-1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := New(nil).Load(primary, original, LoadOptions{InitialIndex: tt.index})
			if err != nil {
				t.Fatal(err)
			}
			if st.CurrentIndex != tt.want {
				t.Errorf("CurrentIndex = %d, want %d", st.CurrentIndex, tt.want)
			}
		})
	}
}

func TestLoad_FailureClearsSession(t *testing.T) {
	primary, original := setupFolders(t, "a")
	s := New(nil)
	if _, err := s.Load(primary, original, LoadOptions{}); err != nil {
		t.Fatal(err)
	}

	empty := t.TempDir()
	st, err := s.Load(primary, empty, LoadOptions{})
	if !errors.Is(err, pairing.ErrNoPairsFound) {
		t.Fatalf("Expected ErrNoPairsFound, got %v", err)
	}
	if st.Loaded || st.Total != 0 || st.CurrentIndex != -1 {
		t.Errorf("Expected cleared status, got %+v", st)
	}
	if _, err := s.Next(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Expected ErrNotLoaded after failed load, got %v", err)
	}
}

func TestLoad_InvalidSortOrder(t *testing.T) {
	primary, original := setupFolders(t, "a")
	_, err := New(nil).Load(primary, original, LoadOptions{SortOrder: "sideways"})
	if !errors.Is(err, ErrInvalidSortOrder) {
		t.Errorf("Expected ErrInvalidSortOrder, got %v", err)
	}
}

func TestLoad_PrimaryOnly(t *testing.T) {
	primary, _ := setupFolders(t, "a", "b")
	s := New(nil)

	st, err := s.Load(primary, "", LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !st.PrimaryOnly || st.CurrentOriginal != "" {
		t.Errorf("Expected primary-only status, got %+v", st)
	}
	if _, err := s.PathFor(0, FileOriginal); !errors.Is(err, ErrNoOriginal) {
		t.Errorf("Expected ErrNoOriginal, got %v", err)
	}
	if p, err := s.PathFor(0, FilePrimary); err != nil || filepath.Base(p) != "a.jpg" {
		t.Errorf("PathFor(primary) = %s, %v", p, err)
	}
}

func TestNavigation(t *testing.T) {
	primary, original := setupFolders(t, "a", "b", "c")
	s := New(nil)

	if _, err := s.Next(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Expected ErrNotLoaded before load, got %v", err)
	}
	if _, err := s.Prev(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Expected ErrNotLoaded before load, got %v", err)
	}
	if _, err := s.Select(0); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Expected ErrNotLoaded before load, got %v", err)
	}

	if _, err := s.Load(primary, original, LoadOptions{}); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		name string
		do   func() (Status, error)
		want int
	}{
		{"prev at start stays", s.Prev, 0},
		{"next", s.Next, 1},
		{"next", s.Next, 2},
		{"next at end stays", s.Next, 2},
		{"prev", s.Prev, 1},
		{"select 0", func() (Status, error) { return s.Select(0) }, 0},
		{"select 2", func() (Status, error) { return s.Select(2) }, 2},
	}
	for _, step := range steps {
		st, err := step.do()
		if err != nil {
			t.Fatalf("%s: error = %v", step.name, err)
		}
		if st.CurrentIndex != step.want {
			t.Errorf("%s: CurrentIndex = %d, want %d", step.name, st.CurrentIndex, step.want)
		}
	}

	for _, bad := range []int{-1, 3, 100} {
		st, err := s.Select(bad)
		if !errors.Is(err, ErrInvalidIndex) {
			t.Errorf("Select(%d): expected ErrInvalidIndex, got %v", bad, err)
		}
		if st.CurrentIndex != 2 {
			t.Errorf("Select(%d) changed selection to %d", bad, st.CurrentIndex)
		}
	}
}

func TestPairAndPathFor(t *testing.T) {
	primary, original := setupFolders(t, "x", "y")
	s := New(nil)
	if _, err := s.Load(primary, original, LoadOptions{}); err != nil {
		t.Fatal(err)
	}

	pair, err := s.Pair(1)
	if err != nil {
		t.Fatal(err)
	}
	if pair.BaseName != "y" {
		t.Errorf("Pair(1).BaseName = %s, want y", pair.BaseName)
	}

	p, err := s.PathFor(1, FileOriginal)
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join(original, "y.cr2") {
		t.Errorf("PathFor(1, original) = %s", p)
	}

	if _, err := s.PathFor(2, FilePrimary); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("Expected ErrInvalidIndex, got %v", err)
	}
	if _, err := s.Pair(-1); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("Expected ErrInvalidIndex, got %v", err)
	}

	// Mutating the returned slice does not affect the session.
	pairs := s.Pairs()
	pairs[0].PrimaryPath = "/elsewhere"
	if again, _ := s.Pair(0); again.PrimaryPath == "/elsewhere" {
		t.Error("Expected Pairs() to return a copy")
	}
}

func TestMetadata_Memoised(t *testing.T) {
	primary, original := setupFolders(t, "a", "b")
	ext := newFakeExtractor(map[string]metadata.ImageMetadata{
		"a.jpg": {CameraMake: "Canon"},
		"b.cr2": {CameraMake: "Nikon"},
	})
	s := New(ext)
	if _, err := s.Load(primary, original, LoadOptions{}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		md, err := s.Metadata(0)
		if err != nil {
			t.Fatal(err)
		}
		if md.CameraMake != "Canon" {
			t.Errorf("Metadata(0).CameraMake = %s", md.CameraMake)
		}
	}
	if got := ext.callsFor("a.jpg"); got != 1 {
		t.Errorf("Expected one extraction for a.jpg, got %d", got)
	}

	// Falls back to the original when the primary carries nothing.
	md, err := s.Metadata(1)
	if err != nil {
		t.Fatal(err)
	}
	if md.CameraMake != "Nikon" {
		t.Errorf("Expected fallback to original metadata, got %+v", md)
	}

	if _, err := s.Metadata(5); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("Expected ErrInvalidIndex, got %v", err)
	}
}

func TestSortOrders(t *testing.T) {
	primary, original := setupFolders(t, "a", "b", "c", "d")

	// b and d have EXIF times; a and c fall back to file modification times.
	ext := newFakeExtractor(map[string]metadata.ImageMetadata{
		"b.jpg": {CaptureTime: "2020:01:01 12:00:00"},
		"d.jpg": {CaptureTime: "2019:06:01 12:00:00"},
	})
	mtimes := map[string]time.Time{
		"a.jpg": time.Date(2021, 1, 1, 0, 0, 0, 0, time.Local),
		"c.jpg": time.Date(2019, 1, 1, 0, 0, 0, 0, time.Local),
	}
	for name, mt := range mtimes {
		if err := os.Chtimes(filepath.Join(primary, name), mt, mt); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortNameAsc, []string{"a", "b", "c", "d"}},
		{SortNameDesc, []string{"d", "c", "b", "a"}},
		{SortDateAsc, []string{"c", "d", "b", "a"}},
		{SortDateDesc, []string{"a", "b", "d", "c"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			s := New(ext)
			st, err := s.Load(primary, original, LoadOptions{SortOrder: tt.order})
			if err != nil {
				t.Fatal(err)
			}
			if st.SortOrder != tt.order {
				t.Errorf("Status.SortOrder = %s, want %s", st.SortOrder, tt.order)
			}
			if got := names(s.Pairs()); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortOrders_TiesKeepNameOrder(t *testing.T) {
	primary, original := setupFolders(t, "a", "b", "c")
	same := time.Date(2022, 2, 2, 2, 2, 2, 0, time.Local)
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if err := os.Chtimes(filepath.Join(primary, name), same, same); err != nil {
			t.Fatal(err)
		}
	}

	for _, order := range []SortOrder{SortDateAsc, SortDateDesc} {
		s := New(nil)
		if _, err := s.Load(primary, original, LoadOptions{SortOrder: order}); err != nil {
			t.Fatal(err)
		}
		if got := names(s.Pairs()); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
			t.Errorf("%s with equal times = %v, want name order", order, got)
		}
	}
}

func TestParseSortOrder(t *testing.T) {
	if o, err := ParseSortOrder(""); err != nil || o != SortNameAsc {
		t.Errorf("ParseSortOrder(\"\") = %s, %v", o, err)
	}
	if o, err := ParseSortOrder("date_desc"); err != nil || o != SortDateDesc {
		t.Errorf("ParseSortOrder(date_desc) = %s, %v", o, err)
	}
	if _, err := ParseSortOrder("random"); !errors.Is(err, ErrInvalidSortOrder) {
		t.Errorf("Expected ErrInvalidSortOrder, got %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	primary, original := setupFolders(t, "a", "b", "c")
	s := New(newFakeExtractor(nil))
	if _, err := s.Load(primary, original, LoadOptions{}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Next()
			_, _ = s.Prev()
			_, _ = s.Metadata(i % 3)
			_ = s.Status()
			_ = s.Pairs()
		}(i)
	}
	wg.Wait()

	if st := s.Status(); st.CurrentIndex < 0 || st.CurrentIndex > 2 {
		t.Errorf("CurrentIndex out of range after concurrent navigation: %d", st.CurrentIndex)
	}
}
