package pairing

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
	}
}

func baseNames(pairs []ImagePair) []string {
	names := make([]string, len(pairs))
	for i, p := range pairs {
		names[i] = p.BaseName
	}
	return names
}

func TestMatch_CaseInsensitiveStems(t *testing.T) {
	primary, original := t.TempDir(), t.TempDir()
	touch(t, primary, "a.jpg", "b.jpg")
	touch(t, original, "A.cr2", "c.cr2")

	pairs, err := Match(primary, original)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	want := []ImagePair{{
		BaseName:     "a",
		PrimaryPath:  filepath.Join(primary, "a.jpg"),
		OriginalPath: filepath.Join(original, "A.cr2"),
	}}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("Match() = %+v, want %+v", pairs, want)
	}
}

func TestMatch_SortedByFoldedStem(t *testing.T) {
	primary, original := t.TempDir(), t.TempDir()
	touch(t, primary, "Zebra.JPG", "apple.png", "Mango.jpeg", "kiwi.webp", "notes.txt")
	touch(t, original, "zebra.nef", "APPLE.arw", "mango.DNG", "kiwi.raf", "orphan.cr3")

	pairs, err := Match(primary, original)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}

	want := []string{"apple", "kiwi", "Mango", "Zebra"}
	if got := baseNames(pairs); !reflect.DeepEqual(got, want) {
		t.Errorf("BaseNames = %v, want %v", got, want)
	}
	for _, p := range pairs {
		if !p.HasOriginal() {
			t.Errorf("Expected %s to have an original", p.BaseName)
		}
		if !filepath.IsAbs(p.PrimaryPath) || !filepath.IsAbs(p.OriginalPath) {
			t.Errorf("Expected absolute paths, got %+v", p)
		}
	}
}

func TestMatch_ExtensionAllowLists(t *testing.T) {
	primary, original := t.TempDir(), t.TempDir()
	// A raw file in the primary folder and a JPEG in the original folder do
	// not count.
	touch(t, primary, "one.cr2", "two.jpg", "three.txt")
	touch(t, original, "one.jpg", "two.jpg", "three.cr2")

	_, err := Match(primary, original)
	if !errors.Is(err, ErrNoPairsFound) {
		t.Errorf("Expected ErrNoPairsFound, got %v", err)
	}
}

func TestMatch_IgnoresSubdirectoriesAndDotfiles(t *testing.T) {
	primary, original := t.TempDir(), t.TempDir()
	touch(t, primary, "keep.jpg", ".jpg")
	touch(t, original, "keep.cr2", ".cr2")
	if err := os.Mkdir(filepath.Join(primary, "nested.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, original, "nested.cr2")
	if err := os.Mkdir(filepath.Join(primary, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(primary, "sub"), "deep.jpg")
	touch(t, original, "deep.cr2")

	pairs, err := Match(primary, original)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got := baseNames(pairs); !reflect.DeepEqual(got, []string{"keep"}) {
		t.Errorf("BaseNames = %v, want [keep]", got)
	}
}

func TestMatch_CollisionFirstWins(t *testing.T) {
	primary, original := t.TempDir(), t.TempDir()
	// Directory order is by name: "IMG.jpg" sorts before "img.png".
	touch(t, primary, "img.png", "IMG.jpg")
	touch(t, original, "img.nef", "IMG.CR2")

	pairs, err := Match(primary, original)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("Expected exactly one pair for a colliding stem, got %d", len(pairs))
	}
	if got := filepath.Base(pairs[0].PrimaryPath); got != "IMG.jpg" {
		t.Errorf("Expected primary IMG.jpg, got %s", got)
	}
	if got := filepath.Base(pairs[0].OriginalPath); got != "IMG.CR2" {
		t.Errorf("Expected original IMG.CR2, got %s", got)
	}
	if pairs[0].BaseName != "IMG" {
		t.Errorf("Expected BaseName IMG, got %s", pairs[0].BaseName)
	}
}

func TestMatch_PrimaryOnly(t *testing.T) {
	primary := t.TempDir()
	touch(t, primary, "b.jpg", "a.png", "raw.cr2")

	pairs, err := Match(primary, "")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got := baseNames(pairs); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("BaseNames = %v, want [a b]", got)
	}
	for _, p := range pairs {
		if p.HasOriginal() {
			t.Errorf("Expected no original in primary-only mode, got %s", p.OriginalPath)
		}
	}

	empty := t.TempDir()
	if _, err := Match(empty, ""); !errors.Is(err, ErrNoPairsFound) {
		t.Errorf("Expected ErrNoPairsFound for empty primary-only folder, got %v", err)
	}
}

func TestMatch_Errors(t *testing.T) {
	existing := t.TempDir()
	touch(t, existing, "a.jpg")
	file := filepath.Join(existing, "a.jpg")
	missing := filepath.Join(existing, "missing")

	tests := []struct {
		name     string
		primary  string
		original string
		wantIs   error
		wantSide Side
	}{
		{"empty primary", "", existing, ErrInvalidInput, ""},
		{"blank primary", "   ", existing, ErrInvalidInput, ""},
		{"missing primary", missing, existing, ErrDirectoryNotFound, SidePrimary},
		{"missing original", existing, missing, ErrDirectoryNotFound, SideOriginal},
		{"primary is a file", file, existing, ErrDirectoryNotFound, SidePrimary},
		{"original is a file", existing, file, ErrDirectoryNotFound, SideOriginal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, err := Match(tt.primary, tt.original)
			if pairs != nil {
				t.Errorf("Expected no pairs on error, got %v", pairs)
			}
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("Expected %v, got %v", tt.wantIs, err)
			}
			if tt.wantSide == "" {
				return
			}
			var dirErr *DirectoryError
			if !errors.As(err, &dirErr) {
				t.Fatalf("Expected *DirectoryError, got %T", err)
			}
			if dirErr.Side != tt.wantSide {
				t.Errorf("Expected side %s, got %s", tt.wantSide, dirErr.Side)
			}
		})
	}
}

func TestMatch_UnreadableFolder(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root can list any directory")
	}
	primary, original := t.TempDir(), t.TempDir()
	touch(t, primary, "a.jpg")
	touch(t, original, "a.cr2")
	if err := os.Chmod(original, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(original, 0o755) })

	_, err := Match(primary, original)
	if !errors.Is(err, ErrDirectoryUnreadable) {
		t.Fatalf("Expected ErrDirectoryUnreadable, got %v", err)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Errorf("Expected permission cause to be preserved, got %v", err)
	}
	var dirErr *DirectoryError
	if errors.As(err, &dirErr) && dirErr.Side != SideOriginal {
		t.Errorf("Expected original side, got %s", dirErr.Side)
	}
}

func TestMatch_Pure(t *testing.T) {
	primary, original := t.TempDir(), t.TempDir()
	touch(t, primary, "x.jpg")
	touch(t, original, "x.cr2")

	before, _ := os.ReadDir(primary)
	first, err := Match(primary, original)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Match(primary, original)
	if err != nil {
		t.Fatal(err)
	}
	after, _ := os.ReadDir(primary)

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected repeated scans to agree")
	}
	if len(before) != len(after) {
		t.Error("Expected Match not to write into the scanned folder")
	}
}

func TestMatch_RelativePaths(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "jpg"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, "raw"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(root, "jpg"), "p.jpg")
	touch(t, filepath.Join(root, "raw"), "p.orf")
	t.Chdir(root)

	pairs, err := Match("jpg", "raw")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if want := filepath.Join(root, "jpg", "p.jpg"); pairs[0].PrimaryPath != want {
		t.Errorf("Expected absolute primary path %s, got %s", want, pairs[0].PrimaryPath)
	}
}
