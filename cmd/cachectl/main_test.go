package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pair-viewer/internal/testutil"
)

func runCmd(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func setTerminal(t *testing.T, isTerm bool) {
	t.Helper()
	orig := stdinIsTerminal
	stdinIsTerminal = func() bool { return isTerm }
	t.Cleanup(func() { stdinIsTerminal = orig })
}

// warmFixture renders thumbnails for two pairs into a fresh cache.
func warmFixture(t *testing.T) string {
	t.Helper()
	cacheDir := filepath.Join(t.TempDir(), "cache")
	primary, original := t.TempDir(), t.TempDir()
	testutil.WriteJPEG(t, filepath.Join(primary, "a.jpg"), 64, 48)
	testutil.WriteJPEG(t, filepath.Join(primary, "b.jpg"), 48, 64)
	testutil.WriteFile(t, filepath.Join(original, "a.cr2"), []byte("raw"))
	testutil.WriteFile(t, filepath.Join(original, "b.nef"), []byte("raw"))

	code, out, errOut := runCmd(t, "", "warm", "-cache-dir", cacheDir, "-workers", "2", primary, original)
	if code != 0 {
		t.Fatalf("warm exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Warmed 2 of 2") {
		t.Fatalf("Unexpected warm output: %s", out)
	}
	return cacheDir
}

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"no args", nil, 1, "Usage: cachectl"},
		{"unknown", []string{"explode;rm"}, 1, "Unknown command: explode_rm"},
		{"bad flag", []string{"stats", "-nope"}, 1, "flag provided but not defined"},
		{"warm without folder", []string{"warm"}, 1, "warm needs a primary folder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCmd(t, "", tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(errOut, tt.wantErr) {
				t.Errorf("stderr %q does not contain %q", errOut, tt.wantErr)
			}
		})
	}

	code, out, _ := runCmd(t, "", "help")
	if code != 0 || !strings.Contains(out, "Commands:") {
		t.Errorf("help: exit %d, output %q", code, out)
	}
}

func TestWarmAndStats(t *testing.T) {
	t.Setenv("THUMBNAIL_WIDTH", "32")
	t.Setenv("THUMBNAIL_HEIGHT", "32")
	cacheDir := warmFixture(t)

	code, out, errOut := runCmd(t, "", "stats", "-cache-dir", cacheDir)
	if code != 0 {
		t.Fatalf("stats exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Entries:    2") {
		t.Errorf("Expected 2 entries, got:\n%s", out)
	}
	if !strings.Contains(out, "Temp files: 0") {
		t.Errorf("Expected no temp files, got:\n%s", out)
	}
}

func TestWarmUsesCacheDirEnv(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "from-env")
	t.Setenv("CACHE_DIR", cacheDir)
	primary := t.TempDir()
	testutil.WriteJPEG(t, filepath.Join(primary, "only.jpg"), 20, 20)

	code, out, errOut := runCmd(t, "", "warm", primary)
	if code != 0 {
		t.Fatalf("warm exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Warmed 1 of 1") {
		t.Errorf("Unexpected output: %s", out)
	}
	entries, err := os.ReadDir(cacheDir)
	if err != nil || len(entries) != 1 {
		t.Errorf("Expected one entry in %s, got %d (%v)", cacheDir, len(entries), err)
	}
}

func TestWarmErrors(t *testing.T) {
	primary := t.TempDir()
	testutil.WriteFile(t, filepath.Join(primary, "broken.jpg"), []byte("not a jpeg"))
	testutil.WriteJPEG(t, filepath.Join(primary, "fine.jpg"), 20, 20)
	cacheDir := filepath.Join(t.TempDir(), "cache")

	code, out, _ := runCmd(t, "", "warm", "-cache-dir", cacheDir, primary)
	if code != 0 {
		t.Errorf("Render failures should not fail the command, exit %d", code)
	}
	if !strings.Contains(out, "failed: ") || !strings.Contains(out, "(1 failed)") {
		t.Errorf("Expected one reported failure, got:\n%s", out)
	}

	code, _, errOut := runCmd(t, "", "warm", "-cache-dir", cacheDir, filepath.Join(primary, "missing"))
	if code != 1 || !strings.Contains(errOut, "directory not found") {
		t.Errorf("Expected missing folder error, exit %d: %s", code, errOut)
	}

	t.Setenv("THUMBNAIL_QUALITY", "0")
	code, _, errOut = runCmd(t, "", "warm", "-cache-dir", cacheDir, primary)
	if code != 1 || !strings.Contains(errOut, "thumbnail settings") {
		t.Errorf("Expected invalid settings error, exit %d: %s", code, errOut)
	}
}

func TestClear(t *testing.T) {
	t.Run("non-terminal without yes", func(t *testing.T) {
		setTerminal(t, false)
		cacheDir := warmFixture(t)
		code, _, errOut := runCmd(t, "", "clear", "-cache-dir", cacheDir)
		if code != 1 || !strings.Contains(errOut, "-yes") {
			t.Errorf("Expected refusal, exit %d: %s", code, errOut)
		}
	})

	t.Run("declined", func(t *testing.T) {
		setTerminal(t, true)
		cacheDir := warmFixture(t)
		code, out, _ := runCmd(t, "n\n", "clear", "-cache-dir", cacheDir)
		if code != 0 || !strings.Contains(out, "Aborted.") {
			t.Errorf("Expected abort, exit %d: %s", code, out)
		}
		if entries, _ := os.ReadDir(cacheDir); len(entries) != 2 {
			t.Errorf("Expected entries kept, found %d", len(entries))
		}
	})

	t.Run("confirmed", func(t *testing.T) {
		setTerminal(t, true)
		cacheDir := warmFixture(t)
		code, out, _ := runCmd(t, "Yes\n", "clear", "-cache-dir", cacheDir)
		if code != 0 || !strings.Contains(out, "Removed 2 files.") {
			t.Errorf("Expected removal, exit %d: %s", code, out)
		}
	})

	t.Run("yes flag", func(t *testing.T) {
		setTerminal(t, false)
		cacheDir := warmFixture(t)
		code, out, _ := runCmd(t, "", "clear", "-cache-dir", cacheDir, "-yes")
		if code != 0 || !strings.Contains(out, "Removed 2 files.") {
			t.Errorf("Expected removal, exit %d: %s", code, out)
		}
	})
}

func TestPrune(t *testing.T) {
	cacheDir := warmFixture(t)
	entries, err := os.ReadDir(cacheDir)
	if err != nil || len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d (%v)", len(entries), err)
	}
	old := time.Now().Add(-48 * time.Hour)
	stale := filepath.Join(cacheDir, entries[0].Name())
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := runCmd(t, "", "prune", "-cache-dir", cacheDir, "-older-than", "24h")
	if code != 0 {
		t.Fatalf("prune exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Removed 1 files") {
		t.Errorf("Unexpected output: %s", out)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("Expected stale entry removed")
	}

	code, _, errOut = runCmd(t, "", "prune", "-cache-dir", cacheDir, "-older-than", "0s")
	if code != 1 || !strings.Contains(errOut, "must be positive") {
		t.Errorf("Expected rejection of zero age, exit %d: %s", code, errOut)
	}
}

func TestMissingCacheDir(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "typo")

	for _, args := range [][]string{
		{"stats"},
		{"prune"},
		{"clear", "-yes"},
	} {
		code, _, errOut := runCmd(t, "", append(args, "-cache-dir", cacheDir)...)
		if code != 1 || !strings.Contains(errOut, "does not exist") {
			t.Errorf("%s: exit %d: %s", args[0], code, errOut)
		}
		if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
			t.Fatalf("%s: expected %s not to be created, stat error = %v", args[0], cacheDir, err)
		}
	}
}

func TestUnusableCacheDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	testutil.WriteFile(t, file, []byte("x"))

	code, _, errOut := runCmd(t, "", "stats", "-cache-dir", file)
	if code != 1 || !strings.Contains(errOut, "is not a directory") {
		t.Errorf("stats: exit %d: %s", code, errOut)
	}

	code, _, errOut = runCmd(t, "", "warm", "-cache-dir", filepath.Join(file, "cache"), t.TempDir())
	if code != 1 || !strings.Contains(errOut, "not usable") {
		t.Errorf("warm: exit %d: %s", code, errOut)
	}
}

func TestConfirmed(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{" YES ", true},
		{"n", false},
		{"", false},
		{"yep", false},
	}
	for _, tt := range tests {
		if got := confirmed(tt.in); got != tt.want {
			t.Errorf("confirmed(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"stats", "stats"},
		{"warm-up_2", "warm-up_2"},
		{"a b", "a_b"},
		{"$(id)", "__id_"},
		{"\x1b[31m", "__31m"},
	}
	for _, tt := range tests {
		if got := sanitizeCommand(tt.in); got != tt.want {
			t.Errorf("sanitizeCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
