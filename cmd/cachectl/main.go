package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"pair-viewer/internal/media"
	"pair-viewer/internal/pairing"
	"pair-viewer/internal/startup"
	"pair-viewer/internal/thumbcache"
	"pair-viewer/internal/workers"

	"golang.org/x/term"
)

const (
	// Default thumbnail cache directory, matching the server
	defaultCacheDir = "./app_cache"
	// Default age for prune
	defaultPruneAge = 30 * 24 * time.Hour
)

// stdinIsTerminal reports whether confirmation prompts can be answered.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // G115 - file descriptors fit in int
}

func main() {
	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	startup.LoadEnvFile(envOr("ENV_FILE", ".env"))

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	command, rest := args[0], args[1:]
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cacheDir := fs.String("cache-dir", envOr("CACHE_DIR", defaultCacheDir), "thumbnail cache directory")

	var err error
	switch command {
	case "stats":
		if err = fs.Parse(rest); err == nil {
			var cache *thumbcache.Cache
			if cache, err = openExistingCache(*cacheDir); err == nil {
				err = showStats(cache, stdout)
			}
		}
	case "clear":
		yes := fs.Bool("yes", false, "do not ask for confirmation")
		if err = fs.Parse(rest); err == nil {
			err = clearCache(openCache(*cacheDir), *yes, stdin, stdout)
		}
	case "prune":
		olderThan := fs.Duration("older-than", defaultPruneAge, "remove entries not modified for this long")
		if err = fs.Parse(rest); err == nil {
			err = pruneCache(openCache(*cacheDir), *olderThan, stdout)
		}
	case "warm":
		n := fs.Int("workers", workers.ForCPU(0), "concurrent renders")
		if err = fs.Parse(rest); err == nil {
			if fs.NArg() < 1 || fs.NArg() > 2 {
				err = errors.New("warm needs a primary folder and an optional original folder")
			} else {
				err = warmCache(ctx, openCache(*cacheDir), *n, fs.Arg(0), fs.Arg(1), stdout)
			}
		}
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage(stderr)
		return 1
	}

	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func openCache(dir string) *thumbcache.Cache {
	return thumbcache.New(dir)
}

// openExistingCache opens dir only if it is already a directory, so a
// mistyped -cache-dir is reported instead of created.
func openExistingCache(dir string) (*thumbcache.Cache, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("cache directory %s does not exist", dir)
		}
		return nil, fmt.Errorf("cache directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cache directory %s is not a directory", dir)
	}
	return openCache(dir), nil
}

func showStats(cache *thumbcache.Cache, out io.Writer) error {
	if !cache.Enabled() {
		return fmt.Errorf("cache directory %s is not usable", cache.Dir())
	}
	stats, err := cache.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Directory:  %s\n", cache.Dir())
	fmt.Fprintf(out, "Entries:    %d\n", stats.Entries)
	fmt.Fprintf(out, "Size:       %s\n", formatBytes(stats.Bytes))
	fmt.Fprintf(out, "Temp files: %d\n", stats.Temp)
	return nil
}

func clearCache(cache *thumbcache.Cache, yes bool, in io.Reader, out io.Writer) error {
	if !cache.Enabled() {
		return fmt.Errorf("cache directory %s is not usable", cache.Dir())
	}
	if !yes {
		if !stdinIsTerminal() {
			return errors.New("refusing to clear without -yes when stdin is not a terminal")
		}
		fmt.Fprintf(out, "Remove all thumbnails in %s? [y/N]: ", cache.Dir())
		answer, _ := bufio.NewReader(in).ReadString('\n')
		if !confirmed(answer) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	removed, err := cache.Clear()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %d files.\n", removed)
	return nil
}

func pruneCache(cache *thumbcache.Cache, olderThan time.Duration, out io.Writer) error {
	if olderThan <= 0 {
		return fmt.Errorf("-older-than must be positive, got %v", olderThan)
	}
	if !cache.Enabled() {
		return fmt.Errorf("cache directory %s is not usable", cache.Dir())
	}
	removed, err := cache.Prune(olderThan)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %d files older than %v.\n", removed, olderThan)
	return nil
}

// warmCache renders the thumbnail of every pair in the folders so the
// first visit in the browser is served from the cache.
func warmCache(ctx context.Context, cache *thumbcache.Cache, n int, primaryDir, originalDir string, out io.Writer) error {
	if !cache.Enabled() {
		return fmt.Errorf("cache directory %s is not usable", cache.Dir())
	}
	params := startup.ThumbnailParamsFromEnv()
	if err := params.Validate(); err != nil {
		return fmt.Errorf("thumbnail settings: %w", err)
	}

	pairs, err := pairing.Match(primaryDir, originalDir)
	if err != nil {
		return err
	}

	gen := media.NewThumbnailGenerator(cache, nil, params)
	start := time.Now()
	var rendered, failed atomic.Int64
	var outMu sync.Mutex

	err = workers.Each(ctx, n, pairs, func(_ context.Context, p pairing.ImagePair) {
		if _, err := gen.GetThumbnail(p.PrimaryPath); err != nil {
			failed.Add(1)
			outMu.Lock()
			fmt.Fprintf(out, "  failed: %s: %v\n", p.PrimaryPath, err)
			outMu.Unlock()
			return
		}
		rendered.Add(1)
	})

	fmt.Fprintf(out, "Warmed %d of %d thumbnails in %v (%d failed).\n",
		rendered.Load(), len(pairs), time.Since(start).Round(time.Millisecond), failed.Load())
	return err
}

func confirmed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Pair Viewer Thumbnail Cache")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: cachectl <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  stats                          - Show cache size")
	fmt.Fprintln(w, "  clear [-yes]                   - Remove every cached thumbnail")
	fmt.Fprintln(w, "  prune [-older-than 720h]       - Remove thumbnails not refreshed recently")
	fmt.Fprintln(w, "  warm [-workers N] <primary> [original]")
	fmt.Fprintln(w, "                                 - Render thumbnails for a folder pair")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Every command accepts -cache-dir DIR.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  CACHE_DIR - Thumbnail cache directory (default: %s)\n", defaultCacheDir)
	fmt.Fprintln(w, "  THUMBNAIL_WIDTH, THUMBNAIL_HEIGHT, THUMBNAIL_QUALITY - Render settings for warm")
	fmt.Fprintln(w, "  ENV_FILE  - Optional .env file (default: .env)")
}
