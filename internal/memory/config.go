package memory

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"pair-viewer/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The remainder covers libvips and decoder buffers allocated outside
// the Go heap.
const DefaultMemoryRatio = 0.80

// Sources reported in Result.Source.
const (
	SourceNone        = "none"
	SourceGoMemLimit  = "GOMEMLIMIT"
	SourceMemoryLimit = "MEMORY_LIMIT"
)

// Result describes how the soft memory limit was configured.
type Result struct {
	Configured     bool
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// ConfigureFromEnv applies a soft memory limit derived from the process
// environment. Call it before the first large allocation.
func ConfigureFromEnv() Result {
	return Configure(os.LookupEnv)
}

// Configure applies a soft memory limit derived from lookup:
//
//   - GOMEMLIMIT set: the runtime already applied it; it is only reported.
//   - MEMORY_LIMIT set (bytes, or with a KiB/MiB/GiB suffix): the limit is
//     MEMORY_LIMIT * MEMORY_RATIO.
//   - neither: nothing is changed.
func Configure(lookup LookupFunc) Result {
	if v, ok := lookup("GOMEMLIMIT"); ok && v != "" {
		res := Result{Source: SourceGoMemLimit}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			res.Configured = true
			res.GoMemLimit = limit
		}
		logging.Debug("GOMEMLIMIT set via environment: %s", v)
		return res
	}

	raw, ok := lookup("MEMORY_LIMIT")
	if !ok || raw == "" {
		return Result{Source: SourceNone}
	}
	containerLimit, err := ParseBytes(raw)
	if err != nil || containerLimit <= 0 {
		logging.Warn("Ignoring MEMORY_LIMIT %q: not a positive size", raw)
		return Result{Source: SourceNone}
	}

	ratio := DefaultMemoryRatio
	if v, ok := lookup("MEMORY_RATIO"); ok && v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		switch {
		case err != nil:
			logging.Warn("Ignoring MEMORY_RATIO %q: %v", v, err)
		case parsed <= 0 || parsed > 1:
			logging.Warn("Ignoring MEMORY_RATIO %q: must be in (0, 1]", v)
		default:
			ratio = parsed
		}
	}

	limit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(limit)

	return Result{
		Configured:     true,
		Source:         SourceMemoryLimit,
		ContainerLimit: containerLimit,
		GoMemLimit:     limit,
		Ratio:          ratio,
	}
}

var byteSuffixes = []struct {
	suffix string
	mult   int64
}{
	{"KiB", 1 << 10},
	{"MiB", 1 << 20},
	{"GiB", 1 << 30},
	{"TiB", 1 << 40},
	{"B", 1},
}

// ParseBytes parses a byte count with an optional binary suffix, the form
// GOMEMLIMIT accepts ("512MiB", "2GiB", "1048576").
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	mult := int64(1)
	for _, bs := range byteSuffixes {
		if strings.HasSuffix(s, bs.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, bs.suffix))
			mult = bs.mult
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size: %w", err)
	}
	if n > math.MaxInt64/mult {
		return 0, fmt.Errorf("byte size %s overflows", s)
	}
	return n * mult, nil
}
