package streaming

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"pair-viewer/internal/logging"
)

// Sentinel errors for streaming operations.
var (
	// ErrWriteTimeout indicates that a chunk could not be written before its
	// deadline. This typically occurs when a client is receiving data too
	// slowly.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates that the request context ended before the
	// body was fully written.
	ErrClientGone = errors.New("client disconnected")
)

// Config configures Write.
type Config struct {
	// WriteTimeout bounds each chunk. Zero disables deadlines.
	WriteTimeout time.Duration
	// ChunkSize is the size of chunks to write (0 = one write)
	ChunkSize int
}

// DefaultConfig returns the settings used for image responses.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 15 * time.Second,
		ChunkSize:    64 * 1024, // 64KB chunks
	}
}

// Write sends data to w in chunks. Each chunk gets its own write deadline
// through http.ResponseController, so a stalled client cannot pin the
// handler even though the server has no overall write timeout. Writers
// that do not support deadlines or flushing are written to without them.
func Write(ctx context.Context, w http.ResponseWriter, data []byte, config Config) (int64, error) {
	rc := http.NewResponseController(w)

	deadlines := config.WriteTimeout > 0
	if deadlines {
		defer func() {
			// Keep-alive connections must not inherit the deadline.
			_ = rc.SetWriteDeadline(time.Time{})
		}()
	}

	chunk := config.ChunkSize
	if chunk <= 0 {
		chunk = len(data)
	}

	var written int64
	start := time.Now()
	for len(data) > 0 {
		if ctx.Err() != nil {
			return written, ErrClientGone
		}

		if deadlines {
			err := rc.SetWriteDeadline(time.Now().Add(config.WriteTimeout))
			if errors.Is(err, http.ErrNotSupported) {
				deadlines = false
			}
		}

		n := min(chunk, len(data))
		m, err := w.Write(data[:n])
		written += int64(m)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return written, ErrWriteTimeout
			}
			if ctx.Err() != nil {
				return written, ErrClientGone
			}
			return written, err
		}
		data = data[n:]

		if len(data) > 0 {
			_ = rc.Flush()
		}
	}

	logging.Debug("Stream completed: %d bytes in %v", written, time.Since(start))
	return written, nil
}
