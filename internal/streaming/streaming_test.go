package streaming

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

// deadlineWriter records chunk sizes and deadlines and can fail a write.
type deadlineWriter struct {
	header    http.Header
	body      bytes.Buffer
	chunks    []int
	deadlines []time.Time
	flushes   int
	failAt    int
	failWith  error
}

func newDeadlineWriter() *deadlineWriter {
	return &deadlineWriter{header: make(http.Header), failAt: -1}
}

func (d *deadlineWriter) Header() http.Header { return d.header }
func (d *deadlineWriter) WriteHeader(int)     {}

func (d *deadlineWriter) Write(p []byte) (int, error) {
	if len(d.chunks) == d.failAt {
		return 0, d.failWith
	}
	d.chunks = append(d.chunks, len(p))
	return d.body.Write(p)
}

func (d *deadlineWriter) SetWriteDeadline(t time.Time) error {
	d.deadlines = append(d.deadlines, t)
	return nil
}

func (d *deadlineWriter) Flush() { d.flushes++ }

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestWriteChunksWithDeadlines(t *testing.T) {
	w := newDeadlineWriter()
	data := payload(250)

	n, err := Write(context.Background(), w, data, Config{WriteTimeout: time.Second, ChunkSize: 100})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 250 || !bytes.Equal(w.body.Bytes(), data) {
		t.Fatalf("Expected all 250 bytes written, got %d", n)
	}

	wantChunks := []int{100, 100, 50}
	if len(w.chunks) != len(wantChunks) {
		t.Fatalf("chunks = %v, want %v", w.chunks, wantChunks)
	}
	for i := range wantChunks {
		if w.chunks[i] != wantChunks[i] {
			t.Errorf("chunk %d = %d, want %d", i, w.chunks[i], wantChunks[i])
		}
	}

	// One deadline per chunk plus the final reset.
	if len(w.deadlines) != 4 {
		t.Fatalf("Expected 4 deadline calls, got %d", len(w.deadlines))
	}
	if !w.deadlines[3].IsZero() {
		t.Error("Expected the deadline to be cleared after writing")
	}
	if w.flushes != 2 {
		t.Errorf("Expected a flush between chunks, got %d", w.flushes)
	}
}

func TestWriteWithoutDeadlineSupport(t *testing.T) {
	rec := httptest.NewRecorder()
	data := payload(1000)

	n, err := Write(context.Background(), rec, data, DefaultConfig())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 1000 || !bytes.Equal(rec.Body.Bytes(), data) {
		t.Errorf("Expected body written unchanged, got %d bytes", n)
	}
}

func TestWriteZeroConfig(t *testing.T) {
	w := newDeadlineWriter()
	if _, err := Write(context.Background(), w, payload(300), Config{}); err != nil {
		t.Fatal(err)
	}
	if len(w.chunks) != 1 || len(w.deadlines) != 0 {
		t.Errorf("Expected a single write without deadlines, got chunks=%v deadlines=%d", w.chunks, len(w.deadlines))
	}
}

func TestWriteErrors(t *testing.T) {
	boom := errors.New("broken pipe")

	tests := []struct {
		name     string
		failWith error
		want     error
	}{
		{"deadline", os.ErrDeadlineExceeded, ErrWriteTimeout},
		{"other", boom, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newDeadlineWriter()
			w.failAt = 1
			w.failWith = tt.failWith

			n, err := Write(context.Background(), w, payload(30), Config{WriteTimeout: time.Second, ChunkSize: 10})
			if !errors.Is(err, tt.want) {
				t.Errorf("Write() error = %v, want %v", err, tt.want)
			}
			if n != 10 {
				t.Errorf("Expected 10 bytes before the failure, got %d", n)
			}
		})
	}
}

func TestWriteClientGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := newDeadlineWriter()
	n, err := Write(ctx, w, payload(10), DefaultConfig())
	if !errors.Is(err, ErrClientGone) {
		t.Errorf("Write() error = %v, want ErrClientGone", err)
	}
	if n != 0 || len(w.chunks) != 0 {
		t.Errorf("Expected nothing written, got %d", n)
	}
}

func TestWriteEmpty(t *testing.T) {
	w := newDeadlineWriter()
	n, err := Write(context.Background(), w, nil, DefaultConfig())
	if err != nil || n != 0 {
		t.Errorf("Write(nil) = %d, %v", n, err)
	}
}
