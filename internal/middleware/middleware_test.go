package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"pair-viewer/internal/metrics"
)

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newStatusRecorder(rec)

	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected default status 200, got %d", rw.statusCode)
	}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected first status to stick, got %d", rw.statusCode)
	}

	n, err := rw.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if rw.bytesWritten != 5 {
		t.Errorf("Expected 5 bytes recorded, got %d", rw.bytesWritten)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected underlying status 404, got %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if len(seen) != 36 {
			t.Errorf("Expected a UUID, got %q", seen)
		}
		if rec.Header().Get(RequestIDHeader) != seen {
			t.Errorf("Expected response header to echo %q, got %q", seen, rec.Header().Get(RequestIDHeader))
		}
	})

	t.Run("client supplied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		h.ServeHTTP(httptest.NewRecorder(), req)
		if seen != "abc-123" {
			t.Errorf("Expected client ID to be reused, got %q", seen)
		}
	})

	t.Run("malformed client id replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "bad id\x1b[31m")
		h.ServeHTTP(httptest.NewRecorder(), req)
		if seen == "bad id\x1b[31m" || len(seen) != 36 {
			t.Errorf("Expected malformed ID to be replaced, got %q", seen)
		}
	})
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  func(c *LoggingConfig)
		path    string
		wantLog bool
	}{
		{"api request", nil, "/api/status", true},
		{"static skipped", nil, "/static/js/app.js", false},
		{"static logged when enabled", func(c *LoggingConfig) { c.LogStaticFiles = true }, "/static/js/app.js", true},
		{"health logged by default", nil, "/healthz", true},
		{"health skipped when disabled", func(c *LoggingConfig) { c.LogHealthChecks = false }, "/healthz", false},
		{"skip path", func(c *LoggingConfig) { c.SkipPaths = []string{"/api/image"} }, "/api/image/thumbnail/1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := DefaultLoggingConfig()
			cfg.Output = &buf
			if tt.config != nil {
				tt.config(&cfg)
			}

			h := RequestID(Logger(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTeapot)
				_, _ = w.Write([]byte("body"))
			})))

			req := httptest.NewRequest(http.MethodGet, tt.path+"?q=1", nil)
			req.Header.Set("User-Agent", "test agent")
			req.Header.Set(RequestIDHeader, "req-1")
			h.ServeHTTP(httptest.NewRecorder(), req)

			line := buf.String()
			if !tt.wantLog {
				if line != "" {
					t.Errorf("Expected no log line, got %q", line)
				}
				return
			}

			fields := strings.Fields(line)
			// date time ip method stem query status bytes ms request-id "test agent" referer
			if len(fields) != 13 {
				t.Fatalf("Expected 13 fields, got %d: %q", len(fields), line)
			}
			if fields[3] != "GET" || fields[4] != tt.path || fields[5] != "q=1" {
				t.Errorf("Unexpected request fields in %q", line)
			}
			if fields[6] != "418" || fields[7] != "4" {
				t.Errorf("Expected status 418 and 4 bytes in %q", line)
			}
			if fields[9] != "req-1" {
				t.Errorf("Expected request id in %q", line)
			}
			if !strings.Contains(line, `"test agent"`) {
				t.Errorf("Expected quoted user agent in %q", line)
			}
		})
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := map[string]string{
		"plain":              "plain",
		"line\nbreak":        "line break",
		"cr\r\nlf":           "cr  lf",
		"null\x00byte":       "nullbyte",
		"\x1b[31mred\x1b[0m": "[31mred[0m",
		"tab\tkept":          "tab\tkept",
		"del\x7f":            "del",
	}
	for in, want := range tests {
		if got := sanitizeLogField(in); got != want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:5555"
	if got := clientIP(req); got != "10.0.0.5" {
		t.Errorf("clientIP() = %s", got)
	}
	req.Header.Set("X-Real-IP", "10.0.0.6")
	if got := clientIP(req); got != "10.0.0.6" {
		t.Errorf("clientIP() with X-Real-IP = %s", got)
	}
	req.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1")
	if got := clientIP(req); got != "192.168.1.1" {
		t.Errorf("clientIP() with X-Forwarded-For = %s", got)
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics(DefaultMetricsConfig()))
	r.HandleFunc("/api/image/thumbnail/{index}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/image/thumbnail/{index}", "404")
	before := testutil.ToFloat64(counter)

	for _, idx := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/image/thumbnail/"+idx, nil))
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("Expected 3 requests under one template series, got %v", got)
	}

	healthBefore := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")); got != healthBefore {
		t.Error("Expected health checks to be skipped")
	}
}

func TestCompression(t *testing.T) {
	body := strings.Repeat(`{"key":"value"}`, 200)

	tests := []struct {
		name           string
		acceptEncoding string
		contentType    string
		wantGzip       bool
	}{
		{"json compressed", "gzip, deflate", "application/json", true},
		{"json with charset", "gzip", "application/json; charset=utf-8", true},
		{"no accept", "", "application/json", false},
		{"jpeg untouched", "gzip", "image/jpeg", false},
		{"sniffed text", "gzip", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				_, _ = io.WriteString(w, body[:len(body)/2])
				_, _ = io.WriteString(w, body[len(body)/2:])
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			gotGzip := rec.Header().Get("Content-Encoding") == "gzip"
			if gotGzip != tt.wantGzip {
				t.Fatalf("Content-Encoding gzip = %v, want %v", gotGzip, tt.wantGzip)
			}

			got := rec.Body.Bytes()
			if gotGzip {
				zr, err := gzip.NewReader(rec.Body)
				if err != nil {
					t.Fatalf("gzip.NewReader() error = %v", err)
				}
				if got, err = io.ReadAll(zr); err != nil {
					t.Fatalf("Failed to decompress: %v", err)
				}
			}
			if string(got) != body {
				t.Error("Expected body to survive unchanged")
			}
		})
	}
}

func TestCompressionPreservesStatus(t *testing.T) {
	h := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}
