package media

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"pair-viewer/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

// libvips cannot be restarted once shut down, so these tests never call
// InitVips; previews in this package are exercised on the pure Go path.

func TestIsVipsAvailableWithoutInit(t *testing.T) {
	if IsVipsAvailable() {
		t.Error("Expected libvips to be unavailable before InitVips")
	}
	// Shutting down an uninitialized library is a no-op.
	ShutdownVips()
}

func TestVipsLogConfig(t *testing.T) {
	tests := []struct {
		app       logging.LogLevel
		wantLevel vips.LogLevel
		forwarded []vips.LogLevel
		dropped   []vips.LogLevel
	}{
		{logging.LevelDebug, vips.LogLevelInfo, []vips.LogLevel{vips.LogLevelError, vips.LogLevelWarning, vips.LogLevelInfo}, nil},
		{logging.LevelInfo, vips.LogLevelWarning, []vips.LogLevel{vips.LogLevelCritical, vips.LogLevelWarning}, []vips.LogLevel{vips.LogLevelInfo}},
		{logging.LevelWarn, vips.LogLevelError, []vips.LogLevel{vips.LogLevelError}, []vips.LogLevel{vips.LogLevelWarning}},
		{logging.LevelError, vips.LogLevelCritical, []vips.LogLevel{vips.LogLevelCritical}, []vips.LogLevel{vips.LogLevelWarning}},
	}

	var buf bytes.Buffer
	logging.SetOutput(&buf)
	defer logging.SetOutput(os.Stderr)
	orig := logging.GetLevel()
	defer logging.SetLevel(orig)
	// Capture everything the handler forwards.
	logging.SetLevel(logging.LevelDebug)

	for _, tt := range tests {
		t.Run(tt.app.String(), func(t *testing.T) {
			level, handler := vipsLogConfig(tt.app)
			if level != tt.wantLevel {
				t.Errorf("vips level = %v, want %v", level, tt.wantLevel)
			}

			for _, l := range tt.forwarded {
				buf.Reset()
				handler("VIPS", l, "message")
				if !strings.Contains(buf.String(), "[VIPS] message") {
					t.Errorf("Expected level %v to be forwarded, got %q", l, buf.String())
				}
			}
			for _, l := range tt.dropped {
				buf.Reset()
				handler("VIPS", l, "message")
				if buf.Len() != 0 {
					t.Errorf("Expected level %v to be dropped, got %q", l, buf.String())
				}
			}
		})
	}
}
