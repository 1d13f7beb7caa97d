// Package metadata extracts the few EXIF display fields pair-viewer shows for
// a selected photo. Extraction is best-effort and never fails the caller.
package metadata

import (
	"fmt"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"pair-viewer/internal/filesystem"
	"pair-viewer/internal/logging"
	"pair-viewer/internal/metrics"
)

// ExifTimeLayout is the timestamp layout EXIF uses for date fields.
const ExifTimeLayout = "2006:01:02 15:04:05"

// ImageMetadata holds optional display fields. Every field is independently
// optional; a file without EXIF yields the zero value.
type ImageMetadata struct {
	CaptureTime string `json:"capture_time,omitempty"`
	CameraMake  string `json:"camera_make,omitempty"`
	CameraModel string `json:"camera_model,omitempty"`
	LensModel   string `json:"lens_model,omitempty"`
}

// IsEmpty reports whether no field was found.
func (m ImageMetadata) IsEmpty() bool {
	return m == ImageMetadata{}
}

// CaptureTimeValue parses CaptureTime. The second result is false when the
// field is absent or not in EXIF form.
func (m ImageMetadata) CaptureTimeValue() (time.Time, bool) {
	if m.CaptureTime == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(ExifTimeLayout, m.CaptureTime, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// captureTimeFields is the order of preference for the capture timestamp.
var captureTimeFields = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

// Extractor reads EXIF from image files.
type Extractor struct {
	retry filesystem.RetryConfig
}

// NewExtractor returns an Extractor using the default retry configuration.
func NewExtractor() *Extractor {
	return &Extractor{retry: filesystem.DefaultRetryConfig()}
}

// Extract returns the display fields of the image at path. Any open or
// decode error is logged and yields an empty ImageMetadata.
func (e *Extractor) Extract(path string) ImageMetadata {
	x, err := e.decode(path)
	if err != nil {
		logging.Debug("Metadata: no EXIF for %s: %v", path, err)
		metrics.MetadataExtractionsTotal.WithLabelValues("error").Inc()
		return ImageMetadata{}
	}

	var md ImageMetadata
	for _, field := range captureTimeFields {
		if v := stringField(x, field); v != "" {
			md.CaptureTime = v
			break
		}
	}
	md.CameraMake = stringField(x, exif.Make)
	md.CameraModel = stringField(x, exif.Model)
	md.LensModel = stringField(x, exif.LensModel)

	if md.IsEmpty() {
		metrics.MetadataExtractionsTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.MetadataExtractionsTotal.WithLabelValues("found").Inc()
	}
	return md
}

func (e *Extractor) decode(path string) (x *exif.Exif, err error) {
	f, err := filesystem.OpenWithRetry(path, e.retry)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logging.Warn("failed to close %s: %v", path, closeErr)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			x, err = nil, fmt.Errorf("exif decoder panic: %v", r)
		}
	}()

	return exif.Decode(f)
}

func stringField(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}
