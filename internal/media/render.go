package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"pair-viewer/internal/filesystem"
	"pair-viewer/internal/logging"
	"pair-viewer/internal/metrics"
	"pair-viewer/internal/thumbcache"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

// Render stages reported in RenderError.
const (
	StageDecode     = "decode"
	StageDimensions = "dimensions"
	StageEncode     = "encode"
)

// ErrInvalidDimensions is returned for images with a zero or negative side.
var ErrInvalidDimensions = errors.New("invalid image dimensions")

// RenderError reports which stage of rendering failed for a file.
type RenderError struct {
	Path  string
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Renderer turns a source image into a padded JPEG thumbnail.
type Renderer struct {
	retry filesystem.RetryConfig
}

// NewRenderer returns a Renderer using the default retry configuration.
func NewRenderer() *Renderer {
	return &Renderer{retry: filesystem.DefaultRetryConfig()}
}

// Render fits the image at sourcePath inside params.Width x params.Height,
// preserving aspect ratio, and centres it on a canvas of params.Background.
// Images smaller than the box are scaled up. It matches thumbcache.RenderFunc.
func (r *Renderer) Render(sourcePath string, params thumbcache.RenderParams) ([]byte, error) {
	start := time.Now()

	img, err := r.decode(sourcePath)
	observePhase("decode", start)
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error_decode").Inc()
		return nil, &RenderError{Path: sourcePath, Stage: StageDecode, Err: err}
	}

	srcW, srcH := img.Bounds().Dx(), img.Bounds().Dy()
	if srcW <= 0 || srcH <= 0 || params.Width <= 0 || params.Height <= 0 {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error_dimensions").Inc()
		return nil, &RenderError{
			Path:  sourcePath,
			Stage: StageDimensions,
			Err:   fmt.Errorf("%w: source %dx%d, target %dx%d", ErrInvalidDimensions, srcW, srcH, params.Width, params.Height),
		}
	}

	phase := time.Now()
	newW, newH := fitDimensions(srcW, srcH, params.Width, params.Height)
	resized := imaging.Resize(img, newW, newH, resampleFilter(params.FilterName()))
	observePhase("resize", phase)

	phase = time.Now()
	canvas := imaging.New(params.Width, params.Height, params.Background)
	offset := image.Pt((params.Width-newW)/2, (params.Height-newH)/2)
	canvas = imaging.Overlay(canvas, resized, offset, 1.0)
	observePhase("compose", phase)

	phase = time.Now()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: params.Quality}); err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error_encode").Inc()
		return nil, &RenderError{Path: sourcePath, Stage: StageEncode, Err: err}
	}
	observePhase("encode", phase)
	observePhase("total", start)

	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
	logging.Debug("Rendered thumbnail %s: %dx%d -> %dx%d at (%d,%d)",
		sourcePath, srcW, srcH, newW, newH, offset.X, offset.Y)
	return buf.Bytes(), nil
}

// decode opens and decodes path with EXIF orientation applied. Decoder
// panics on malformed input are reported as errors.
func (r *Renderer) decode(path string) (img image.Image, err error) {
	f, err := filesystem.OpenWithRetry(path, r.retry)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logging.Warn("failed to close image file %s: %v", path, closeErr)
		}
	}()

	defer func() {
		if rec := recover(); rec != nil {
			img, err = nil, fmt.Errorf("decoder panic: %v", rec)
		}
	}()

	return imaging.Decode(f, imaging.AutoOrientation(true))
}

// fitDimensions scales w x h by min(maxW/w, maxH/h) using integer arithmetic
// so exact ratios are not lost to floating point rounding. Neither side is
// allowed below one pixel.
func fitDimensions(w, h, maxW, maxH int) (int, int) {
	var newW, newH int
	if maxW*h <= maxH*w {
		newW = maxW
		newH = h * maxW / w
	} else {
		newH = maxH
		newW = w * maxH / h
	}
	return max(newW, 1), max(newH, 1)
}

func resampleFilter(name string) imaging.ResampleFilter {
	switch name {
	case thumbcache.FilterCatmullRom:
		return imaging.CatmullRom
	case thumbcache.FilterBox:
		return imaging.Box
	default:
		return imaging.Lanczos
	}
}

func observePhase(phase string, since time.Time) {
	metrics.ThumbnailGenerationDuration.WithLabelValues(phase).Observe(time.Since(since).Seconds())
}
