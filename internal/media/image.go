package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io/fs"
	"math"

	"pair-viewer/internal/filesystem"
	"pair-viewer/internal/logging"
	"pair-viewer/internal/metrics"
	"pair-viewer/internal/thumbcache"

	"github.com/disintegration/imaging"
)

const (
	// MaxImageDimension is the default longest side of a preview.
	MaxImageDimension = 4096

	// MaxImagePixels caps the decoded preview size.
	// A 20MP image uses ~80MB in NRGBA.
	MaxImagePixels = 20_000_000

	// PreviewQuality is the JPEG quality of previews.
	PreviewQuality = 90
)

// RenderPreview returns an upright JPEG of the image at path whose longest
// side is at most maxDimension. Previews are not cached.
func RenderPreview(path string, maxDimension int) ([]byte, error) {
	if maxDimension <= 0 {
		maxDimension = MaxImageDimension
	}

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", thumbcache.ErrSourceNotFound, path)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", thumbcache.ErrSourceNotFound, path)
	}

	if IsVipsAvailable() {
		data, err := previewWithVips(path, maxDimension)
		if err == nil {
			metrics.PreviewRendersTotal.WithLabelValues("vips", "success").Inc()
			return data, nil
		}
		metrics.PreviewRendersTotal.WithLabelValues("vips", "error").Inc()
		logging.Debug("vips preview failed for %s, falling back to imaging: %v", path, err)
	}

	img, err := LoadImageConstrained(path, maxDimension, MaxImagePixels)
	if err != nil {
		metrics.PreviewRendersTotal.WithLabelValues("imaging", "error").Inc()
		return nil, &RenderError{Path: path, Stage: StageDecode, Err: err}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: PreviewQuality}); err != nil {
		metrics.PreviewRendersTotal.WithLabelValues("imaging", "error").Inc()
		return nil, &RenderError{Path: path, Stage: StageEncode, Err: err}
	}
	metrics.PreviewRendersTotal.WithLabelValues("imaging", "success").Inc()
	return buf.Bytes(), nil
}

// LoadImageConstrained loads an upright image, downscaling it when it
// exceeds maxDimension on either side or maxPixels in total.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (img image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img, err = nil, fmt.Errorf("decoder panic: %v", rec)
		}
	}()

	img, err = imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	// Orientation may have swapped the sides, so measure after decoding.
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	targetWidth, targetHeight := constrainDimensions(width, height, maxDimension, maxPixels)
	if targetWidth == width && targetHeight == height {
		return img, nil
	}

	logging.Debug("Constraining large image %s from %dx%d to %dx%d", path, width, height, targetWidth, targetHeight)
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}

// constrainDimensions returns width x height shrunk to fit both limits.
// Images already within limits are returned unchanged.
func constrainDimensions(width, height, maxDimension, maxPixels int) (int, int) {
	targetWidth, targetHeight := width, height

	if width > maxDimension || height > maxDimension {
		targetWidth, targetHeight = fitDimensions(width, height, maxDimension, maxDimension)
	}

	if maxPixels > 0 && targetWidth*targetHeight > maxPixels {
		scale := float64(maxPixels) / float64(targetWidth*targetHeight)
		// Area scales with the square of each side.
		side := math.Sqrt(scale)
		targetWidth = max(int(float64(targetWidth)*side), 1)
		targetHeight = max(int(float64(targetHeight)*side), 1)
	}

	return targetWidth, targetHeight
}

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns the stored image dimensions without fully
// decoding the image. EXIF orientation is not applied.
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}
