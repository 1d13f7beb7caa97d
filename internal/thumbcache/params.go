package thumbcache

import (
	"errors"
	"fmt"
	"image/color"
)

// Resampling filter names accepted in RenderParams.Filter.
const (
	FilterLanczos    = "lanczos"
	FilterCatmullRom = "catmullrom"
	FilterBox        = "box"
)

// ErrInvalidParams is returned for render parameters that cannot produce a
// thumbnail.
var ErrInvalidParams = errors.New("invalid render parameters")

// DefaultBackground is the padding color around a fitted thumbnail.
var DefaultBackground = color.NRGBA{R: 0xF9, G: 0xF9, B: 0xF9, A: 0xFF}

// RenderParams is the full set of knobs that influence rendered output.
// Every field takes part in the cache key.
type RenderParams struct {
	Width      int
	Height     int
	Quality    int
	Background color.NRGBA
	Filter     string
}

// DefaultRenderParams returns the 150x150, quality 85 thumbnail settings.
func DefaultRenderParams() RenderParams {
	return RenderParams{
		Width:      150,
		Height:     150,
		Quality:    85,
		Background: DefaultBackground,
		Filter:     FilterLanczos,
	}
}

// Validate reports whether p can be rendered.
func (p RenderParams) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidParams, p.Width, p.Height)
	}
	if p.Quality < 1 || p.Quality > 100 {
		return fmt.Errorf("%w: quality %d outside 1..100", ErrInvalidParams, p.Quality)
	}
	if p.Background.A != 0xFF {
		return fmt.Errorf("%w: background must be opaque", ErrInvalidParams)
	}
	switch p.Filter {
	case "", FilterLanczos, FilterCatmullRom, FilterBox:
	default:
		return fmt.Errorf("%w: unknown filter %q", ErrInvalidParams, p.Filter)
	}
	return nil
}

// FilterName returns the effective filter, treating "" as lanczos.
func (p RenderParams) FilterName() string {
	if p.Filter == "" {
		return FilterLanczos
	}
	return p.Filter
}

// Summary is the canonical text form of p used in cache keys.
func (p RenderParams) Summary() string {
	bg := p.Background
	return fmt.Sprintf("%dx%d_q%d_bg%02x%02x%02x%02x_%s",
		p.Width, p.Height, p.Quality, bg.R, bg.G, bg.B, bg.A, p.FilterName())
}
