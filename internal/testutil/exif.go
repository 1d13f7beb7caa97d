// Package testutil builds image fixtures for tests: gradient JPEG/PNG files
// and minimal little-endian EXIF blocks that can be spliced into a JPEG.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"testing"
)

// EXIF tag IDs used by the fixtures.
const (
	TagMake              uint16 = 0x010F
	TagModel             uint16 = 0x0110
	TagOrientation       uint16 = 0x0112
	TagDateTime          uint16 = 0x0132
	TagExifIFDPointer    uint16 = 0x8769
	TagDateTimeOriginal  uint16 = 0x9003
	TagDateTimeDigitized uint16 = 0x9004
	TagLensModel         uint16 = 0xA434
)

const (
	typeShort = 3
	typeASCII = 2
	typeLong  = 4
)

// Tag is one IFD entry. Exactly one of Str or Short is used.
type Tag struct {
	ID    uint16
	Str   string
	Short uint16
	IsStr bool
}

// ASCII returns a string tag.
func ASCII(id uint16, s string) Tag { return Tag{ID: id, Str: s, IsStr: true} }

// Short returns a SHORT tag.
func Short(id uint16, v uint16) Tag { return Tag{ID: id, Short: v} }

// BuildTIFF lays out a TIFF/EXIF block with IFD0 holding ifd0 and, when
// exifTags is non-empty, an Exif sub-IFD linked from IFD0.
func BuildTIFF(ifd0 []Tag, exifTags []Tag) []byte {
	le := binary.LittleEndian

	n0 := len(ifd0)
	if len(exifTags) > 0 {
		n0++
	}
	ifd0Size := 2 + 12*n0 + 4
	exifOffset := 8 + ifd0Size
	exifSize := 0
	if len(exifTags) > 0 {
		exifSize = 2 + 12*len(exifTags) + 4
	}
	dataOffset := exifOffset + exifSize

	var data bytes.Buffer
	entry := func(buf *bytes.Buffer, tag Tag) {
		var e [12]byte
		le.PutUint16(e[0:], tag.ID)
		if tag.IsStr {
			val := append([]byte(tag.Str), 0)
			le.PutUint16(e[2:], typeASCII)
			le.PutUint32(e[4:], uint32(len(val)))
			if len(val) <= 4 {
				copy(e[8:], val)
			} else {
				le.PutUint32(e[8:], uint32(dataOffset+data.Len()))
				data.Write(val)
				if data.Len()%2 == 1 {
					data.WriteByte(0)
				}
			}
		} else {
			le.PutUint16(e[2:], typeShort)
			le.PutUint32(e[4:], 1)
			le.PutUint16(e[8:], tag.Short)
		}
		buf.Write(e[:])
	}

	var ifds bytes.Buffer

	countBuf := make([]byte, 2)
	le.PutUint16(countBuf, uint16(n0))
	ifds.Write(countBuf)
	for _, tag := range ifd0 {
		entry(&ifds, tag)
	}
	if len(exifTags) > 0 {
		var e [12]byte
		le.PutUint16(e[0:], TagExifIFDPointer)
		le.PutUint16(e[2:], typeLong)
		le.PutUint32(e[4:], 1)
		le.PutUint32(e[8:], uint32(exifOffset))
		ifds.Write(e[:])
	}
	ifds.Write([]byte{0, 0, 0, 0})

	if len(exifTags) > 0 {
		le.PutUint16(countBuf, uint16(len(exifTags)))
		ifds.Write(countBuf)
		for _, tag := range exifTags {
			entry(&ifds, tag)
		}
		ifds.Write([]byte{0, 0, 0, 0})
	}

	var out bytes.Buffer
	out.WriteString("II")
	header := make([]byte, 6)
	le.PutUint16(header[0:], 42)
	le.PutUint32(header[2:], 8)
	out.Write(header)
	out.Write(ifds.Bytes())
	out.Write(data.Bytes())
	return out.Bytes()
}

// InjectEXIF inserts an APP1 Exif segment right after the SOI marker of a
// JPEG stream.
func InjectEXIF(jpegData, tiff []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiff...)
	segLen := len(payload) + 2

	var out bytes.Buffer
	out.Write(jpegData[:2])
	out.Write([]byte{0xFF, 0xE1, byte(segLen >> 8), byte(segLen)})
	out.Write(payload)
	out.Write(jpegData[2:])
	return out.Bytes()
}

// Gradient returns a width x height opaque gradient image.
func Gradient(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8((x * 255) / max(width, 1)),
				G: uint8((y * 255) / max(height, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// Solid returns a width x height image of one color.
func Solid(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// EncodeJPEG encodes img at quality 90.
func EncodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode JPEG fixture: %v", err)
	}
	return buf.Bytes()
}

// WriteJPEG writes a gradient JPEG of the given size to path.
func WriteJPEG(t *testing.T, path string, width, height int) {
	t.Helper()
	WriteFile(t, path, EncodeJPEG(t, Gradient(width, height)))
}

// WritePNG writes img as PNG to path.
func WritePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG fixture: %v", err)
	}
	WriteFile(t, path, buf.Bytes())
}

// WriteFile writes data to path or fails the test.
func WriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", path, err)
	}
}
