// Package filetypes holds the two fixed extension allow-lists used to pair
// photos: primary renderings that can be decoded for display, and the
// high-fidelity originals (camera raw and similar) that are only opened in an
// external editor.
//
// This package is dependency-free so that the pairing, media and launcher
// packages can all import it without creating cycles.
//
// Extensions are always compared lower-cased with their leading dot:
//
//	filetypes.IsPrimary(".JPG")  // true
//	filetypes.IsOriginal(".cr2") // true
//	filetypes.IsPrimary(".txt")  // false
package filetypes
