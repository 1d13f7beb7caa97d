// Package logging provides the leveled printf-style logger used across
// pair-viewer.
//
// The initial level comes from the DEBUG or LOG_LEVEL environment variables
// and may be overridden at startup with SetLevel once configuration has been
// loaded. Messages at or above the current level are written through the
// standard library log package with a [LEVEL] prefix.
package logging
