package filetypes

import (
	"path/filepath"
	"strings"
)

// PrimaryExtensions lists the extensions the renderer can decode.
var PrimaryExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".gif":  true,
}

// OriginalExtensions lists camera raw and other original formats.
var OriginalExtensions = map[string]bool{
	".3fr": true,
	".ari": true,
	".arw": true,
	".bmq": true,
	".cap": true,
	".cin": true,
	".cr2": true,
	".cr3": true,
	".crw": true,
	".cxr": true,
	".dcr": true,
	".dcs": true,
	".dng": true,
	".dqf": true,
	".drf": true,
	".efw": true,
	".erf": true,
	".fff": true,
	".iiq": true,
	".j6f": true,
	".kdc": true,
	".mos": true,
	".mrf": true,
	".nef": true,
	".nrw": true,
	".orf": true,
	".pef": true,
	".pxn": true,
	".qtk": true,
	".raf": true,
	".raw": true,
	".rdc": true,
	".rw2": true,
	".sr2": true,
	".srf": true,
	".srw": true,
	".x3f": true,
}

// IsPrimary reports whether ext is a primary rendering extension.
func IsPrimary(ext string) bool {
	return PrimaryExtensions[strings.ToLower(ext)]
}

// IsOriginal reports whether ext is an original-format extension.
func IsOriginal(ext string) bool {
	return OriginalExtensions[strings.ToLower(ext)]
}

// SplitName splits a file name into its stem and extension.
// Dotfiles such as ".hidden" have an empty stem.
func SplitName(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}
