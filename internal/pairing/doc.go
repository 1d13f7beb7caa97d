// Package pairing matches primary renderings to their original-format
// companions by file stem.
//
// Two files pair when their names, minus extension, are equal under case
// folding: IMG_0001.jpg in the primary folder pairs with img_0001.CR2 in the
// original folder. Only immediate entries of each folder are considered, and
// each side is filtered by its own extension allow-list (see filetypes).
//
// When no original folder is given the matcher runs in primary-only mode and
// returns one pair per primary image with an empty OriginalPath.
package pairing
