// Package media renders images for display.
//
// Renderer produces fixed-size padded JPEG thumbnails: the source is decoded,
// rotated upright from its EXIF orientation, scaled to fit, and centred on an
// opaque background canvas. ThumbnailGenerator puts a thumbcache.Cache in
// front of a Renderer. RenderPreview produces larger, uncached previews and
// can use libvips when it has been initialised.
package media
