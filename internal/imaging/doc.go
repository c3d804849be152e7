// Package imaging loads images and turns them into pixel buffers for the
// character-art converter.
//
// It covers everything that happens before conversion: decoding (PNG, JPEG,
// GIF, BMP, TIFF, WebP), caching decoded images by path, optional cropping to
// a region, downscaling to a maximum width, extraction of a non-premultiplied
// RGBA buffer and the brightness/contrast pre-adjustment.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based with (0,0) at the top-left
// corner. For regions, (x1,y1) is inclusive and (x2,y2) is exclusive.
//
// # Brightness and Contrast
//
// The pre-adjustment uses the classic linear contrast curve
//
//	factor = 259*(contrast+255) / (255*(259-contrast))
//	out    = clamp(factor*(in + brightness - 128) + 128, 0, 255)
//
// applied to R, G and B independently; alpha is left alone. Values are stored
// into bytes rounding half to even.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Every other function allocates its
// own output and never mutates its input, so it can be called concurrently.
package imaging
