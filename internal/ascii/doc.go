// Package ascii converts decoded pixel buffers into character art.
//
// The converter reduces each pixel to an unweighted luminance byte, samples the
// image in square blocks whose edge length is derived from a density setting,
// and maps each block's average brightness onto a character ramp ordered from
// visually dense to visually sparse glyphs. When colour is enabled every cell
// also carries the block's average RGB value.
//
// # Sampling
//
// The sampling interval (block edge, in pixels) is derived from density:
//
//	interval = max(1, ceil(200 * (1 - (density-5)/195)))
//
// so density 5 yields an interval of 200 and density 200 yields 1. The vertical
// axis is stretched by 1+aspectScale before sampling; each sampled row is mapped
// back to a source row with floor(y / (1+aspectScale)).
//
// Above density 100 the converter visits every other row and column inside a
// block. This changes the numeric output, not only the speed.
//
// # Output
//
// Convert returns an Artifact: rows of cells. Markup renders the artifact as
// newline-separated rows where coloured cells are wrapped in
// <span style="color: #rrggbb">c</span>; Plain renders the same rows without
// annotations.
//
// # Thread Safety
//
// Convert holds no state between calls. Every call allocates its own grayscale
// buffer and brightness table, so concurrent calls on the same PixelBuffer are
// safe as long as nobody mutates the buffer meanwhile.
package ascii
