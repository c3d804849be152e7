package imaging

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/image-ascii-mcp/internal/ascii"
)

// Bounds accepted for brightness and contrast.
const (
	MinBrightness = -255
	MaxBrightness = 255
	MinContrast   = -255
	MaxContrast   = 255
)

// ContrastFactor returns the linear contrast multiplier for contrast in
// [-255, 255].
func ContrastFactor(contrast int) float64 {
	c := float64(contrast)
	return (259 * (c + 255)) / (255 * (259 - c))
}

// AdjustmentTable precomputes the per-channel brightness/contrast mapping:
//
//	out = clamp(factor*(in + brightness - 128) + 128, 0, 255)
//
// The clamped value is stored into a byte rounding half to even.
func AdjustmentTable(brightness, contrast int) [256]uint8 {
	factor := ContrastFactor(contrast)

	var table [256]uint8
	for i := range table {
		v := factor*float64(i+brightness-128) + 128
		v = math.Min(255, math.Max(0, v))
		table[i] = uint8(math.RoundToEven(v))
	}
	return table
}

// AdjustBrightnessContrast returns a copy of buf with brightness and contrast
// applied to the R, G and B channels. Alpha is copied unchanged and buf is not
// modified. Rows are processed in parallel.
func AdjustBrightnessContrast(buf ascii.PixelBuffer, brightness, contrast int) ascii.PixelBuffer {
	out := ascii.PixelBuffer{
		Width:  buf.Width,
		Height: buf.Height,
		Pix:    make([]uint8, len(buf.Pix)),
	}
	if brightness == 0 && contrast == 0 {
		copy(out.Pix, buf.Pix)
		return out
	}

	table := AdjustmentTable(brightness, contrast)
	rowLen := buf.Width * 4

	parallel.Line(buf.Height, func(start, end int) {
		for y := start; y < end; y++ {
			src := buf.Pix[y*rowLen : (y+1)*rowLen]
			dst := out.Pix[y*rowLen : (y+1)*rowLen]
			for i := 0; i < rowLen; i += 4 {
				dst[i] = table[src[i]]
				dst[i+1] = table[src[i+1]]
				dst[i+2] = table[src[i+2]]
				dst[i+3] = src[i+3]
			}
		}
	})

	return out
}
