package ascii

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MinDensity and MaxDensity bound Config.Density.
	MinDensity = 5
	MaxDensity = 200

	// highFrequencyDensity is the density above which blocks are subsampled.
	highFrequencyDensity = 100
	highFrequencyStride  = 2
)

var (
	// ErrInvalidBuffer is returned for zero-area buffers or buffers whose pixel
	// slice is shorter than Width*Height*4.
	ErrInvalidBuffer = errors.New("invalid pixel buffer")

	// ErrEmptyCharacterSet is returned when both CharacterSet and
	// CustomCharacters are empty.
	ErrEmptyCharacterSet = errors.New("empty character set")
)

// PixelBuffer is a decoded, non-premultiplied RGBA image with the origin at the
// top-left corner. Pix holds Width*Height*4 bytes in row-major order.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer allocates a zeroed buffer of the given size.
func NewPixelBuffer(width, height int) PixelBuffer {
	return PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// Validate reports whether the buffer can be converted.
func (b PixelBuffer) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: zero area (%dx%d)", ErrInvalidBuffer, b.Width, b.Height)
	}
	if want := b.Width * b.Height * 4; len(b.Pix) < want {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrInvalidBuffer, len(b.Pix), want)
	}
	return nil
}

// Config controls a single conversion. Density and AspectScale are expected to
// be clamped by the caller; Convert does not range-check them.
type Config struct {
	// CharacterSet is the active preset ramp. Empty means use CustomCharacters.
	CharacterSet string

	// CustomCharacters is the user supplied ramp.
	CustomCharacters string

	// Density in [5, 200]. Higher values produce smaller blocks.
	Density int

	// AspectScale in [-1, 1]. The vertical scale factor is 1+AspectScale.
	AspectScale float64

	// Color attaches the block's average RGB value to each cell.
	Color bool
}

// Characters returns the effective ramp as runes.
func (c Config) Characters() []rune {
	if c.CharacterSet != "" {
		return []rune(c.CharacterSet)
	}
	return []rune(c.CustomCharacters)
}

// SamplingInterval maps a density onto the block edge length in pixels.
func SamplingInterval(density int) int {
	interval := int(math.Ceil(200 * (1 - float64(density-MinDensity)/195)))
	if interval < 1 {
		return 1
	}
	return interval
}

// ScaledHeight returns the stretched height that sampled rows iterate over.
func ScaledHeight(height int, aspectScale float64) int {
	return int(math.Floor(float64(height)*(1+aspectScale) + 0.5))
}

// BrightnessTable maps every luminance byte onto an index into a ramp of n
// characters.
func BrightnessTable(n int) [256]int {
	var table [256]int
	for i := range table {
		idx := int(math.Floor(float64(i) / 255 * float64(n-1)))
		if idx > n-1 {
			idx = n - 1
		}
		table[i] = idx
	}
	return table
}

// Grayscale returns one luminance byte per pixel: the mean of R, G and B
// rounded half up.
func Grayscale(buf PixelBuffer) []uint8 {
	n := buf.Width * buf.Height
	gray := make([]uint8, n)
	for i := 0; i < n; i++ {
		p := buf.Pix[i*4 : i*4+3 : i*4+3]
		sum := int(p[0]) + int(p[1]) + int(p[2])
		gray[i] = uint8((sum + 1) / 3)
	}
	return gray
}

// Convert renders buf as character art.
func Convert(buf PixelBuffer, cfg Config) (*Artifact, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	chars := cfg.Characters()
	if len(chars) == 0 {
		return nil, ErrEmptyCharacterSet
	}

	interval := SamplingInterval(cfg.Density)
	heightScale := 1 + cfg.AspectScale
	scaledHeight := ScaledHeight(buf.Height, cfg.AspectScale)

	gray := Grayscale(buf)
	table := BrightnessTable(len(chars))

	stride := 1
	if cfg.Density > highFrequencyDensity {
		stride = highFrequencyStride
	}

	width, height := buf.Width, buf.Height
	art := &Artifact{Interval: interval}

	for y := 0; y < scaledHeight; y += interval {
		originalY := int(math.Floor(float64(y) / heightScale))
		if originalY > height-1 {
			originalY = height - 1
		}
		endY := min(originalY+interval, height)

		row := make(Row, 0, (width+interval-1)/interval)
		for x := 0; x < width; x += interval {
			endX := min(x+interval, width)

			var brightness, r, g, b, count int
			for by := originalY; by < endY; by += stride {
				for bx := x; bx < endX; bx += stride {
					idx := by*width + bx
					brightness += int(gray[idx])
					if cfg.Color {
						p := buf.Pix[idx*4 : idx*4+3 : idx*4+3]
						r += int(p[0])
						g += int(p[1])
						b += int(p[2])
					}
					count++
				}
			}
			if count == 0 {
				continue
			}

			cell := Cell{Char: chars[table[roundDiv(brightness, count)]]}
			if cfg.Color {
				cell.HasColor = true
				cell.Color = RGB{
					R: uint8(roundDiv(r, count)),
					G: uint8(roundDiv(g, count)),
					B: uint8(roundDiv(b, count)),
				}
			}
			row = append(row, cell)
		}
		art.Rows = append(art.Rows, row)
	}

	return art, nil
}

// roundDiv returns sum/count rounded half up. Both operands are non-negative.
func roundDiv(sum, count int) int {
	return (2*sum + count) / (2 * count)
}
