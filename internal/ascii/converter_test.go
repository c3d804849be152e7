package ascii

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleRamp = "@#%xo-+:."

// uniformBuffer returns a width x height buffer filled with one opaque colour.
func uniformBuffer(width, height int, r, g, b uint8) PixelBuffer {
	buf := NewPixelBuffer(width, height)
	for i := 0; i < width*height; i++ {
		buf.Pix[i*4] = r
		buf.Pix[i*4+1] = g
		buf.Pix[i*4+2] = b
		buf.Pix[i*4+3] = 255
	}
	return buf
}

func setPixel(buf PixelBuffer, x, y int, r, g, b uint8) {
	i := (y*buf.Width + x) * 4
	buf.Pix[i] = r
	buf.Pix[i+1] = g
	buf.Pix[i+2] = b
	buf.Pix[i+3] = 255
}

func TestSamplingInterval(t *testing.T) {
	tests := []struct {
		density int
		want    int
	}{
		{5, 200},
		{100, 103},
		{105, 98},
		{199, 2},
		{200, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SamplingInterval(tt.density), "density %d", tt.density)
	}
}

func TestSamplingInterval_MonotonicInDensity(t *testing.T) {
	for d := MinDensity; d < MaxDensity; d++ {
		assert.LessOrEqual(t, SamplingInterval(d+1), SamplingInterval(d), "density %d -> %d", d, d+1)
	}
}

func TestBrightnessTable(t *testing.T) {
	for n := 1; n <= 20; n++ {
		table := BrightnessTable(n)
		assert.Equal(t, 0, table[0], "n=%d", n)
		assert.Equal(t, n-1, table[255], "n=%d", n)
		for b := 1; b < 256; b++ {
			require.LessOrEqual(t, table[b-1], table[b], "n=%d b=%d", n, b)
		}
	}

	table := BrightnessTable(9)
	assert.Equal(t, 4, table[128])
	assert.Equal(t, 2, table[85])
	assert.Equal(t, 2, table[64])
}

func TestGrayscale_RoundsHalfUp(t *testing.T) {
	buf := NewPixelBuffer(4, 1)
	setPixel(buf, 0, 0, 1, 1, 1)
	setPixel(buf, 1, 0, 1, 1, 0)
	setPixel(buf, 2, 0, 1, 0, 0)
	setPixel(buf, 3, 0, 255, 255, 254)

	assert.Equal(t, []uint8{1, 1, 0, 255}, Grayscale(buf))
}

func TestConvert_UniformGray(t *testing.T) {
	buf := uniformBuffer(10, 10, 128, 128, 128)

	art, err := Convert(buf, Config{CharacterSet: simpleRamp, Density: 100})
	require.NoError(t, err)

	assert.Equal(t, 103, art.Interval)
	assert.Equal(t, "o", art.Markup())
}

func TestConvert_UniformGray_EveryCellIdentical(t *testing.T) {
	buf := uniformBuffer(10, 10, 128, 128, 128)

	art, err := Convert(buf, Config{CharacterSet: simpleRamp, Density: 200})
	require.NoError(t, err)

	rows, cols := art.Dimensions()
	assert.Equal(t, 10, rows)
	assert.Equal(t, 10, cols)
	for _, line := range strings.Split(art.Plain(), "\n") {
		assert.Equal(t, "oooooooooo", line)
	}
}

func TestConvert_RowCount(t *testing.T) {
	sizes := [][2]int{{1, 1}, {7, 3}, {10, 10}, {33, 17}, {64, 48}}
	densities := []int{5, 50, 100, 150, 190, 200}
	aspects := []float64{-0.9, -0.5, 0, 0.5, 1}

	for _, size := range sizes {
		buf := uniformBuffer(size[0], size[1], 10, 20, 30)
		for _, d := range densities {
			for _, a := range aspects {
				art, err := Convert(buf, Config{CharacterSet: simpleRamp, Density: d, AspectScale: a})
				require.NoError(t, err)

				interval := SamplingInterval(d)
				scaled := ScaledHeight(size[1], a)
				wantRows := (scaled + interval - 1) / interval
				wantCols := (size[0] + interval - 1) / interval

				rows, cols := art.Dimensions()
				assert.Equal(t, wantRows, rows, "size=%v density=%d aspect=%v", size, d, a)
				if rows > 0 {
					assert.Equal(t, wantCols, cols, "size=%v density=%d aspect=%v", size, d, a)
				}
			}
		}
	}
}

func TestConvert_Deterministic(t *testing.T) {
	buf := NewPixelBuffer(40, 30)
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			setPixel(buf, x, y, uint8(x*6), uint8(y*8), uint8((x+y)*3))
		}
	}
	cfg := Config{CharacterSet: "@%#*+=-:. ", Density: 150, AspectScale: 0.3, Color: true}

	first, err := Convert(buf, cfg)
	require.NoError(t, err)
	second, err := Convert(buf, cfg)
	require.NoError(t, err)

	assert.Equal(t, first.Markup(), second.Markup())
}

func TestConvert_DensityNeverReducesCells(t *testing.T) {
	buf := uniformBuffer(120, 90, 200, 100, 50)

	prevCells := 0
	for d := MinDensity; d <= MaxDensity; d += 5 {
		art, err := Convert(buf, Config{CharacterSet: simpleRamp, Density: d})
		require.NoError(t, err)

		rows, cols := art.Dimensions()
		cells := rows * cols
		assert.GreaterOrEqual(t, cells, prevCells, "density %d", d)
		prevCells = cells
	}
}

func TestConvert_BrightnessMonotonic(t *testing.T) {
	// One pixel per cell: a horizontal gradient must never step back down the ramp.
	buf := NewPixelBuffer(256, 1)
	for x := 0; x < 256; x++ {
		setPixel(buf, x, 0, uint8(x), uint8(x), uint8(x))
	}

	art, err := Convert(buf, Config{CharacterSet: simpleRamp, Density: 200})
	require.NoError(t, err)
	require.Len(t, art.Rows, 1)

	ramp := []rune(simpleRamp)
	index := func(r rune) int {
		for i, c := range ramp {
			if c == r {
				return i
			}
		}
		return -1
	}

	prev := 0
	for _, cell := range art.Rows[0] {
		idx := index(cell.Char)
		require.NotEqual(t, -1, idx)
		assert.GreaterOrEqual(t, idx, prev)
		prev = idx
	}
}

func TestConvert_AspectMinusOneIsEmpty(t *testing.T) {
	buf := uniformBuffer(10, 10, 0, 0, 0)

	art, err := Convert(buf, Config{CharacterSet: simpleRamp, Density: 100, AspectScale: -1})
	require.NoError(t, err)

	assert.Empty(t, art.Rows)
	assert.Equal(t, "", art.Markup())
}

func TestConvert_SinglePixel(t *testing.T) {
	buf := uniformBuffer(1, 1, 255, 255, 255)

	tests := []struct {
		name      string
		aspect    float64
		densities []int
		want      string
	}{
		{"no stretch", 0, []int{5, 100, 200}, "."},
		{"doubled with coarse blocks", 1, []int{5, 100}, "."},
		{"doubled with unit blocks", 1, []int{200}, ".."},
		{"halved rounds up", -0.5, []int{5, 100, 200}, "."},
		{"collapsed", -0.6, []int{5, 100, 200}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, d := range tt.densities {
				art, err := Convert(buf, Config{CharacterSet: simpleRamp, Density: d, AspectScale: tt.aspect})
				require.NoError(t, err)
				assert.Equal(t, tt.want, strings.ReplaceAll(art.Plain(), "\n", ""), "density %d", d)
			}
		})
	}
}

func TestConvert_ColorRedBlock(t *testing.T) {
	buf := uniformBuffer(2, 2, 255, 0, 0)

	art, err := Convert(buf, Config{CharacterSet: simpleRamp, Density: 50, Color: true})
	require.NoError(t, err)

	require.Len(t, art.Rows, 1)
	require.Len(t, art.Rows[0], 1)
	assert.Equal(t, RGB{R: 255}, art.Rows[0][0].Color)
	assert.Equal(t, `<span style="color: #ff0000">%</span>`, art.Markup())
	assert.Equal(t, "%", art.Plain())
}

func TestConvert_ColorAveragesRoundHalfUp(t *testing.T) {
	buf := NewPixelBuffer(2, 1)
	setPixel(buf, 0, 0, 0, 10, 255)
	setPixel(buf, 1, 0, 1, 21, 0)

	art, err := Convert(buf, Config{CharacterSet: simpleRamp, Density: 50, Color: true})
	require.NoError(t, err)

	// (0+1)/2 = 0.5 -> 1, (10+21)/2 = 15.5 -> 16, 255/2 = 127.5 -> 128
	assert.Equal(t, RGB{R: 1, G: 16, B: 128}, art.Rows[0][0].Color)
}

func TestConvert_HighFrequencySubsamples(t *testing.T) {
	buf := uniformBuffer(2, 2, 0, 0, 0)
	setPixel(buf, 0, 0, 255, 255, 255)

	full, err := Convert(buf, Config{CharacterSet: simpleRamp, Density: 100})
	require.NoError(t, err)
	assert.Equal(t, "%", full.Plain(), "all four pixels averaged: 64")

	sparse, err := Convert(buf, Config{CharacterSet: simpleRamp, Density: 150})
	require.NoError(t, err)
	assert.Equal(t, ".", sparse.Plain(), "only the top-left pixel visited")
}

func TestConvert_AspectStretchRepeatsRows(t *testing.T) {
	buf := NewPixelBuffer(1, 4)
	setPixel(buf, 0, 0, 0, 0, 0)
	setPixel(buf, 0, 1, 255, 255, 255)
	setPixel(buf, 0, 2, 0, 0, 0)
	setPixel(buf, 0, 3, 255, 255, 255)

	art, err := Convert(buf, Config{CharacterSet: "abcd", Density: 200, AspectScale: 1})
	require.NoError(t, err)

	assert.Equal(t, "a\na\nd\nd\na\na\nd\nd", art.Plain())
}

func TestConvert_MultibyteRamp(t *testing.T) {
	ramp, ok := Preset("block")
	require.True(t, ok)

	buf := NewPixelBuffer(2, 1)
	setPixel(buf, 0, 0, 0, 0, 0)
	setPixel(buf, 1, 0, 255, 255, 255)

	art, err := Convert(buf, Config{CharacterSet: ramp, Density: 200})
	require.NoError(t, err)

	assert.Equal(t, "█ ", art.Plain())
}

func TestConvert_FallsBackToCustomCharacters(t *testing.T) {
	buf := uniformBuffer(3, 3, 0, 0, 0)

	art, err := Convert(buf, Config{CustomCharacters: "XY", Density: 100})
	require.NoError(t, err)

	assert.Equal(t, "X", art.Plain())
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name    string
		buf     PixelBuffer
		cfg     Config
		wantErr error
	}{
		{"zero width", PixelBuffer{Width: 0, Height: 4}, Config{CharacterSet: simpleRamp, Density: 50}, ErrInvalidBuffer},
		{"zero height", PixelBuffer{Width: 4, Height: 0}, Config{CharacterSet: simpleRamp, Density: 50}, ErrInvalidBuffer},
		{"short pixels", PixelBuffer{Width: 2, Height: 2, Pix: make([]uint8, 8)}, Config{CharacterSet: simpleRamp, Density: 50}, ErrInvalidBuffer},
		{"empty charset", uniformBuffer(2, 2, 0, 0, 0), Config{Density: 50}, ErrEmptyCharacterSet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art, err := Convert(tt.buf, tt.cfg)
			assert.Nil(t, art)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConvert_DoesNotMutateBuffer(t *testing.T) {
	buf := uniformBuffer(8, 8, 12, 34, 56)
	before := append([]uint8(nil), buf.Pix...)

	_, err := Convert(buf, Config{CharacterSet: simpleRamp, Density: 180, Color: true})
	require.NoError(t, err)

	assert.Equal(t, before, buf.Pix)
}

func TestConvert_Concurrent(t *testing.T) {
	buf := NewPixelBuffer(64, 64)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			setPixel(buf, x, y, uint8(x*4), uint8(y*4), 128)
		}
	}
	cfg := Config{CharacterSet: simpleRamp, Density: 170, Color: true}
	want, err := Convert(buf, cfg)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			art, err := Convert(buf, cfg)
			if err == nil {
				results[i] = art.Markup()
			}
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want.Markup(), got)
	}
}
