package session

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-ascii-mcp/internal/config"
	"github.com/ironsheep/image-ascii-mcp/internal/imaging"
)

func writePNG(t *testing.T, dir, name string, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestConvertFiles_PreservesOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	black := color.RGBA{0, 0, 0, 255}
	white := color.RGBA{255, 255, 255, 255}
	gray := color.RGBA{128, 128, 128, 255}

	paths := []string{
		writePNG(t, dir, "a.png", 10, 10, black),
		writePNG(t, dir, "b.png", 10, 10, white),
		writePNG(t, dir, "c.png", 10, 10, gray),
		writePNG(t, dir, "d.png", 10, 10, black),
	}

	results, err := ConvertFiles(context.Background(), imaging.NewImageCache(), paths, oneCellSettings(), 2)
	require.NoError(t, err)
	require.Len(t, results, len(paths))

	want := []string{"@", ".", "o", "@"}
	for i, r := range results {
		assert.Equal(t, paths[i], r.Path)
		require.NotNil(t, r.Result, paths[i])
		assert.Equal(t, want[i], r.Result.Artifact.Plain(), paths[i])
	}
}

func TestConvertFiles_DownscalesToMaxWidth(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writePNG(t, dir, "wide.png", 400, 100, color.RGBA{0, 0, 0, 255})

	settings := config.Default()
	settings.MaxWidth = 200
	settings.Density = 200
	settings.AspectScale = 0

	results, err := ConvertFiles(context.Background(), imaging.NewImageCache(), []string{path}, settings, 0)
	require.NoError(t, err)

	rows, cols := results[0].Result.Artifact.Dimensions()
	assert.Equal(t, 50, rows)
	assert.Equal(t, 200, cols)
}

func TestConvertFiles_MissingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writePNG(t, dir, "ok.png", 4, 4, color.RGBA{0, 0, 0, 255})
	missing := filepath.Join(dir, "missing.png")

	_, err := ConvertFiles(context.Background(), imaging.NewImageCache(), []string{good, missing}, oneCellSettings(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.png")
}

func TestConvertFiles_UnknownCharset(t *testing.T) {
	t.Parallel()

	settings := config.Default()
	settings.Charset = "nope"

	_, err := ConvertFiles(context.Background(), imaging.NewImageCache(), []string{"unused.png"}, settings, 1)
	require.ErrorIs(t, err, config.ErrUnknownCharset)
}

func TestConvertFiles_Empty(t *testing.T) {
	t.Parallel()

	results, err := ConvertFiles(context.Background(), imaging.NewImageCache(), nil, config.Default(), 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}
