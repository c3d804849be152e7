package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-ascii-mcp/internal/ascii"
)

// DefaultMaxWidth is the width above which images are downscaled before
// conversion.
const DefaultMaxWidth = 1024

// Downscale shrinks img to maxWidth pixels wide when it is wider, keeping the
// aspect ratio (the new height is rounded to the nearest pixel, never below 1).
// Narrower images, and any image when maxWidth <= 0, are returned unchanged.
func Downscale(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	maxWidth = EffectiveMaxWidth(w, maxWidth)
	if maxWidth == 0 {
		return img
	}

	ratio := float64(maxWidth) / float64(w)
	newHeight := int(math.Round(float64(h) * ratio))
	if newHeight < 1 {
		newHeight = 1
	}
	return imaging.Resize(img, maxWidth, newHeight, imaging.Linear)
}

// ToPixelBuffer copies img into a non-premultiplied RGBA buffer whose origin is
// the top-left corner of img's bounds.
func ToPixelBuffer(img image.Image) ascii.PixelBuffer {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()

	buf := ascii.NewPixelBuffer(w, h)
	rowLen := w * 4
	for y := 0; y < h; y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+rowLen]
		copy(buf.Pix[y*rowLen:(y+1)*rowLen], src)
	}
	return buf
}

// EffectiveMaxWidth returns the width an image of the given width is
// downscaled to, or 0 when maxWidth leaves it unchanged. Limits that produce
// the same pixels map to the same value.
func EffectiveMaxWidth(width, maxWidth int) int {
	if maxWidth <= 0 || width <= maxWidth {
		return 0
	}
	return maxWidth
}

// Prepare downscales img to maxWidth and extracts its pixels.
func Prepare(img image.Image, maxWidth int) ascii.PixelBuffer {
	return ToPixelBuffer(Downscale(img, maxWidth))
}
