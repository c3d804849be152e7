package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Region represents a rectangular region within an image.
//
// (X1, Y1) is the top-left corner (inclusive) and (X2, Y2) the bottom-right
// corner (exclusive), relative to the image's top-left pixel.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Quadrants lists the names accepted by QuadrantRegion.
var Quadrants = []string{
	"top-left", "top-right", "bottom-left", "bottom-right",
	"top-half", "bottom-half", "left-half", "right-half", "center",
}

// Crop extracts a rectangular region from an image. The result's bounds start
// at (0, 0).
func Crop(img image.Image, r Region) (image.Image, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if r.X1 < 0 || r.Y1 < 0 || r.X2 > w || r.Y2 > h {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (0,0)-(%d,%d)",
			r.X1, r.Y1, r.X2, r.Y2, w, h)
	}
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	rect := image.Rect(r.X1, r.Y1, r.X2, r.Y2).Add(bounds.Min)
	return imaging.Crop(img, rect), nil
}

// QuadrantRegion resolves a named region of a width x height image.
func QuadrantRegion(name string, w, h int) (Region, error) {
	midX := w / 2
	midY := h / 2

	switch name {
	case "top-left":
		return Region{0, 0, midX, midY}, nil
	case "top-right":
		return Region{midX, 0, w, midY}, nil
	case "bottom-left":
		return Region{0, midY, midX, h}, nil
	case "bottom-right":
		return Region{midX, midY, w, h}, nil
	case "top-half":
		return Region{0, 0, w, midY}, nil
	case "bottom-half":
		return Region{0, midY, w, h}, nil
	case "left-half":
		return Region{0, 0, midX, h}, nil
	case "right-half":
		return Region{midX, 0, w, h}, nil
	case "center":
		// Center 50% of the image
		qW := w / 4
		qH := h / 4
		return Region{qW, qH, w - qW, h - qH}, nil
	default:
		return Region{}, fmt.Errorf("unknown region: %s", name)
	}
}
