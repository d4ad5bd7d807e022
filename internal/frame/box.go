package frame

import (
	"image"

	"github.com/sarthakdhakal/signspeak/internal/detector"
)

// DefaultPadding is the fraction of the landmark extent added on each side
// of the hand box.
const DefaultPadding = 0.3

// Box is a hand bounding box in pixel coordinates. Max values are exclusive.
type Box struct {
	MinX int `json:"x_min"`
	MinY int `json:"y_min"`
	MaxX int `json:"x_max"`
	MaxY int `json:"y_max"`
}

// Width returns the box width in pixels.
func (b Box) Width() int { return b.MaxX - b.MinX }

// Height returns the box height in pixels.
func (b Box) Height() int { return b.MaxY - b.MinY }

// Empty reports whether the box has no area.
func (b Box) Empty() bool { return b.Width() <= 0 || b.Height() <= 0 }

// Rect returns the box as an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// HandBox computes the padded, clamped pixel box around a hand.
//
// Landmark extremes are scaled by the frame size and truncated, then each
// axis is expanded by padding times its extent and clamped to
// [0, width] x [0, height].
func HandBox(hand *detector.HandLandmarks, width, height int, padding float64) Box {
	minX, minY, maxX, maxY := hand.Extent()

	xMin := int(minX * float64(width))
	xMax := int(maxX * float64(width))
	yMin := int(minY * float64(height))
	yMax := int(maxY * float64(height))

	padX := int(float64(xMax-xMin) * padding)
	padY := int(float64(yMax-yMin) * padding)

	return Box{
		MinX: clamp(xMin-padX, 0, width),
		MinY: clamp(yMin-padY, 0, height),
		MaxX: clamp(xMax+padX, 0, width),
		MaxY: clamp(yMax+padY, 0, height),
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
