// Package testutil provides frame fixtures shared by package tests.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/sarthakdhakal/signspeak/internal/frame"
)

// SolidFrame returns a w x h RGBA frame filled with c.
func SolidFrame(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// SplitFrame returns a frame whose left half is left and right half is right.
func SplitFrame(w, h int, left, right color.Color) *image.RGBA {
	img := SolidFrame(w, h, left)
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			img.Set(x, y, right)
		}
	}
	return img
}

// PNGDataURL encodes img as a PNG data URL.
func PNGDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return frame.EncodeDataURL("image/png", buf.Bytes()), nil
}

// JPEGDataURL encodes img as a JPEG data URL, like canvas.toDataURL("image/jpeg").
func JPEGDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return frame.EncodeDataURL("image/jpeg", buf.Bytes()), nil
}

// MustPNGDataURL is PNGDataURL for fixtures that cannot fail.
func MustPNGDataURL(img image.Image) string {
	s, err := PNGDataURL(img)
	if err != nil {
		panic(err)
	}
	return s
}
