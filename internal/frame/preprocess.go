package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"
)

// InputSize is the square edge length expected by the classifier.
const InputSize = 224

// ErrEmptyCrop is returned when the crop region has no pixels.
var ErrEmptyCrop = errors.New("empty crop region")

// Tensor is a normalized image batch in NHWC order with values in [0, 1].
type Tensor struct {
	Size int
	Data []float32
}

// Shape returns the tensor shape: batch, height, width, channels.
func (t *Tensor) Shape() []int64 {
	return []int64{1, int64(t.Size), int64(t.Size), 3}
}

// At returns the value at row y, column x, channel c of the single batch entry.
func (t *Tensor) At(y, x, c int) float32 {
	return t.Data[(y*t.Size+x)*3+c]
}

// Crop returns the part of img inside box. Box coordinates are relative to
// the image origin.
func Crop(img image.Image, box Box) (image.Image, error) {
	b := img.Bounds()
	r := box.Rect().Add(b.Min).Intersect(b)
	if r.Empty() {
		return nil, ErrEmptyCrop
	}

	if s, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return s.SubImage(r), nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst, nil
}

// dropAlpha returns img with every pixel made opaque, keeping the straight
// (non-premultiplied) RGB values. Opaque images are returned as is.
func dropAlpha(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return dst
}

// Preprocess crops img to box (the full frame when box is nil), resizes the
// result to size x size with bilinear interpolation and scales every
// channel to [0, 1]. Alpha is discarded.
func Preprocess(img image.Image, box *Box, size int) (*Tensor, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyCrop
	}
	if size <= 0 {
		size = InputSize
	}

	src := img
	if box != nil {
		cropped, err := Crop(img, *box)
		if err != nil {
			return nil, fmt.Errorf("crop %v: %w", box.Rect(), err)
		}
		src = cropped
	}

	resized := resize.Resize(uint(size), uint(size), dropAlpha(src), resize.Bilinear)

	t := &Tensor{Size: size, Data: make([]float32, size*size*3)}
	rb := resized.Bounds()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := resized.At(rb.Min.X+x, rb.Min.Y+y).RGBA()
			i := (y*size + x) * 3
			t.Data[i] = float32(r>>8) / 255.0
			t.Data[i+1] = float32(g>>8) / 255.0
			t.Data[i+2] = float32(b>>8) / 255.0
		}
	}

	return t, nil
}
