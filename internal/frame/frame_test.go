package frame_test

import (
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/sarthakdhakal/signspeak/internal/detector"
	"github.com/sarthakdhakal/signspeak/internal/frame"
	"github.com/sarthakdhakal/signspeak/internal/testutil"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func TestDecodeDataURL(t *testing.T) {
	t.Run("decodes png data URL", func(t *testing.T) {
		url := testutil.MustPNGDataURL(testutil.SolidFrame(64, 48, red))

		img, err := frame.DecodeDataURL(url)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
			t.Errorf("expected 64x48, got %v", img.Bounds())
		}
	})

	t.Run("decodes jpeg data URL", func(t *testing.T) {
		url, err := testutil.JPEGDataURL(testutil.SolidFrame(32, 32, blue))
		if err != nil {
			t.Fatal(err)
		}

		if _, err := frame.DecodeDataURL(url); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("accepts payload without padding", func(t *testing.T) {
		url := testutil.MustPNGDataURL(testutil.SolidFrame(5, 5, red))
		url = strings.TrimRight(url, "=")

		if _, err := frame.DecodeDataURL(url); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"plain string", "not-a-data-url", frame.ErrNotDataURL},
		{"empty string", "", frame.ErrNotDataURL},
		{"missing base64 marker", "data:image/png,abcd", frame.ErrNotDataURL},
		{"bad base64", "data:image/png;base64,!!!###", frame.ErrBadBase64},
		{"not an image", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello")), frame.ErrBadImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := frame.DecodeDataURL(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func near(got, want float32) bool {
	return math.Abs(float64(got-want)) < 0.01
}

func uniformHand(x, y float64) *detector.HandLandmarks {
	var hand detector.HandLandmarks
	for i := range hand.Points {
		hand.Points[i] = detector.Point3D{X: x, Y: y}
	}
	return &hand
}

func TestHandBox(t *testing.T) {
	t.Run("pads open palm by thirty percent", func(t *testing.T) {
		hand := detector.OpenPalmLandmarks()

		box := frame.HandBox(&hand, 640, 480, frame.DefaultPadding)

		want := frame.Box{MinX: 142, MinY: 59, MaxX: 542, MaxY: 459}
		if box != want {
			t.Errorf("expected %+v, got %+v", want, box)
		}
	})

	t.Run("clamps landmarks at frame edges", func(t *testing.T) {
		hand := uniformHand(0, 0)
		hand.Points[detector.IndexTip] = detector.Point3D{X: 1, Y: 1}

		box := frame.HandBox(hand, 640, 480, frame.DefaultPadding)

		want := frame.Box{MinX: 0, MinY: 0, MaxX: 640, MaxY: 480}
		if box != want {
			t.Errorf("expected %+v, got %+v", want, box)
		}
	})

	t.Run("clamps landmarks outside the frame", func(t *testing.T) {
		hand := uniformHand(-0.2, -0.1)
		hand.Points[detector.PinkyTip] = detector.Point3D{X: 1.3, Y: 1.2}

		box := frame.HandBox(hand, 320, 240, frame.DefaultPadding)

		if box.MinX < 0 || box.MinY < 0 {
			t.Errorf("box must not be negative: %+v", box)
		}
		if box.MaxX > 320 || box.MaxY > 240 {
			t.Errorf("box must not exceed frame: %+v", box)
		}
	})

	t.Run("corner hand produces degenerate box", func(t *testing.T) {
		box := frame.HandBox(uniformHand(1, 1), 640, 480, frame.DefaultPadding)

		if !box.Empty() {
			t.Errorf("expected empty box, got %+v", box)
		}
	})
}

func TestPreprocess(t *testing.T) {
	t.Run("full frame when no box", func(t *testing.T) {
		tensor, err := frame.Preprocess(testutil.SolidFrame(100, 50, red), nil, frame.InputSize)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		wantShape := []int64{1, 224, 224, 3}
		for i, d := range tensor.Shape() {
			if d != wantShape[i] {
				t.Fatalf("expected shape %v, got %v", wantShape, tensor.Shape())
			}
		}
		if len(tensor.Data) != 224*224*3 {
			t.Fatalf("expected %d values, got %d", 224*224*3, len(tensor.Data))
		}

		for _, pos := range [][2]int{{0, 0}, {112, 112}, {223, 223}} {
			y, x := pos[0], pos[1]
			if !near(tensor.At(y, x, 0), 1) || !near(tensor.At(y, x, 1), 0) || !near(tensor.At(y, x, 2), 0) {
				t.Errorf("pixel (%d,%d) = [%f %f %f], want red", y, x,
					tensor.At(y, x, 0), tensor.At(y, x, 1), tensor.At(y, x, 2))
			}
		}
	})

	t.Run("crops to box", func(t *testing.T) {
		img := testutil.SplitFrame(200, 100, red, blue)
		box := &frame.Box{MinX: 120, MinY: 10, MaxX: 190, MaxY: 90}

		tensor, err := frame.Preprocess(img, box, 32)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				if !near(tensor.At(y, x, 0), 0) || !near(tensor.At(y, x, 2), 1) {
					t.Fatalf("pixel (%d,%d) should be blue", y, x)
				}
			}
		}
	})

	t.Run("values stay within unit range", func(t *testing.T) {
		img := testutil.SplitFrame(37, 91, color.RGBA{R: 10, G: 200, B: 90, A: 255}, color.White)

		tensor, err := frame.Preprocess(img, nil, frame.InputSize)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, v := range tensor.Data {
			if v < 0 || v > 1 || math.IsNaN(float64(v)) {
				t.Fatalf("value %d out of range: %f", i, v)
			}
		}
	})

	t.Run("translucent pixels keep their color", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
			}
		}

		tensor, err := frame.Preprocess(img, nil, 8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := [3]float32{200.0 / 255, 100.0 / 255, 50.0 / 255}
		for c, w := range want {
			if got := tensor.At(4, 4, c); !near(got, w) {
				t.Errorf("channel %d = %f, want %f", c, got, w)
			}
		}
	})

	t.Run("grayscale frames fill all channels", func(t *testing.T) {
		gray := image.NewGray(image.Rect(0, 0, 10, 10))
		for i := range gray.Pix {
			gray.Pix[i] = 128
		}

		tensor, err := frame.Preprocess(gray, nil, 8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tensor.At(4, 4, 0) != tensor.At(4, 4, 1) || tensor.At(4, 4, 1) != tensor.At(4, 4, 2) {
			t.Errorf("expected equal channels, got [%f %f %f]",
				tensor.At(4, 4, 0), tensor.At(4, 4, 1), tensor.At(4, 4, 2))
		}
	})

	t.Run("empty box is rejected", func(t *testing.T) {
		box := &frame.Box{MinX: 640, MinY: 480, MaxX: 640, MaxY: 480}

		_, err := frame.Preprocess(testutil.SolidFrame(640, 480, red), box, frame.InputSize)
		if !errors.Is(err, frame.ErrEmptyCrop) {
			t.Errorf("expected ErrEmptyCrop, got %v", err)
		}
	})
}
