// Package frame turns browser-captured frames into classifier input: data URL
// decoding, hand box computation, cropping, resizing and normalization.
package frame

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // canvas.toDataURL("image/jpeg")
	_ "image/png"
	"strings"
)

var (
	// ErrNotDataURL is returned when the input is not a base64 data URL.
	ErrNotDataURL = errors.New("not a base64 data URL")
	// ErrBadBase64 is returned when the data URL payload is not valid base64.
	ErrBadBase64 = errors.New("invalid base64 payload")
	// ErrBadImage is returned when the payload is not a decodable image.
	ErrBadImage = errors.New("invalid image data")
)

// DecodeDataURL decodes a "data:<mime>;base64,<payload>" string into an image.
// Everything after the first comma is the payload.
func DecodeDataURL(s string) (image.Image, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, ErrNotDataURL
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBase64, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrBadImage)
	}
	return img, nil
}

// EncodeDataURL wraps encoded image bytes in a base64 data URL.
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, payload)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	// Some clients strip the padding.
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, err
}
