// Package speech synthesizes spoken audio for predicted labels.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrEmptyText is returned when asked to synthesize an empty string.
var ErrEmptyText = errors.New("empty text")

// Format is an audio container format.
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatWAV:
		return "audio/wav"
	default:
		return "audio/mpeg"
	}
}

// Audio is synthesized speech.
type Audio struct {
	Data   []byte
	Format Format
}

// Ext returns the file extension for the audio, including the dot.
func (a *Audio) Ext() string {
	if a.Format == "" {
		return "." + string(FormatMP3)
	}
	return "." + string(a.Format)
}

// Synthesizer converts text to Audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
}

func checkText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

// readAudio reads an HTTP TTS response, turning non-2xx statuses into errors
// that carry the response body.
func readAudio(resp *http.Response, backend string) ([]byte, error) {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%s tts failed: %s: %s", backend, resp.Status, strings.TrimSpace(string(b)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s tts read: %w", backend, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s tts returned no audio", backend)
	}
	return data, nil
}
