package speech

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

const (
	// DefaultElevenLabsBaseURL is the ElevenLabs API root.
	DefaultElevenLabsBaseURL = "https://api.elevenlabs.io"
	// DefaultElevenLabsVoice is the "Rachel" voice.
	DefaultElevenLabsVoice = "EXAVITQu4vr4xnSDxMaL"
)

// ElevenLabsTTS synthesizes mp3 speech with the ElevenLabs API.
type ElevenLabsTTS struct {
	baseURL string
	apiKey  string
	voiceID string
	httpCli *http.Client
}

// NewElevenLabsTTS returns an ElevenLabs client. The API key is required.
func NewElevenLabsTTS(baseURL, apiKey, voiceID string) (*ElevenLabsTTS, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("elevenlabs: api key not set")
	}
	if baseURL == "" {
		baseURL = DefaultElevenLabsBaseURL
	}
	if voiceID == "" {
		voiceID = DefaultElevenLabsVoice
	}
	return &ElevenLabsTTS{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		voiceID: voiceID,
		httpCli: http.DefaultClient,
	}, nil
}

// Synthesize converts text to mp3 speech.
func (t *ElevenLabsTTS) Synthesize(ctx context.Context, text string) (*Audio, error) {
	text, err := checkText(text)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", t.baseURL, t.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", t.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := t.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}

	data, err := readAudio(resp, "elevenlabs")
	if err != nil {
		return nil, err
	}
	return &Audio{Data: data, Format: FormatMP3}, nil
}
