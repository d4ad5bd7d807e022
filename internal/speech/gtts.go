package speech

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultGoogleBaseURL is the Google Translate TTS endpoint.
const DefaultGoogleBaseURL = "https://translate.google.com/translate_tts"

// GoogleTTS synthesizes mp3 speech through the Google Translate TTS endpoint,
// the service used by gTTS.
type GoogleTTS struct {
	baseURL string
	lang    string
	client  *http.Client
}

// NewGoogleTTS returns a GoogleTTS for the given language ("en" when empty).
// An empty baseURL selects DefaultGoogleBaseURL.
func NewGoogleTTS(baseURL, lang string) *GoogleTTS {
	if baseURL == "" {
		baseURL = DefaultGoogleBaseURL
	}
	if lang == "" {
		lang = "en"
	}
	return &GoogleTTS{
		baseURL: baseURL,
		lang:    lang,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Synthesize fetches spoken text as mp3.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string) (*Audio, error) {
	text, err := checkText(text)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", g.lang)
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (signspeak)")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google tts request: %w", err)
	}

	data, err := readAudio(resp, "google")
	if err != nil {
		return nil, err
	}
	return &Audio{Data: data, Format: FormatMP3}, nil
}
