package speech

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// OpenAITTS synthesizes mp3 speech with the OpenAI audio API.
type OpenAITTS struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
}

// NewOpenAITTS returns an OpenAI speech client. baseURL may be empty to use
// the public API.
func NewOpenAITTS(baseURL, apiKey, model, voice string) (*OpenAITTS, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = string(openai.TTSModel1)
	}
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	return &OpenAITTS{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.SpeechModel(model),
		voice:  openai.SpeechVoice(voice),
	}, nil
}

// Synthesize converts text to mp3 speech.
func (t *OpenAITTS) Synthesize(ctx context.Context, text string) (*Audio, error) {
	text, err := checkText(text)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          t.model,
		Input:          text,
		Voice:          t.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai tts: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("openai tts read: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("openai tts returned no audio")
	}
	return &Audio{Data: data, Format: FormatMP3}, nil
}
