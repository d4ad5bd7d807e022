package speech

import "fmt"

// Backend names accepted by New.
const (
	BackendGoogle     = "gtts"
	BackendElevenLabs = "elevenlabs"
	BackendOpenAI     = "openai"
	BackendPiper      = "piper"
)

// Config selects and configures a synthesizer backend.
type Config struct {
	Backend  string
	Language string
	BaseURL  string
	APIKey   string
	Voice    string
	Model    string
	// Binary is the Piper executable.
	Binary string
}

// New builds the synthesizer named by cfg.Backend.
func New(cfg Config) (Synthesizer, error) {
	switch cfg.Backend {
	case "", BackendGoogle:
		return NewGoogleTTS(cfg.BaseURL, cfg.Language), nil
	case BackendElevenLabs:
		return NewElevenLabsTTS(cfg.BaseURL, cfg.APIKey, cfg.Voice)
	case BackendOpenAI:
		return NewOpenAITTS(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Voice)
	case BackendPiper:
		return NewPiperTTS(cfg.Binary, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown speech backend %q", cfg.Backend)
	}
}
