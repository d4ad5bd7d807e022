package speech

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// PiperTTS synthesizes wav speech with a local Piper binary.
type PiperTTS struct {
	binary string
	model  string
}

// NewPiperTTS returns a Piper synthesizer. binary defaults to "piper" on PATH.
func NewPiperTTS(binary, model string) (*PiperTTS, error) {
	if binary == "" {
		binary = "piper"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("piper binary: %w", err)
	}
	if _, err := os.Stat(model); err != nil {
		return nil, fmt.Errorf("piper voice model: %w", err)
	}
	return &PiperTTS{binary: path, model: model}, nil
}

// Synthesize runs Piper with text on stdin and returns the wav output.
func (p *PiperTTS) Synthesize(ctx context.Context, text string) (*Audio, error) {
	text, err := checkText(text)
	if err != nil {
		return nil, err
	}

	outPath := filepath.Join(os.TempDir(), "piper_"+uuid.NewString()+".wav")
	defer os.Remove(outPath)

	cmd := exec.CommandContext(ctx, p.binary, "--model", p.model, "--output-file", outPath)
	cmd.Dir = filepath.Dir(p.binary)
	cmd.Stdin = bytes.NewBufferString(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper failed: %w: %s", err, stderr.String())
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("piper output: %w", err)
	}
	return &Audio{Data: data, Format: FormatWAV}, nil
}
