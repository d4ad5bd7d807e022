// Package audio stores synthesized speech clips and hands back the URL a
// browser can fetch them from.
package audio

import (
	"context"
	"errors"
	"time"

	"github.com/sarthakdhakal/signspeak/internal/speech"
)

// ErrNotFound is returned when a requested clip does not exist.
var ErrNotFound = errors.New("not found")

// Clip is one synthesized audio artifact.
type Clip struct {
	ID        string
	Data      []byte
	Format    speech.Format
	CreatedAt time.Time
}

// Ext returns the clip file extension including the dot.
func (c *Clip) Ext() string {
	if c.Format == "" {
		return "." + string(speech.FormatMP3)
	}
	return "." + string(c.Format)
}

// ContentType returns the MIME type of the clip.
func (c *Clip) ContentType() string {
	return c.Format.ContentType()
}

// Store persists clips and returns their URL.
type Store interface {
	Save(ctx context.Context, clip *Clip) (url string, err error)
	Close() error
}

// Opener is implemented by stores whose clips are served by this process
// rather than by a static file server or object storage.
type Opener interface {
	Open(ctx context.Context, id string) (*Clip, error)
}
