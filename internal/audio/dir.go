package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/sarthakdhakal/signspeak/internal/speech"
)

// FilePrefix starts the name of every clip written by DirStore.
const FilePrefix = "prediction_"

// DirStore keeps exactly one clip on disk: every Save deletes the clips
// written before it and writes prediction_<YYYYMMDDHHMMSSffffff>.<ext>.
type DirStore struct {
	dir       string
	urlPrefix string
	log       *zap.Logger

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewDirStore creates dir if needed. urlPrefix is the public path dir is
// served under, e.g. "/static".
func NewDirStore(dir, urlPrefix string, log *zap.Logger) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DirStore{
		dir:       dir,
		urlPrefix: urlPrefix,
		log:       log.Named("audio.dir"),
		now:       time.Now,
	}, nil
}

// Dir returns the directory clips are written to.
func (s *DirStore) Dir() string { return s.dir }

// Save replaces the current clip with clip.
func (s *DirStore) Save(ctx context.Context, clip *Clip) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeStale()

	name := FilePrefix + s.timestamp() + clip.Ext()
	path := filepath.Join(s.dir, name)

	tmp := path + ".part"
	if err := os.WriteFile(tmp, clip.Data, 0644); err != nil {
		return "", fmt.Errorf("write clip: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write clip: %w", err)
	}

	s.log.Debug("clip saved",
		zap.String("file", name),
		zap.String("size", humanize.Bytes(uint64(len(clip.Data)))))

	return s.urlPrefix + "/" + name, nil
}

// removeStale deletes every previously written clip. Failures are logged
// and otherwise ignored.
func (s *DirStore) removeStale() {
	for _, f := range []speech.Format{speech.FormatMP3, speech.FormatWAV} {
		matches, err := filepath.Glob(filepath.Join(s.dir, FilePrefix+"*."+string(f)))
		if err != nil {
			s.log.Warn("glob stale clips", zap.Error(err))
			continue
		}
		for _, m := range matches {
			if err := os.Remove(m); err != nil {
				s.log.Warn("failed to delete stale clip", zap.String("file", m), zap.Error(err))
			}
		}
	}
}

// timestamp returns a microsecond timestamp strictly later than the last
// one handed out, so two saves never share a name.
func (s *DirStore) timestamp() string {
	t := s.now().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t.Format("20060102150405") + fmt.Sprintf("%06d", t.Nanosecond()/int(time.Microsecond))
}

// Close is a no-op; clips are left for the static file server.
func (s *DirStore) Close() error { return nil }
