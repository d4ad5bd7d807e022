package audio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sarthakdhakal/signspeak/internal/speech"
)

// SQLiteStore keeps clips in a SQLite database, keyed by a random ID, and
// expires them after a TTL. Clips are served by this process at
// <urlPrefix>/<id>.<ext>.
type SQLiteStore struct {
	db        *sql.DB
	path      string
	ttl       time.Duration
	urlPrefix string
	log       *zap.Logger
	now       func() time.Time
}

// NewSQLiteStore opens dbPath and runs migrations. A ttl <= 0 disables expiry.
func NewSQLiteStore(dbPath string, ttl time.Duration, urlPrefix string, log *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; SQLite serializes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if log == nil {
		log = zap.NewNop()
	}

	s := &SQLiteStore{
		db:        db,
		path:      dbPath,
		ttl:       ttl,
		urlPrefix: urlPrefix,
		log:       log.Named("audio.sqlite"),
		now:       time.Now,
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Save inserts clip, assigning an ID if it has none, and sweeps expired clips.
func (s *SQLiteStore) Save(ctx context.Context, clip *Clip) (string, error) {
	if clip.ID == "" {
		clip.ID = uuid.NewString()
	}
	if clip.Format == "" {
		clip.Format = speech.FormatMP3
	}
	now := s.now()
	clip.CreatedAt = now

	if _, err := s.Sweep(ctx); err != nil {
		s.log.Warn("failed to sweep expired clips", zap.Error(err))
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clips (id, format, data, created_at) VALUES (?, ?, ?, ?)`,
		clip.ID, string(clip.Format), clip.Data, now.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("insert clip: %w", err)
	}

	s.log.Debug("clip saved",
		zap.String("id", clip.ID),
		zap.String("size", humanize.Bytes(uint64(len(clip.Data)))))

	return s.urlPrefix + "/" + clip.ID + clip.Ext(), nil
}

// Open returns the clip with the given ID. A trailing file extension is
// ignored so URLs returned by Save can be passed back verbatim.
func (s *SQLiteStore) Open(ctx context.Context, id string) (*Clip, error) {
	if i := strings.LastIndexByte(id, '.'); i > 0 {
		id = id[:i]
	}

	c := &Clip{}
	var format string
	var created int64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, format, data, created_at FROM clips WHERE id = ?`,
		id,
	).Scan(&c.ID, &format, &c.Data, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	c.Format = speech.Format(format)
	c.CreatedAt = time.Unix(0, created)
	if s.expired(c.CreatedAt) {
		return nil, ErrNotFound
	}
	return c, nil
}

// Sweep deletes expired clips and returns how many were removed.
func (s *SQLiteStore) Sweep(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).UnixNano()
	res, err := s.db.ExecContext(ctx, `DELETE FROM clips WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of stored clips.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clips`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) expired(created time.Time) bool {
	return s.ttl > 0 && s.now().Sub(created) > s.ttl
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}
