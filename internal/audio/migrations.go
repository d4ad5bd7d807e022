package audio

// runMigrations executes all database migrations.
func (s *SQLiteStore) runMigrations() error {
	migrations := []string{
		// Clips table - one row per synthesized utterance
		`CREATE TABLE IF NOT EXISTS clips (
			id TEXT PRIMARY KEY,
			format TEXT NOT NULL CHECK(format IN ('mp3', 'wav')),
			data BLOB NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_clips_created_at ON clips(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
