package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Photos shown on the ring
		`CREATE TABLE IF NOT EXISTS photos (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			file_path TEXT NOT NULL DEFAULT '',
			aspect_ratio REAL NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// State transition history
		`CREATE TABLE IF NOT EXISTS transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			gesture TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Plugin actions run when the app enters a state
		`CREATE TABLE IF NOT EXISTS hooks (
			id TEXT PRIMARY KEY,
			state TEXT NOT NULL CHECK(state IN ('ASSEMBLED', 'SCATTERED', 'PHOTO_ZOOM')),
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_photos_created_at ON photos(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_created_at ON transitions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_hooks_state ON hooks(state)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
