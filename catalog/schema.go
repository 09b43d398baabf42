package catalog

import (
	"database/sql"
)

var songsSchema = []string{
	`CREATE TABLE IF NOT EXISTS songs (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL,
    name TEXT,
    year INTEGER,
    release_date TEXT,
    attributes BLOB NOT NULL,
    vector BLOB NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS songs_id ON songs(id)`,
}

// EnsureSchema creates the songs table and its id index if they do not
// already exist.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range songsSchema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
