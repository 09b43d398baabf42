package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/viant/xtree/engine"
	"github.com/viant/xtree/song"
)

const songColumns = `id, name, year, release_date, attributes, vector`

// SQLiteStore is a Store backed by a SQLite database. Nearest relies on the
// vec_l2sq function registered by the engine package.
type SQLiteStore struct {
	db         *sql.DB
	normalizer song.Normalizer
}

// NewSQLiteStore creates a store over db, ensuring the songs schema exists.
// Vectors are derived from raw attributes with normalizer.
func NewSQLiteStore(db *sql.DB, normalizer song.Normalizer) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("catalog: db is nil")
	}
	if err := engine.RegisterVectorFunctions(); err != nil {
		return nil, err
	}
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, normalizer: normalizer}, nil
}

// Normalizer returns the normaliser used to derive stored vectors.
func (s *SQLiteStore) Normalizer() song.Normalizer { return s.normalizer }

// AddSongs inserts songs within a single transaction.
func (s *SQLiteStore) AddSongs(ctx context.Context, songs []*song.Song) error {
	if len(songs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO songs(`+songColumns+`) VALUES(?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sg := range songs {
		if sg.ID == "" {
			return fmt.Errorf("catalog: song %q has no id", sg.Name)
		}
		vec := sg.Vector(s.normalizer)
		if _, err := stmt.ExecContext(ctx, sg.ID, sg.Name, sg.Year, sg.ReleaseDate, EncodeVector(sg.Attributes[:]), EncodeVector(vec)); err != nil {
			return fmt.Errorf("catalog: insert %s: %w", sg.ID, err)
		}
	}
	return tx.Commit()
}

// Song returns the first song stored under id.
func (s *SQLiteStore) Song(ctx context.Context, id string) (*song.Song, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE id = ? ORDER BY seq LIMIT 1`, id)
	sg, _, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sg, err
}

// Songs iterates songs in insertion order.
func (s *SQLiteStore) Songs(ctx context.Context, fn func(seq int64, s *song.Song, vector []float32) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, `+songColumns+` FROM songs ORDER BY seq`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var seq int64
		sg, vec, err := scanSong(rows, &seq)
		if err != nil {
			return err
		}
		if err := fn(seq, sg, vec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of stored songs.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs`).Scan(&n)
	return n, err
}

// Nearest ranks every stored vector with vec_l2sq. Equal distances keep
// insertion order.
func (s *SQLiteStore) Nearest(ctx context.Context, query []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("catalog: k must be positive, got %d", k)
	}
	if len(query) != song.Dimensions {
		return nil, fmt.Errorf("catalog: query has %d dims, want %d", len(query), song.Dimensions)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+songColumns+`, vec_l2sq(vector, ?) AS dist FROM songs ORDER BY dist, seq LIMIT ?`,
		EncodeVector(query), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var (
			m    Match
			attr []byte
			vec  []byte
		)
		m.Song = &song.Song{}
		if err := rows.Scan(&m.Song.ID, &m.Song.Name, &m.Song.Year, &m.Song.ReleaseDate, &attr, &vec, &m.Distance); err != nil {
			return nil, err
		}
		if err := decodeAttributes(m.Song, attr); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSong reads songColumns, preceded by any extra destinations.
func scanSong(row scanner, extra ...any) (*song.Song, []float32, error) {
	var (
		sg        = &song.Song{}
		attr, raw []byte
	)
	dest := append(extra, &sg.ID, &sg.Name, &sg.Year, &sg.ReleaseDate, &attr, &raw)
	if err := row.Scan(dest...); err != nil {
		return nil, nil, err
	}
	if err := decodeAttributes(sg, attr); err != nil {
		return nil, nil, err
	}
	vec, err := DecodeVector(raw)
	if err != nil {
		return nil, nil, err
	}
	return sg, vec, nil
}

func decodeAttributes(sg *song.Song, b []byte) error {
	attr, err := DecodeVector(b)
	if err != nil {
		return err
	}
	if len(attr) != song.Dimensions {
		return fmt.Errorf("catalog: song %s has %d attributes, want %d", sg.ID, len(attr), song.Dimensions)
	}
	copy(sg.Attributes[:], attr)
	return nil
}

var _ Store = (*SQLiteStore)(nil)
