// Package catalog is the song lookup collaborator. The broadcast
// engine treats songs as opaque payloads; this package is where they
// actually live.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MayAshke/JaMoveo-server/internal/song"
)

var ErrNotFound = errors.New("song not found")

const schema = `
CREATE TABLE IF NOT EXISTS songs (
	id      TEXT PRIMARY KEY,
	title   TEXT NOT NULL,
	artist  TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_songs_title ON songs(title);
`

// Catalog reads songs out of the shared SQLite database.
type Catalog struct {
	db *sql.DB
}

// New prepares the songs table and returns a catalog over db.
func New(db *sql.DB) (*Catalog, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create songs schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Get returns the song with the given id.
func (c *Catalog) Get(ctx context.Context, id string) (*song.Song, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, title, artist, content FROM songs WHERE id = ?`, id)

	var s song.Song
	if err := row.Scan(&s.ID, &s.Title, &s.Artist, &s.Content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get song %s: %w", id, err)
	}
	return &s, nil
}

// List returns every song, content omitted, ordered by title. Clients
// browse this to pick a song, then fetch the full payload by id.
func (c *Catalog) List(ctx context.Context) ([]*song.Song, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, title, artist FROM songs ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	defer rows.Close()

	var out []*song.Song
	for rows.Next() {
		var s song.Song
		if err := rows.Scan(&s.ID, &s.Title, &s.Artist); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Add inserts or replaces a song. Used by the importer and by tests.
func (c *Catalog) Add(ctx context.Context, s *song.Song) error {
	if s.ID == "" || s.Title == "" {
		return fmt.Errorf("song id and title are required")
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO songs (id, title, artist, content) VALUES (?, ?, ?, ?)`,
		s.ID, s.Title, s.Artist, s.Content)
	if err != nil {
		return fmt.Errorf("add song %s: %w", s.ID, err)
	}
	return nil
}
