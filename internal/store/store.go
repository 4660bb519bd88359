// Package store persists rehearsals and their participants. This is
// the relational collaborator next to the in-memory broadcast engine:
// who scheduled what is durable, who is connected right now is not.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

var ErrNotFound = errors.New("rehearsal not found")

const schema = `
CREATE TABLE IF NOT EXISTS rehearsals (
	id         TEXT PRIMARY KEY,
	admin_id   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS participants (
	rehearsal_id TEXT NOT NULL REFERENCES rehearsals(id),
	user_id      TEXT NOT NULL,
	joined_at    INTEGER NOT NULL,
	PRIMARY KEY (rehearsal_id, user_id)
);
`

type Rehearsal struct {
	ID        string    `json:"id"`
	AdminID   string    `json:"adminId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Participant struct {
	RehearsalID string    `json:"rehearsalId"`
	UserID      string    `json:"userId"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New prepares the rehearsal tables and returns a store over db.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create rehearsal schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// CreateRehearsal inserts a new rehearsal owned by adminID. The id is a
// ULID, so rows sort by creation time.
func (s *Store) CreateRehearsal(ctx context.Context, adminID string) (Rehearsal, error) {
	r := Rehearsal{
		ID:        ulid.Make().String(),
		AdminID:   adminID,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rehearsals (id, admin_id, created_at) VALUES (?, ?, ?)`,
		r.ID, r.AdminID, r.CreatedAt.UnixMilli())
	if err != nil {
		return Rehearsal{}, fmt.Errorf("create rehearsal: %w", err)
	}
	return r, nil
}

// GetRehearsal returns the rehearsal with the given id.
func (s *Store) GetRehearsal(ctx context.Context, id string) (Rehearsal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, admin_id, created_at FROM rehearsals WHERE id = ?`, id)

	var r Rehearsal
	var createdAt int64
	if err := row.Scan(&r.ID, &r.AdminID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Rehearsal{}, ErrNotFound
		}
		return Rehearsal{}, fmt.Errorf("get rehearsal %s: %w", id, err)
	}
	r.CreatedAt = time.UnixMilli(createdAt).UTC()
	return r, nil
}

// AddParticipant records userID joining rehearsalID. Joining twice is
// not an error; the original row wins.
func (s *Store) AddParticipant(ctx context.Context, rehearsalID, userID string) (Participant, error) {
	if _, err := s.GetRehearsal(ctx, rehearsalID); err != nil {
		return Participant{}, err
	}

	p := Participant{
		RehearsalID: rehearsalID,
		UserID:      userID,
		JoinedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO participants (rehearsal_id, user_id, joined_at) VALUES (?, ?, ?)`,
		p.RehearsalID, p.UserID, p.JoinedAt.UnixMilli())
	if err != nil {
		return Participant{}, fmt.Errorf("add participant: %w", err)
	}
	return p, nil
}

// ListParticipants returns everyone who joined the rehearsal, in join
// order.
func (s *Store) ListParticipants(ctx context.Context, rehearsalID string) ([]Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rehearsal_id, user_id, joined_at FROM participants WHERE rehearsal_id = ? ORDER BY joined_at`,
		rehearsalID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var p Participant
		var joinedAt int64
		if err := rows.Scan(&p.RehearsalID, &p.UserID, &joinedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.JoinedAt = time.UnixMilli(joinedAt).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}
