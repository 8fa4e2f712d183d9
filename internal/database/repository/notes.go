package repository

import (
	"context"
	"database/sql"
	"time"
)

// NoteRepo handles free-text notes.
type NoteRepo struct {
	db *sql.DB
}

func NewNoteRepo(db *sql.DB) *NoteRepo { return &NoteRepo{db: db} }

func (r *NoteRepo) Insert(ctx context.Context, n NoteEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO note_entries(id, body, source, ts) VALUES(?, ?, ?, ?)`,
		n.ID, n.Body, n.Source, n.Ts)
	return err
}

// InWindow returns notes with from <= ts < to, oldest first.
func (r *NoteRepo) InWindow(ctx context.Context, from, to time.Time) ([]NoteEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, body, source, ts FROM note_entries WHERE ts >= ? AND ts < ? ORDER BY ts ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NoteEntry
	for rows.Next() {
		var n NoteEntry
		if err := rows.Scan(&n.ID, &n.Body, &n.Source, &n.Ts); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
