package repository

import (
	"context"
	"database/sql"
	"time"
)

// MoodRepo handles mood ratings.
type MoodRepo struct {
	db *sql.DB
}

func NewMoodRepo(db *sql.DB) *MoodRepo { return &MoodRepo{db: db} }

func (r *MoodRepo) Insert(ctx context.Context, m MoodEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mood_entries(id, score, note, ts) VALUES(?, ?, ?, ?)`,
		m.ID, m.Score, m.Note, m.Ts)
	return err
}

// InWindow returns mood entries with from <= ts < to, oldest first.
func (r *MoodRepo) InWindow(ctx context.Context, from, to time.Time) ([]MoodEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, score, note, ts FROM mood_entries WHERE ts >= ? AND ts < ? ORDER BY ts ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MoodEntry
	for rows.Next() {
		var m MoodEntry
		if err := rows.Scan(&m.ID, &m.Score, &m.Note, &m.Ts); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
