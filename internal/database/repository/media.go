package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// MediaRepo handles photo/video rows.
type MediaRepo struct {
	db *sql.DB
}

func NewMediaRepo(db *sql.DB) *MediaRepo { return &MediaRepo{db: db} }

func (r *MediaRepo) Insert(ctx context.Context, m MediaEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO media_entries(id, kind, mood_tone, tone_confidence, people_count, tags, ts) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Kind, m.MoodTone, m.ToneConfidence, m.PeopleCount, strings.Join(m.Tags, ","), m.Ts)
	return err
}

// InWindow returns media with from <= ts < to, oldest first.
func (r *MediaRepo) InWindow(ctx context.Context, from, to time.Time) ([]MediaEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, mood_tone, tone_confidence, people_count, tags, ts
		 FROM media_entries WHERE ts >= ? AND ts < ? ORDER BY ts ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MediaEntry
	for rows.Next() {
		var m MediaEntry
		var tags string
		if err := rows.Scan(&m.ID, &m.Kind, &m.MoodTone, &m.ToneConfidence, &m.PeopleCount, &tags, &m.Ts); err != nil {
			return nil, err
		}
		if tags != "" {
			m.Tags = strings.Split(tags, ",")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
