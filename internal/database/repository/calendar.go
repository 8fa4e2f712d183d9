package repository

import (
	"context"
	"database/sql"
	"time"
)

// CalendarRepo handles calendar events.
type CalendarRepo struct {
	db *sql.DB
}

func NewCalendarRepo(db *sql.DB) *CalendarRepo { return &CalendarRepo{db: db} }

func (r *CalendarRepo) Insert(ctx context.Context, c CalendarEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO calendar_entries(id, title, start_ts, end_ts, location, description) VALUES(?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Start, c.End, c.Location, c.Description)
	return err
}

// InWindow returns events starting within from <= start_ts < to, earliest first.
func (r *CalendarRepo) InWindow(ctx context.Context, from, to time.Time) ([]CalendarEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, start_ts, end_ts, location, description
		 FROM calendar_entries WHERE start_ts >= ? AND start_ts < ? ORDER BY start_ts ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalendarEntry
	for rows.Next() {
		var c CalendarEntry
		if err := rows.Scan(&c.ID, &c.Title, &c.Start, &c.End, &c.Location, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
