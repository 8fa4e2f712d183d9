package repository

import (
	"context"
	"database/sql"
	"time"
)

// LocationRepo handles visited places.
type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{db: db} }

func (r *LocationRepo) Insert(ctx context.Context, l LocationEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO location_entries(id, lat, lon, address, ts) VALUES(?, ?, ?, ?, ?)`,
		l.ID, l.Lat, l.Lon, l.Address, l.Ts)
	return err
}

// InWindow returns visits with from <= ts < to, oldest first.
func (r *LocationRepo) InWindow(ctx context.Context, from, to time.Time) ([]LocationEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, lat, lon, address, ts FROM location_entries WHERE ts >= ? AND ts < ? ORDER BY ts ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LocationEntry
	for rows.Next() {
		var l LocationEntry
		if err := rows.Scan(&l.ID, &l.Lat, &l.Lon, &l.Address, &l.Ts); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
