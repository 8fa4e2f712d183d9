package repository

import (
	"context"
	"database/sql"
	"time"
)

// HealthRepo handles health metric samples.
type HealthRepo struct {
	db *sql.DB
}

func NewHealthRepo(db *sql.DB) *HealthRepo { return &HealthRepo{db: db} }

func (r *HealthRepo) Insert(ctx context.Context, h HealthEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO health_entries(id, metric, value, unit, ts) VALUES(?, ?, ?, ?, ?)`,
		h.ID, h.Metric, h.Value, h.Unit, h.Ts)
	return err
}

// InWindow returns samples of any metric with from <= ts < to, oldest first.
func (r *HealthRepo) InWindow(ctx context.Context, from, to time.Time) ([]HealthEntry, error) {
	return r.query(ctx,
		`SELECT id, metric, value, unit, ts FROM health_entries WHERE ts >= ? AND ts < ? ORDER BY ts ASC`, from, to)
}

// ByType returns samples of one metric within the window, oldest first.
func (r *HealthRepo) ByType(ctx context.Context, metric string, from, to time.Time) ([]HealthEntry, error) {
	return r.query(ctx,
		`SELECT id, metric, value, unit, ts FROM health_entries WHERE metric = ? AND ts >= ? AND ts < ? ORDER BY ts ASC`,
		metric, from, to)
}

func (r *HealthRepo) query(ctx context.Context, q string, args ...interface{}) ([]HealthEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HealthEntry
	for rows.Next() {
		var h HealthEntry
		if err := rows.Scan(&h.ID, &h.Metric, &h.Value, &h.Unit, &h.Ts); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
