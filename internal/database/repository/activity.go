package repository

import (
	"context"
	"database/sql"
	"time"
)

// ActivityRepo records engine runs for the downstream activity feed.
type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

func (r *ActivityRepo) Log(ctx context.Context, id, action, detail string, ts time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_log(id, action, detail, ts) VALUES(?, ?, ?, ?)`,
		id, action, detail, ts)
	return err
}
