package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/alperenugurlu/mirror-history/internal/database"
)

// ConfrontationRepo stores period-level narrative insights.
type ConfrontationRepo struct {
	db *sql.DB
}

func NewConfrontationRepo(db *sql.DB) *ConfrontationRepo { return &ConfrontationRepo{db: db} }

// ReplaceAll clears every stored confrontation and inserts the new set in one
// transaction. Confrontations are scoped to the latest generation call only.
func (r *ConfrontationRepo) ReplaceAll(ctx context.Context, cs []Confrontation) error {
	return database.WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM confrontations`); err != nil {
			return err
		}
		for _, c := range cs {
			points, err := json.Marshal(c.DataPoints)
			if err != nil {
				return err
			}
			related, err := json.Marshal(c.RelatedIDs)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO confrontations(id, title, insight, severity, category, data_points, related_ids, generated_at)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ID, c.Title, c.Insight, c.Severity, c.Category, string(points), string(related), c.GeneratedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// All returns stored confrontations, highest severity first.
func (r *ConfrontationRepo) All(ctx context.Context) ([]Confrontation, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, title, insight, severity, category, data_points, related_ids, generated_at
	FROM confrontations ORDER BY severity DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Confrontation
	for rows.Next() {
		var c Confrontation
		var points, related string
		if err := rows.Scan(&c.ID, &c.Title, &c.Insight, &c.Severity, &c.Category, &points, &related, &c.GeneratedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(points), &c.DataPoints); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(related), &c.RelatedIDs); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
