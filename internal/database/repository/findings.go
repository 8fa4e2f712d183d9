package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/alperenugurlu/mirror-history/internal/database"
)

// FindingRepo stores per-day inconsistencies.
type FindingRepo struct {
	db *sql.DB
}

func NewFindingRepo(db *sql.DB) *FindingRepo { return &FindingRepo{db: db} }

// ReplaceForDate deletes every finding for date and inserts the new set
// inside one transaction. Rescanning a day is therefore idempotent and a
// reader never sees the cleared intermediate state.
func (r *FindingRepo) ReplaceForDate(ctx context.Context, date string, findings []Finding) error {
	return database.WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM findings WHERE date = ?`, date); err != nil {
			return err
		}
		for _, f := range findings {
			evidence, err := json.Marshal(f.EvidenceIDs)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO findings(id, date, type, severity, title, description, evidence_ids, question, created_at)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
				f.ID, f.Date, f.Type, f.Severity, f.Title, f.Description, string(evidence), f.Question); err != nil {
				return err
			}
		}
		return nil
	})
}

// ForDate returns findings for one calendar date.
func (r *FindingRepo) ForDate(ctx context.Context, date string) ([]Finding, error) {
	return r.query(ctx, `
	SELECT id, date, type, severity, title, description, evidence_ids, question, created_at
	FROM findings WHERE date = ? ORDER BY severity DESC, id ASC`, date)
}

// InRange returns findings with from <= date <= to.
func (r *FindingRepo) InRange(ctx context.Context, from, to string) ([]Finding, error) {
	return r.query(ctx, `
	SELECT id, date, type, severity, title, description, evidence_ids, question, created_at
	FROM findings WHERE date >= ? AND date <= ? ORDER BY date ASC, severity DESC`, from, to)
}

func (r *FindingRepo) query(ctx context.Context, q string, args ...interface{}) ([]Finding, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Finding
	for rows.Next() {
		var f Finding
		var evidence string
		if err := rows.Scan(&f.ID, &f.Date, &f.Type, &f.Severity, &f.Title, &f.Description, &evidence, &f.Question, &f.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(evidence), &f.EvidenceIDs); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
