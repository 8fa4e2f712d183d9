package repository

import (
	"context"
	"database/sql"
)

// DiffRepo stores financial diff reports.
type DiffRepo struct {
	db *sql.DB
}

func NewDiffRepo(db *sql.DB) *DiffRepo { return &DiffRepo{db: db} }

func (r *DiffRepo) Insert(ctx context.Context, d Diff) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO diffs(id, period_type, period_start, period_end, summary, total_spend, baseline_spend, change_pct, cards, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		d.ID, d.PeriodType, d.PeriodStart, d.PeriodEnd, d.Summary, d.TotalSpend, d.BaselineSpend, d.ChangePct, string(d.Cards))
	return err
}

// Latest returns the most recently created diff, or nil when none exist.
func (r *DiffRepo) Latest(ctx context.Context) (*Diff, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, period_type, period_start, period_end, summary, total_spend, baseline_spend, change_pct, cards, created_at
	FROM diffs ORDER BY created_at DESC, id DESC LIMIT 1`)
	var d Diff
	var cards string
	if err := row.Scan(&d.ID, &d.PeriodType, &d.PeriodStart, &d.PeriodEnd, &d.Summary,
		&d.TotalSpend, &d.BaselineSpend, &d.ChangePct, &cards, &d.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	d.Cards = []byte(cards)
	return &d, nil
}
