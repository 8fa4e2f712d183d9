package repository

import (
	"context"
	"database/sql"
)

// RuleRepo stores suppression rules.
type RuleRepo struct {
	db *sql.DB
}

func NewRuleRepo(db *sql.DB) *RuleRepo { return &RuleRepo{db: db} }

func (r *RuleRepo) Insert(ctx context.Context, rule Rule) error {
	enabled := 0
	if rule.Enabled {
		enabled = 1
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO rules(id, type, payload, enabled, created_at) VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		rule.ID, rule.Type, string(rule.Payload), enabled)
	return err
}

// Active returns enabled rules only.
func (r *RuleRepo) Active(ctx context.Context) ([]Rule, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, type, payload, enabled, created_at FROM rules WHERE enabled = 1 ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		var rule Rule
		var payload string
		var enabled int
		if err := rows.Scan(&rule.ID, &rule.Type, &payload, &enabled, &rule.CreatedAt); err != nil {
			return nil, err
		}
		rule.Payload = []byte(payload)
		rule.Enabled = enabled == 1
		out = append(out, rule)
	}
	return out, rows.Err()
}
