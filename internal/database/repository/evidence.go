package repository

import (
	"context"
	"database/sql"
)

// EvidenceRepo stores audit-trail links from generated findings/cards back to
// source records.
type EvidenceRepo struct {
	db *sql.DB
}

func NewEvidenceRepo(db *sql.DB) *EvidenceRepo { return &EvidenceRepo{db: db} }

func (r *EvidenceRepo) Insert(ctx context.Context, e Evidence) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO evidence(id, owner_id, record_kind, record_id, excerpt, hash, created_at)
	VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		e.ID, e.OwnerID, e.RecordKind, e.RecordID, e.Excerpt, e.Hash)
	return err
}

// ForOwner returns the evidence rows backing one finding/card.
func (r *EvidenceRepo) ForOwner(ctx context.Context, ownerID string) ([]Evidence, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, owner_id, record_kind, record_id, excerpt, hash, created_at
	FROM evidence WHERE owner_id = ? ORDER BY created_at ASC, id ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evidence
	for rows.Next() {
		var e Evidence
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.RecordKind, &e.RecordID, &e.Excerpt, &e.Hash, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
