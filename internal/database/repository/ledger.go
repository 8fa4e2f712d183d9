package repository

import (
	"context"
	"database/sql"
	"time"
)

// LedgerRepo handles financial transactions.
type LedgerRepo struct {
	db *sql.DB
}

func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

func (r *LedgerRepo) Insert(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(id, date, merchant, merchant_key, amount, currency, category, account, source_hash, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`, t.ID, t.Date, t.Merchant, t.MerchantKey, t.Amount, t.Currency, t.Category, t.Account, t.SourceHash)
	return err
}

// InWindow returns transactions with from <= date < to, oldest first.
func (r *LedgerRepo) InWindow(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	return r.query(ctx, `
	SELECT id, date, merchant, merchant_key, amount, currency, category, account, source_hash, created_at
	FROM transactions WHERE date >= ? AND date < ? ORDER BY date ASC`, from, to)
}

// All returns the full ledger, oldest first.
func (r *LedgerRepo) All(ctx context.Context) ([]Transaction, error) {
	return r.query(ctx, `
	SELECT id, date, merchant, merchant_key, amount, currency, category, account, source_hash, created_at
	FROM transactions ORDER BY date ASC`)
}

func (r *LedgerRepo) query(ctx context.Context, q string, args ...interface{}) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Date, &t.Merchant, &t.MerchantKey, &t.Amount, &t.Currency,
			&t.Category, &t.Account, &t.SourceHash, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
