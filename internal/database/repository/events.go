package repository

import (
	"context"
	"database/sql"
	"time"
)

// EventRepo provides the unified timeline over all domain tables plus the
// derived_events table that backs generated diff cards.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// InWindow returns one generic event per domain record in the window,
// oldest first. Calendar events are keyed on their start time.
func (r *EventRepo) InWindow(ctx context.Context, from, to time.Time) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, 'ledger' AS kind, date AS ts FROM transactions WHERE date >= ?1 AND date < ?2
	UNION ALL SELECT id, 'mood', ts FROM mood_entries WHERE ts >= ?1 AND ts < ?2
	UNION ALL SELECT id, 'calendar', start_ts FROM calendar_entries WHERE start_ts >= ?1 AND start_ts < ?2
	UNION ALL SELECT id, 'health', ts FROM health_entries WHERE ts >= ?1 AND ts < ?2
	UNION ALL SELECT id, 'location', ts FROM location_entries WHERE ts >= ?1 AND ts < ?2
	UNION ALL SELECT id, 'note', ts FROM note_entries WHERE ts >= ?1 AND ts < ?2
	UNION ALL SELECT id, 'media', ts FROM media_entries WHERE ts >= ?1 AND ts < ?2
	ORDER BY ts ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Kind, &e.Ts); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertDerived stores a backing record for a generated card.
func (r *EventRepo) InsertDerived(ctx context.Context, e DerivedEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO derived_events(id, kind, ts, title, payload) VALUES(?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.Ts, e.Title, string(e.Payload))
	return err
}

// Get looks up a derived event by id. Returns nil when absent.
func (r *EventRepo) Get(ctx context.Context, id string) (*DerivedEvent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, kind, ts, title, payload FROM derived_events WHERE id = ?`, id)
	var e DerivedEvent
	var payload string
	if err := row.Scan(&e.ID, &e.Kind, &e.Ts, &e.Title, &payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	e.Payload = []byte(payload)
	return &e, nil
}
