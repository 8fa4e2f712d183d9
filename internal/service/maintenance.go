package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alperenugurlu/mirror-history/internal/database"
)

// MaintenanceService houses destructive ops. Erase is the only sanctioned
// way user records leave the store.
type MaintenanceService struct {
	DB *sql.DB
}

// Erase wipes all user data and derived output. The schema stays intact so
// the engine can keep running against an empty store.
func (s *MaintenanceService) Erase(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		tables := []string{
			"evidence",
			"derived_events",
			"diffs",
			"findings",
			"confrontations",
			"activity_log",
			"rules",
			"media_entries",
			"note_entries",
			"location_entries",
			"health_entries",
			"calendar_entries",
			"mood_entries",
			"transactions",
		}
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("erase table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}
