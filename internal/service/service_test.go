package service

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alperenugurlu/mirror-history/internal/database"
	"github.com/alperenugurlu/mirror-history/internal/database/repository"
)

// testStore is a migrated throwaway sqlite database with one repo per table.
type testStore struct {
	db             *sql.DB
	ledger         *repository.LedgerRepo
	mood           *repository.MoodRepo
	calendar       *repository.CalendarRepo
	health         *repository.HealthRepo
	locations      *repository.LocationRepo
	notes          *repository.NoteRepo
	media          *repository.MediaRepo
	events         *repository.EventRepo
	findings       *repository.FindingRepo
	confrontations *repository.ConfrontationRepo
	evidence       *repository.EvidenceRepo
	diffs          *repository.DiffRepo
	rules          *repository.RuleRepo
	activity       *repository.ActivityRepo
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrationsWithDB(db))

	return &testStore{
		db:             db,
		ledger:         repository.NewLedgerRepo(db),
		mood:           repository.NewMoodRepo(db),
		calendar:       repository.NewCalendarRepo(db),
		health:         repository.NewHealthRepo(db),
		locations:      repository.NewLocationRepo(db),
		notes:          repository.NewNoteRepo(db),
		media:          repository.NewMediaRepo(db),
		events:         repository.NewEventRepo(db),
		findings:       repository.NewFindingRepo(db),
		confrontations: repository.NewConfrontationRepo(db),
		evidence:       repository.NewEvidenceRepo(db),
		diffs:          repository.NewDiffRepo(db),
		rules:          repository.NewRuleRepo(db),
		activity:       repository.NewActivityRepo(db),
	}
}

// seqIDs returns a deterministic ID mint for services under test.
func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%04d", prefix, n)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strptr(s string) *string { return &s }

func seedTxn(t *testing.T, s *testStore, id, merchant string, amount float64, date time.Time) {
	t.Helper()
	require.NoError(t, s.ledger.Insert(context.Background(), repository.Transaction{
		ID: id, Date: date, Merchant: merchant, Amount: amount, Currency: "USD",
		SourceHash: "src-" + id,
	}))
}

func seedMood(t *testing.T, s *testStore, id string, score int, ts time.Time) {
	t.Helper()
	require.NoError(t, s.mood.Insert(context.Background(), repository.MoodEntry{
		ID: id, Score: score, Ts: ts,
	}))
}

func seedEvent(t *testing.T, s *testStore, id, title string, start, end time.Time, location string) {
	t.Helper()
	e := repository.CalendarEntry{ID: id, Title: title, Start: start, End: end}
	if location != "" {
		e.Location = &location
	}
	require.NoError(t, s.calendar.Insert(context.Background(), e))
}

func seedLocation(t *testing.T, s *testStore, id, address string, ts time.Time) {
	t.Helper()
	require.NoError(t, s.locations.Insert(context.Background(), repository.LocationEntry{
		ID: id, Address: address, Ts: ts,
	}))
}

func seedNote(t *testing.T, s *testStore, id, body string, ts time.Time) {
	t.Helper()
	require.NoError(t, s.notes.Insert(context.Background(), repository.NoteEntry{
		ID: id, Body: body, Source: "text", Ts: ts,
	}))
}

func seedWorkout(t *testing.T, s *testStore, id string, ts time.Time) {
	t.Helper()
	require.NoError(t, s.health.Insert(context.Background(), repository.HealthEntry{
		ID: id, Metric: "workout", Value: 1, Unit: "session", Ts: ts,
	}))
}
