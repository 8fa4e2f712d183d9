// Package testdata seeds a plausible multi-domain dataset for demos and
// heavier tests.
package testdata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
)

// Repos bundles the repos Seed writes through.
type Repos struct {
	Ledger    *repository.LedgerRepo
	Mood      *repository.MoodRepo
	Calendar  *repository.CalendarRepo
	Health    *repository.HealthRepo
	Locations *repository.LocationRepo
	Notes     *repository.NoteRepo
	Media     *repository.MediaRepo
}

// Seed writes roughly 90 days of sample data ending at ref. The random
// source is fixed so repeated seeds of a fresh store are reproducible.
func Seed(ctx context.Context, repos Repos, ref time.Time) error {
	rng := rand.New(rand.NewSource(42))
	end := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -90)

	if err := seedLedger(ctx, repos.Ledger, rng, start, end); err != nil {
		return err
	}
	return seedDays(ctx, repos, rng, start, end)
}

func seedLedger(ctx context.Context, ledger *repository.LedgerRepo, rng *rand.Rand, start, end time.Time) error {
	insert := func(day time.Time, merchant string, amount float64, category string) error {
		t := repository.Transaction{
			ID:          uuid.NewString(),
			Date:        day.Add(time.Duration(8+rng.Intn(12)) * time.Hour),
			Merchant:    merchant,
			MerchantKey: strings.ToLower(merchant),
			Amount:      amount,
			Currency:    "USD",
		}
		if category != "" {
			t.Category = &category
		}
		sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%.2f", t.Date.Format(time.RFC3339), merchant, amount)))
		t.SourceHash = hex.EncodeToString(sum[:])
		return ledger.Insert(ctx, t)
	}

	// Subscriptions: Netflix with a price bump, Spotify steady.
	for m := 0; m < 3; m++ {
		day := start.AddDate(0, 0, 5+30*m)
		price := -15.99
		if m == 2 {
			price = -17.99
		}
		if err := insert(day, "Netflix", price, "Entertainment"); err != nil {
			return err
		}
		if err := insert(start.AddDate(0, 0, 12+30*m), "Spotify", -11.99, "Entertainment"); err != nil {
			return err
		}
	}

	// Regular coffee and groceries.
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		if rng.Float64() < 0.6 {
			if err := insert(day, "Starbucks", -(4.5 + rng.Float64()*3), "Coffee"); err != nil {
				return err
			}
		}
		if day.Weekday() == time.Saturday {
			if err := insert(day, "Whole Foods", -(60 + rng.Float64()*40), "Groceries"); err != nil {
				return err
			}
		}
	}

	// A big purchase with no refund, and one outlier coffee run.
	if err := insert(end.AddDate(0, 0, -48), "Apple Store", -999.00, "Electronics"); err != nil {
		return err
	}
	return insert(end.AddDate(0, 0, -3), "Starbucks", -47.50, "Coffee")
}

func seedDays(ctx context.Context, repos Repos, rng *rand.Rand, start, end time.Time) error {
	gym := "Iron Temple Gym, 44 Foundry St"
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		score := 3 + rng.Intn(3)
		if day.Weekday() == time.Monday {
			score = 1 + rng.Intn(2)
		}
		if err := repos.Mood.Insert(ctx, repository.MoodEntry{
			ID: uuid.NewString(), Score: score, Ts: day.Add(21 * time.Hour),
		}); err != nil {
			return err
		}

		if day.Weekday() != time.Saturday && day.Weekday() != time.Sunday {
			loc := "Office"
			if err := repos.Calendar.Insert(ctx, repository.CalendarEntry{
				ID: uuid.NewString(), Title: "Standup",
				Start: day.Add(9*time.Hour + 30*time.Minute), End: day.Add(10 * time.Hour),
				Location: &loc,
			}); err != nil {
				return err
			}
		}

		if day.Weekday() == time.Tuesday || day.Weekday() == time.Thursday {
			if err := repos.Health.Insert(ctx, repository.HealthEntry{
				ID: uuid.NewString(), Metric: "workout", Value: 1, Unit: "session", Ts: day.Add(18 * time.Hour),
			}); err != nil {
				return err
			}
			if err := repos.Locations.Insert(ctx, repository.LocationEntry{
				ID: uuid.NewString(), Lat: 40.71, Lon: -74.0, Address: gym, Ts: day.Add(18 * time.Hour),
			}); err != nil {
				return err
			}
		}

		if err := repos.Health.Insert(ctx, repository.HealthEntry{
			ID: uuid.NewString(), Metric: "steps", Value: float64(4000 + rng.Intn(8000)), Unit: "count", Ts: day.Add(23 * time.Hour),
		}); err != nil {
			return err
		}
		if err := repos.Health.Insert(ctx, repository.HealthEntry{
			ID: uuid.NewString(), Metric: "sleep_hours", Value: 5.5 + rng.Float64()*3, Unit: "hours", Ts: day.Add(8 * time.Hour),
		}); err != nil {
			return err
		}

		if rng.Float64() < 0.3 {
			if err := repos.Notes.Insert(ctx, repository.NoteEntry{
				ID: uuid.NewString(), Body: "Long day at the office, mostly meetings.", Source: "text", Ts: day.Add(22 * time.Hour),
			}); err != nil {
				return err
			}
		}
		if rng.Float64() < 0.25 {
			tone := []string{"happy", "neutral", "calm"}[rng.Intn(3)]
			if err := repos.Media.Insert(ctx, repository.MediaEntry{
				ID: uuid.NewString(), Kind: "photo", MoodTone: &tone, ToneConfidence: 0.6 + rng.Float64()*0.3,
				PeopleCount: rng.Intn(4), Tags: []string{"daily"}, Ts: day.Add(17 * time.Hour),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
