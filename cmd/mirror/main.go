// Command mirror runs the pattern-detection engine against the local record
// store.
//
// Usage:
//
//	mirror diff <daily|weekly|monthly> [date]      Financial diff for the period containing date
//	mirror scan <from> [to]                        Per-day inconsistency scan over a date range
//	mirror confront <weekly|monthly> [date]        Regenerate confrontations for the window ending at date
//	mirror compare <aFrom> <aTo> <bFrom> <bTo>     Two-period comparison
//	mirror rules <file.toml>                       Import suppression rules
//	mirror aliases                                 Suggest merchant label merges
//	mirror seed [date]                             Seed sample data ending at date
//	mirror erase                                   Erase all user data
//
// Dates are YYYY-MM-DD and default to today.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alperenugurlu/mirror-history/internal/config"
	"github.com/alperenugurlu/mirror-history/internal/database"
	"github.com/alperenugurlu/mirror-history/internal/database/repository"
	"github.com/alperenugurlu/mirror-history/internal/logging"
	"github.com/alperenugurlu/mirror-history/internal/rules"
	"github.com/alperenugurlu/mirror-history/internal/service"
	"github.com/alperenugurlu/mirror-history/internal/testdata"
	"github.com/google/uuid"
)

const usage = `mirror - personal-data pattern detection

Usage:
  mirror <command> [args]

Commands:
  diff <daily|weekly|monthly> [date]    Financial diff for the period containing date
  scan <from> [to]                      Per-day inconsistency scan over a date range
  confront <weekly|monthly> [date]      Regenerate confrontations for the window ending at date
  compare <aFrom> <aTo> <bFrom> <bTo>   Two-period comparison
  rules <file.toml>                     Import suppression rules
  aliases                               Suggest merchant label merges
  seed [date]                           Seed sample data ending at date
  erase                                 Erase all user data

Environment:
  MIRROR_CONFIG           Path to a config file (default ~/.config/mirror/config.toml)
  MIRROR_DATABASE_PATH    Override the sqlite path
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg config.Config
	db  *sql.DB

	ledger    *repository.LedgerRepo
	mood      *repository.MoodRepo
	calendar  *repository.CalendarRepo
	health    *repository.HealthRepo
	locations *repository.LocationRepo
	notes     *repository.NoteRepo
	media     *repository.MediaRepo
	events    *repository.EventRepo
	findings  *repository.FindingRepo
	confronts *repository.ConfrontationRepo
	evidence  *repository.EvidenceRepo
	diffs     *repository.DiffRepo
	rules     *repository.RuleRepo
	activity  *repository.ActivityRepo
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:       cfg,
		db:        db,
		ledger:    repository.NewLedgerRepo(db),
		mood:      repository.NewMoodRepo(db),
		calendar:  repository.NewCalendarRepo(db),
		health:    repository.NewHealthRepo(db),
		locations: repository.NewLocationRepo(db),
		notes:     repository.NewNoteRepo(db),
		media:     repository.NewMediaRepo(db),
		events:    repository.NewEventRepo(db),
		findings:  repository.NewFindingRepo(db),
		confronts: repository.NewConfrontationRepo(db),
		evidence:  repository.NewEvidenceRepo(db),
		diffs:     repository.NewDiffRepo(db),
		rules:     repository.NewRuleRepo(db),
		activity:  repository.NewActivityRepo(db),
	}, nil
}

func run(cmd string, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.db.Close()

	log := logging.New(a.cfg.Log.Level, a.cfg.Log.JSON, os.Stderr)
	ctx := context.Background()

	switch cmd {
	case "diff":
		if len(args) < 1 {
			return fmt.Errorf("diff needs a period type")
		}
		ref, err := argDate(args, 1)
		if err != nil {
			return err
		}
		svc := &service.DiffService{
			Ledger: a.ledger, Events: a.events, Evidence: a.evidence,
			Diffs: a.diffs, Rules: a.rules, Activity: a.activity, Log: log,
			RefundThresholdDays: a.cfg.Detectors.RefundThresholdDays,
			RefundMinAmount:     a.cfg.Detectors.RefundMinAmount,
		}
		report, err := svc.Generate(ctx, args[0], ref)
		if err != nil {
			return err
		}
		fmt.Println(report.Diff.Summary)
		for _, c := range report.Cards {
			fmt.Printf("  [%s] %s (impact %+.2f, confidence %.2f)\n", c.Type, c.Summary, c.Impact, c.Confidence)
		}
		return nil

	case "scan":
		if len(args) < 1 {
			return fmt.Errorf("scan needs a from date")
		}
		from, err := time.Parse("2006-01-02", args[0])
		if err != nil {
			return err
		}
		to, err := argDate(args, 1)
		if err != nil {
			return err
		}
		svc := &service.ScanService{
			Ledger: a.ledger, Mood: a.mood, Calendar: a.calendar, Health: a.health,
			Locations: a.locations, Media: a.media, Events: a.events, Findings: a.findings, Log: log,
			TimeGapMinHours:   a.cfg.Detectors.TimeGapMinHours,
			OverlapMinutes:    a.cfg.Detectors.ScheduleOverlapMinutes,
			EmotionalSpendMin: a.cfg.Detectors.EmotionalSpendMinAmount,
		}
		n, err := svc.ScanRange(ctx, from, to)
		if err != nil {
			return err
		}
		fmt.Printf("stored %d findings\n", n)
		return nil

	case "confront":
		if len(args) < 1 {
			return fmt.Errorf("confront needs a period type")
		}
		ref, err := argDate(args, 1)
		if err != nil {
			return err
		}
		svc := &service.ConfrontService{
			Ledger: a.ledger, Mood: a.mood, Calendar: a.calendar, Health: a.health,
			Locations: a.locations, Notes: a.notes, Confrontations: a.confronts, Log: log,
		}
		out, err := svc.Generate(ctx, args[0], ref)
		if err != nil {
			return err
		}
		for _, c := range out {
			fmt.Printf("[%s %.2f] %s - %s\n", c.Category, c.Severity, c.Title, c.Insight)
		}
		return nil

	case "compare":
		if len(args) != 4 {
			return fmt.Errorf("compare needs four dates")
		}
		dates := make([]time.Time, 4)
		for i, arg := range args {
			d, err := time.Parse("2006-01-02", arg)
			if err != nil {
				return err
			}
			dates[i] = d
		}
		svc := &service.CompareService{
			Ledger: a.ledger, Mood: a.mood, Calendar: a.calendar, Health: a.health,
			Locations: a.locations, Notes: a.notes, Media: a.media, Log: log,
		}
		result, err := svc.Compare(ctx, dates[0], dates[1].AddDate(0, 0, 1), dates[2], dates[3].AddDate(0, 0, 1))
		if err != nil {
			return err
		}
		for _, ch := range result.Changes {
			fmt.Printf("%-26s %10.2f -> %10.2f  %+6.1f%%  %s\n", ch.Metric, ch.A, ch.B, ch.DeltaPct, ch.Direction)
		}
		return nil

	case "rules":
		if len(args) != 1 {
			return fmt.Errorf("rules needs a file path")
		}
		imported, err := rules.ImportFile(args[0])
		if err != nil {
			return err
		}
		for _, r := range imported {
			r.ID = uuid.NewString()
			if err := a.rules.Insert(ctx, r); err != nil {
				return err
			}
		}
		fmt.Printf("imported %d rules\n", len(imported))
		return nil

	case "aliases":
		svc := &service.MerchantService{Ledger: a.ledger}
		groups, err := svc.SuggestAliases(ctx)
		if err != nil {
			return err
		}
		for _, g := range groups {
			fmt.Printf("%4d txns: %v\n", g.Transactions, g.Labels)
		}
		return nil

	case "seed":
		ref, err := argDate(args, 0)
		if err != nil {
			return err
		}
		repos := testdata.Repos{
			Ledger: a.ledger, Mood: a.mood, Calendar: a.calendar, Health: a.health,
			Locations: a.locations, Notes: a.notes, Media: a.media,
		}
		if err := testdata.Seed(ctx, repos, ref); err != nil {
			return err
		}
		fmt.Println("seeded sample data")
		return nil

	case "erase":
		svc := &service.MaintenanceService{DB: a.db}
		if err := svc.Erase(ctx); err != nil {
			return err
		}
		fmt.Println("all user data erased")
		return nil

	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func argDate(args []string, i int) (time.Time, error) {
	if len(args) <= i {
		return database.Now(), nil
	}
	return time.Parse("2006-01-02", args[i])
}
