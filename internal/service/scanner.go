package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
	"github.com/alperenugurlu/mirror-history/internal/stats"
)

// Finding types emitted by the scanner.
const (
	FindingLocationMismatch   = "location_mismatch"
	FindingScheduleConflict   = "schedule_conflict"
	FindingMoodBehavior       = "mood_behavior_disconnect"
	FindingPatternBreak       = "pattern_break"
	FindingSpendingMood       = "spending_mood_correlation"
	FindingTimeGap            = "time_gap"
	FindingVisualMoodMismatch = "visual_mood_mismatch"
)

// Scanner defaults, overridable per service instance.
const (
	defaultTimeGapMinHours   = 2.0
	defaultOverlapMinutes    = 5
	defaultEmotionalSpendMin = 20.0
)

// toneRanges maps a photo mood tone to the reported-mood interval it is
// compatible with. The comparison widens each side by moodToneTolerance.
var toneRanges = map[string][2]float64{
	"happy":   {3.5, 5},
	"calm":    {3, 4.5},
	"neutral": {2.5, 3.5},
	"tense":   {1.5, 3},
	"sad":     {1, 2.5},
}

const moodToneTolerance = 0.5

// ScanService runs the seven per-day cross-domain pattern detectors.
// Callers must not scan the same date concurrently from two goroutines; the
// per-date replace is transactional but not locked.
type ScanService struct {
	Ledger    *repository.LedgerRepo
	Mood      *repository.MoodRepo
	Calendar  *repository.CalendarRepo
	Health    *repository.HealthRepo
	Locations *repository.LocationRepo
	Media     *repository.MediaRepo
	Events    *repository.EventRepo
	Findings  *repository.FindingRepo
	Log       *slog.Logger

	Clock func() time.Time
	NewID func() string

	TimeGapMinHours   float64
	OverlapMinutes    int
	EmotionalSpendMin float64
}

// ScanRange scans every calendar day from 'from' through 'to' inclusive and
// returns the total number of findings stored.
func (s *ScanService) ScanRange(ctx context.Context, from, to time.Time) (int, error) {
	total := 0
	for day := dayStart(from); !day.After(dayStart(to)); day = day.AddDate(0, 0, 1) {
		findings, err := s.ScanDay(ctx, day)
		if err != nil {
			return total, fmt.Errorf("scan %s: %w", dateKey(day), err)
		}
		total += len(findings)
	}
	if s.Log != nil {
		s.Log.Info("scan complete", "from", dateKey(from), "to", dateKey(to), "findings", total)
	}
	return total, nil
}

// ScanDay recomputes the finding set for one date. Prior findings for the
// date are replaced in the same transaction, so rescans are idempotent.
func (s *ScanService) ScanDay(ctx context.Context, day time.Time) ([]repository.Finding, error) {
	day = dayStart(day)
	next := day.AddDate(0, 0, 1)

	calendar, err := s.Calendar.InWindow(ctx, day, next)
	if err != nil {
		return nil, err
	}
	locations, err := s.Locations.InWindow(ctx, day, next)
	if err != nil {
		return nil, err
	}
	moods, err := s.Mood.InWindow(ctx, day, next)
	if err != nil {
		return nil, err
	}
	ledger, err := s.Ledger.InWindow(ctx, day, next)
	if err != nil {
		return nil, err
	}
	workouts, err := s.Health.ByType(ctx, "workout", day, next)
	if err != nil {
		return nil, err
	}
	media, err := s.Media.InWindow(ctx, day, next)
	if err != nil {
		return nil, err
	}
	events, err := s.Events.InWindow(ctx, day, next)
	if err != nil {
		return nil, err
	}

	date := dateKey(day)
	var findings []repository.Finding
	findings = append(findings, s.locationMismatches(date, calendar, locations)...)
	findings = append(findings, s.scheduleConflicts(date, calendar)...)
	findings = append(findings, s.moodBehaviorDisconnects(date, moods, ledger, workouts, calendar)...)

	breaks, err := s.patternBreaks(ctx, day, events)
	if err != nil {
		return nil, err
	}
	findings = append(findings, breaks...)

	emotional, err := s.emotionalSpending(ctx, day, moods, ledger)
	if err != nil {
		return nil, err
	}
	findings = append(findings, emotional...)

	findings = append(findings, s.timeGaps(date, events)...)
	findings = append(findings, s.visualMoodMismatches(date, moods, media)...)

	if err := s.Findings.ReplaceForDate(ctx, date, findings); err != nil {
		return nil, fmt.Errorf("replace findings: %w", err)
	}
	if s.Log != nil {
		s.Log.Debug("day scanned", "date", date, "findings", len(findings))
	}
	return findings, nil
}

func (s *ScanService) finding(date, typ string, severity float64, title, desc, question string, evidence []string) repository.Finding {
	return repository.Finding{
		ID:          newID(s.NewID),
		Date:        date,
		Type:        typ,
		Severity:    stats.Clamp(severity, 0, 1),
		Title:       title,
		Description: desc,
		Question:    question,
		EvidenceIDs: evidence,
	}
}

// Pattern 1: calendar says one place, location trail says another.
// Substring containment is a deliberate approximation, kept as-is.
func (s *ScanService) locationMismatches(date string, calendar []repository.CalendarEntry, locations []repository.LocationEntry) []repository.Finding {
	var out []repository.Finding
	for _, ev := range calendar {
		if ev.Location == nil || strings.TrimSpace(*ev.Location) == "" {
			continue
		}
		var during []repository.LocationEntry
		for _, l := range locations {
			if !l.Ts.Before(ev.Start) && !l.Ts.After(ev.End) {
				during = append(during, l)
			}
		}
		if len(during) == 0 {
			continue
		}
		matched := false
		for _, l := range during {
			if containsEither(l.Address, *ev.Location) {
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		evidence := []string{ev.ID}
		for _, l := range during {
			evidence = append(evidence, l.ID)
		}
		out = append(out, s.finding(date, FindingLocationMismatch, 0.6,
			fmt.Sprintf("Calendar said %q, you were elsewhere", *ev.Location),
			fmt.Sprintf("During %q your location trail shows %s, which never matches the event location %q.",
				ev.Title, during[0].Address, *ev.Location),
			fmt.Sprintf("Did %q actually happen at %s?", ev.Title, *ev.Location),
			evidence))
	}
	return out
}

// Pattern 2: overlapping calendar entries.
func (s *ScanService) scheduleConflicts(date string, calendar []repository.CalendarEntry) []repository.Finding {
	minOverlap := s.OverlapMinutes
	if minOverlap == 0 {
		minOverlap = defaultOverlapMinutes
	}
	var out []repository.Finding
	for i := 0; i < len(calendar); i++ {
		for j := i + 1; j < len(calendar); j++ {
			a, b := calendar[i], calendar[j]
			overlap := overlapMinutes(a, b)
			if overlap < float64(minOverlap) {
				continue
			}
			severity := stats.Clamp(0.5+overlap/120, 0, 0.9)
			out = append(out, s.finding(date, FindingScheduleConflict, severity,
				fmt.Sprintf("%q overlaps %q by %.0f minutes", a.Title, b.Title, overlap),
				fmt.Sprintf("%q (%s-%s) and %q (%s-%s) overlap.",
					a.Title, a.Start.Format("15:04"), a.End.Format("15:04"),
					b.Title, b.Start.Format("15:04"), b.End.Format("15:04")),
				"Which one did you actually attend?",
				[]string{a.ID, b.ID}))
		}
	}
	return out
}

// Pattern 3: mood at odds with what the day looked like.
func (s *ScanService) moodBehaviorDisconnects(date string, moods []repository.MoodEntry, ledger []repository.Transaction, workouts []repository.HealthEntry, calendar []repository.CalendarEntry) []repository.Finding {
	if len(moods) == 0 {
		return nil
	}
	scores := moodScores(moods)
	avg := stats.Mean(scores)
	moodIDs := make([]string, len(moods))
	for i, m := range moods {
		moodIDs[i] = m.ID
	}

	var out []repository.Finding
	spend := spendTotal(ledger)
	if avg >= 4 && spend > 100 {
		out = append(out, s.finding(date, FindingMoodBehavior, 0.5,
			"Great mood, heavy spending",
			fmt.Sprintf("You rated the day %.1f/5 yet spent $%.2f.", avg, spend),
			"Was the spending part of the good day, or compensation?",
			moodIDs))
	}
	if avg <= 2 && len(workouts) >= 1 {
		out = append(out, s.finding(date, FindingMoodBehavior, 0.4,
			"Low mood, still worked out",
			fmt.Sprintf("You rated the day %.1f/5 but logged %d workout(s).", avg, len(workouts)),
			"Did the workout help, or was it obligation?",
			append(moodIDs, workouts[0].ID)))
	}
	if avg <= 2 && len(calendar) >= 3 {
		out = append(out, s.finding(date, FindingMoodBehavior, 0.4,
			"Low mood on a packed day",
			fmt.Sprintf("You rated the day %.1f/5 across %d scheduled events.", avg, len(calendar)),
			"Was the schedule the problem?",
			moodIDs))
	}
	if len(moods) >= 3 {
		min, max := stats.MinMax(scores)
		if max-min >= 3 {
			out = append(out, s.finding(date, FindingMoodBehavior, 0.6,
				"Sharp mood swing",
				fmt.Sprintf("Your mood moved %.0f points within the day (%.0f to %.0f).", max-min, min, max),
				"What happened between those check-ins?",
				moodIDs))
		}
	}
	return out
}

// Pattern 4: a routine kept on recent same-weekdays, broken today; plus a
// week-over-week workout drop.
func (s *ScanService) patternBreaks(ctx context.Context, day time.Time, todays []repository.Event) ([]repository.Finding, error) {
	date := dateKey(day)
	todayKinds := map[string]bool{}
	for _, e := range todays {
		todayKinds[e.Kind] = true
	}

	priorCounts := map[string]int{}
	for back := 1; back <= 4; back++ {
		d := day.AddDate(0, 0, -7*back)
		events, err := s.Events.InWindow(ctx, d, d.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		kinds := map[string]bool{}
		for _, e := range events {
			kinds[e.Kind] = true
		}
		for k := range kinds {
			priorCounts[k]++
		}
	}

	var out []repository.Finding
	weekday := day.Weekday().String()
	for kind, count := range priorCounts {
		if count >= 3 && !todayKinds[kind] {
			out = append(out, s.finding(date, FindingPatternBreak, 0.5,
				fmt.Sprintf("No %s activity this %s", kind, weekday),
				fmt.Sprintf("%s records appeared on %d of your last 4 %ss, but not today.", kind, count, weekday),
				fmt.Sprintf("What replaced your usual %s routine?", weekday),
				nil))
		}
	}

	recent, err := s.Health.ByType(ctx, "workout", day.AddDate(0, 0, -7), day)
	if err != nil {
		return nil, err
	}
	previous, err := s.Health.ByType(ctx, "workout", day.AddDate(0, 0, -14), day.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	if len(previous) >= 3 && len(recent)*2 <= len(previous) {
		out = append(out, s.finding(date, FindingPatternBreak, 0.5,
			"Workout routine slipping",
			fmt.Sprintf("%d workouts two weeks ago, only %d in the last week.", len(previous), len(recent)),
			"Is the drop deliberate rest or drift?",
			nil))
	}
	return out, nil
}

// Pattern 5: spending more than usual on a low-mood day.
func (s *ScanService) emotionalSpending(ctx context.Context, day time.Time, moods []repository.MoodEntry, ledger []repository.Transaction) ([]repository.Finding, error) {
	minSpend := s.EmotionalSpendMin
	if minSpend == 0 {
		minSpend = defaultEmotionalSpendMin
	}
	if len(moods) == 0 {
		return nil, nil
	}
	avg := stats.Mean(moodScores(moods))
	spend := spendTotal(ledger)
	if avg > 2.5 || spend < minSpend {
		return nil, nil
	}

	// Baseline: average spend across normal-mood days in the preceding 14 days.
	var normalSpends []float64
	for back := 1; back <= 14; back++ {
		d := day.AddDate(0, 0, -back)
		dm, err := s.Mood.InWindow(ctx, d, d.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		if len(dm) == 0 || stats.Mean(moodScores(dm)) < 3 {
			continue
		}
		dl, err := s.Ledger.InWindow(ctx, d, d.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		normalSpends = append(normalSpends, spendTotal(dl))
	}
	baseline := stats.Mean(normalSpends)
	if baseline == 0 || spend <= 1.5*baseline {
		return nil, nil
	}

	ids := make([]string, 0, len(ledger))
	for _, t := range ledger {
		if t.Amount < 0 {
			ids = append(ids, t.ID)
		}
	}
	severity := stats.Clamp(0.4+(spend/baseline-1.5)*0.2, 0.4, 0.9)
	f := s.finding(dateKey(day), FindingSpendingMood, severity,
		"Spending spike on a low-mood day",
		fmt.Sprintf("Mood averaged %.1f/5 and you spent $%.2f, versus $%.2f on recent normal-mood days.", avg, spend, baseline),
		"Was the spending lifting the mood, or tracking it?",
		ids)
	return []repository.Finding{f}, nil
}

// Pattern 6: silent stretches inside an otherwise recorded day.
func (s *ScanService) timeGaps(date string, events []repository.Event) []repository.Finding {
	minGap := s.TimeGapMinHours
	if minGap == 0 {
		minGap = defaultTimeGapMinHours
	}
	if len(events) < 3 {
		return nil
	}
	var out []repository.Finding
	for i := 1; i < len(events); i++ {
		gap := events[i].Ts.Sub(events[i-1].Ts).Hours()
		if gap < minGap {
			continue
		}
		severity := stats.Clamp(0.3+gap*0.1, 0, 0.8)
		out = append(out, s.finding(date, FindingTimeGap, severity,
			fmt.Sprintf("%.1f silent hours", gap),
			fmt.Sprintf("No records of any kind between %s and %s.",
				events[i-1].Ts.Format("15:04"), events[i].Ts.Format("15:04")),
			"Where did that time go?",
			[]string{events[i-1].ID, events[i].ID}))
	}
	return out
}

// Pattern 7: photo mood tone disagrees with the reported mood.
func (s *ScanService) visualMoodMismatches(date string, moods []repository.MoodEntry, media []repository.MediaEntry) []repository.Finding {
	if len(moods) == 0 {
		return nil
	}
	avg := stats.Mean(moodScores(moods))

	type toneInfo struct {
		conf float64
		ids  []string
	}
	tones := map[string]*toneInfo{}
	for _, m := range media {
		if m.MoodTone == nil || m.ToneConfidence <= 0 {
			continue
		}
		tone := strings.ToLower(*m.MoodTone)
		if _, ok := toneRanges[tone]; !ok {
			continue
		}
		ti, ok := tones[tone]
		if !ok {
			ti = &toneInfo{}
			tones[tone] = ti
		}
		if m.ToneConfidence > ti.conf {
			ti.conf = m.ToneConfidence
		}
		ti.ids = append(ti.ids, m.ID)
	}

	var out []repository.Finding
	for tone, ti := range tones {
		r := toneRanges[tone]
		if avg >= r[0]-moodToneTolerance && avg <= r[1]+moodToneTolerance {
			continue
		}
		severity := stats.Clamp(0.3+0.5*ti.conf, 0, 0.8)
		out = append(out, s.finding(date, FindingVisualMoodMismatch, severity,
			fmt.Sprintf("Photos look %s, mood says %.1f/5", tone, avg),
			fmt.Sprintf("%d photo(s) read as %s while your reported mood averaged %.1f.", len(ti.ids), tone, avg),
			"Which one was the real day?",
			ti.ids))
	}
	return out
}

func moodScores(moods []repository.MoodEntry) []float64 {
	out := make([]float64, len(moods))
	for i, m := range moods {
		out[i] = float64(m.Score)
	}
	return out
}

func containsEither(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

func overlapMinutes(a, b repository.CalendarEntry) float64 {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start).Minutes()
}
