package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
	"github.com/alperenugurlu/mirror-history/internal/stats"
)

// Confrontation categories.
const (
	CategoryCorrelation = "correlation"
	CategoryTrend       = "trend"
	CategoryAnomaly     = "anomaly"
)

// ConfrontService generates period-level narrative insights. Each Generate
// call fully replaces the stored confrontation set; callers must not run two
// generations concurrently.
type ConfrontService struct {
	Ledger         *repository.LedgerRepo
	Mood           *repository.MoodRepo
	Calendar       *repository.CalendarRepo
	Health         *repository.HealthRepo
	Locations      *repository.LocationRepo
	Notes          *repository.NoteRepo
	Confrontations *repository.ConfrontationRepo
	Log            *slog.Logger

	Clock func() time.Time
	NewID func() string
}

// windowData is everything the seven analyzers look at.
type windowData struct {
	start, end time.Time
	moods      []repository.MoodEntry
	calendar   []repository.CalendarEntry
	ledger     []repository.Transaction
	workouts   []repository.HealthEntry
	locations  []repository.LocationEntry
	notes      []repository.NoteEntry
}

// Generate runs the seven analyzers over a weekly (7 day) or monthly (30 day)
// window ending at ref, replaces all stored confrontations with the result
// and returns it.
func (s *ConfrontService) Generate(ctx context.Context, period string, ref time.Time) ([]repository.Confrontation, error) {
	days := 7
	switch period {
	case PeriodWeekly:
	case PeriodMonthly:
		days = 30
	default:
		return nil, fmt.Errorf("unknown period %q", period)
	}
	end := dayStart(ref).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	w := windowData{start: start, end: end}
	var err error
	if w.moods, err = s.Mood.InWindow(ctx, start, end); err != nil {
		return nil, err
	}
	if w.calendar, err = s.Calendar.InWindow(ctx, start, end); err != nil {
		return nil, err
	}
	if w.ledger, err = s.Ledger.InWindow(ctx, start, end); err != nil {
		return nil, err
	}
	if w.workouts, err = s.Health.ByType(ctx, "workout", start, end); err != nil {
		return nil, err
	}
	if w.locations, err = s.Locations.InWindow(ctx, start, end); err != nil {
		return nil, err
	}
	if w.notes, err = s.Notes.InWindow(ctx, start, end); err != nil {
		return nil, err
	}

	var out []repository.Confrontation
	out = append(out, s.moodVsMeetingLoad(w)...)
	out = append(out, s.spendingVsMood(w)...)
	out = append(out, s.exerciseDecline(w)...)
	out = append(out, s.moodTrend(w)...)
	out = append(out, s.silentLocations(w)...)
	out = append(out, s.spendingTrend(w)...)
	out = append(out, s.calendarOverload(w)...)

	ts := now(s.Clock)
	for i := range out {
		out[i].GeneratedAt = ts
	}
	if err := s.Confrontations.ReplaceAll(ctx, out); err != nil {
		return nil, fmt.Errorf("replace confrontations: %w", err)
	}
	if s.Log != nil {
		s.Log.Info("confrontations generated", "period", period, "count", len(out))
	}
	return out, nil
}

func (s *ConfrontService) confrontation(category string, severity float64, title, insight string, points []repository.DataPoint, related []string) repository.Confrontation {
	return repository.Confrontation{
		ID:         newID(s.NewID),
		Title:      title,
		Insight:    insight,
		Severity:   stats.Clamp(severity, 0, 1),
		Category:   category,
		DataPoints: points,
		RelatedIDs: related,
	}
}

// dailyMoodAvg returns per-date mood averages for days that have entries.
func dailyMoodAvg(moods []repository.MoodEntry) map[string]float64 {
	byDay := map[string][]float64{}
	for _, m := range moods {
		k := dateKey(m.Ts)
		byDay[k] = append(byDay[k], float64(m.Score))
	}
	out := make(map[string]float64, len(byDay))
	for k, xs := range byDay {
		out[k] = stats.Mean(xs)
	}
	return out
}

func dailyEventCount(calendar []repository.CalendarEntry) map[string]int {
	out := map[string]int{}
	for _, c := range calendar {
		out[dateKey(c.Start)]++
	}
	return out
}

func dailySpend(ledger []repository.Transaction) map[string]float64 {
	out := map[string]float64{}
	for _, t := range ledger {
		if t.Amount < 0 {
			out[dateKey(t.Date)] += -t.Amount
		}
	}
	return out
}

// Analyzer 1: do calm days feel better than meeting-heavy ones?
func (s *ConfrontService) moodVsMeetingLoad(w windowData) []repository.Confrontation {
	moodByDay := dailyMoodAvg(w.moods)
	eventsByDay := dailyEventCount(w.calendar)

	var busy, calm []float64
	for day, mood := range moodByDay {
		switch n := eventsByDay[day]; {
		case n >= 3:
			busy = append(busy, mood)
		case n <= 1:
			calm = append(calm, mood)
		}
	}
	if len(busy) < 2 || len(calm) < 2 {
		return nil
	}
	busyAvg, calmAvg := stats.Mean(busy), stats.Mean(calm)
	diff := calmAvg - busyAvg
	if diff < 0.5 {
		return nil
	}
	return []repository.Confrontation{s.confrontation(CategoryCorrelation,
		0.3+(diff-0.5)*0.3,
		"Meetings drag your mood down",
		fmt.Sprintf("On days with 3+ calendar events your mood averaged %.1f; on days with at most one it averaged %.1f.", busyAvg, calmAvg),
		[]repository.DataPoint{
			{Label: "busy days", Value: fmt.Sprintf("%d", len(busy))},
			{Label: "busy-day mood", Value: fmt.Sprintf("%.1f", busyAvg)},
			{Label: "calm days", Value: fmt.Sprintf("%d", len(calm))},
			{Label: "calm-day mood", Value: fmt.Sprintf("%.1f", calmAvg)},
		}, nil)}
}

// Analyzer 2: do low-mood days cost more?
func (s *ConfrontService) spendingVsMood(w windowData) []repository.Confrontation {
	moodByDay := dailyMoodAvg(w.moods)
	spendByDay := dailySpend(w.ledger)

	var low, high []float64
	for day, mood := range moodByDay {
		switch {
		case mood <= 2.5:
			low = append(low, spendByDay[day])
		case mood >= 3.5:
			high = append(high, spendByDay[day])
		}
	}
	if len(low) < 2 || len(high) < 2 {
		return nil
	}
	lowAvg, highAvg := stats.Mean(low), stats.Mean(high)
	if highAvg == 0 || lowAvg <= 1.3*highAvg {
		return nil
	}
	ratio := lowAvg / highAvg
	return []repository.Confrontation{s.confrontation(CategoryCorrelation,
		0.3+(ratio-1.3)*0.25,
		"You spend more when you feel worse",
		fmt.Sprintf("Low-mood days averaged $%.2f in spending versus $%.2f on good days (%.1fx).", lowAvg, highAvg, ratio),
		[]repository.DataPoint{
			{Label: "low-mood days", Value: fmt.Sprintf("%d", len(low))},
			{Label: "low-mood daily spend", Value: fmt.Sprintf("$%.2f", lowAvg)},
			{Label: "high-mood days", Value: fmt.Sprintf("%d", len(high))},
			{Label: "high-mood daily spend", Value: fmt.Sprintf("$%.2f", highAvg)},
		}, nil)}
}

// Analyzer 3: workouts tailing off inside the window.
func (s *ConfrontService) exerciseDecline(w windowData) []repository.Confrontation {
	mid := w.start.Add(w.end.Sub(w.start) / 2)
	var first, second []repository.HealthEntry
	for _, h := range w.workouts {
		if h.Ts.Before(mid) {
			first = append(first, h)
		} else {
			second = append(second, h)
		}
	}
	if len(first) < 3 || len(second)*2 > len(first) {
		return nil
	}
	related := make([]string, 0, len(w.workouts))
	for _, h := range w.workouts {
		related = append(related, h.ID)
	}
	return []repository.Confrontation{s.confrontation(CategoryTrend, 0.55,
		"Exercise is falling off",
		fmt.Sprintf("%d workouts in the first half of the period, %d in the second.", len(first), len(second)),
		[]repository.DataPoint{
			{Label: "first half", Value: fmt.Sprintf("%d", len(first))},
			{Label: "second half", Value: fmt.Sprintf("%d", len(second))},
		}, related)}
}

// Analyzer 4: mood sliding across the window.
func (s *ConfrontService) moodTrend(w windowData) []repository.Confrontation {
	if len(w.moods) < 6 {
		return nil
	}
	first, second := stats.SplitHalf(moodScores(w.moods))
	firstAvg, secondAvg := stats.Mean(first), stats.Mean(second)
	decline := firstAvg - secondAvg
	if decline < 0.5 {
		return nil
	}
	return []repository.Confrontation{s.confrontation(CategoryTrend,
		0.4+(decline-0.5)*0.3,
		"Your mood has been sliding",
		fmt.Sprintf("Average mood dropped from %.1f to %.1f across the period.", firstAvg, secondAvg),
		[]repository.DataPoint{
			{Label: "earlier average", Value: fmt.Sprintf("%.1f", firstAvg)},
			{Label: "later average", Value: fmt.Sprintf("%.1f", secondAvg)},
			{Label: "entries", Value: fmt.Sprintf("%d", len(w.moods))},
		}, nil)}
}

// Analyzer 5: places visited often but never written about. Word matching is
// naive substring containment, kept as a documented approximation.
func (s *ConfrontService) silentLocations(w windowData) []repository.Confrontation {
	type visit struct {
		address string
		count   int
		ids     []string
	}
	byAddress := map[string]*visit{}
	for _, l := range w.locations {
		key := strings.ToLower(strings.TrimSpace(l.Address))
		if key == "" {
			continue
		}
		v, ok := byAddress[key]
		if !ok {
			v = &visit{address: l.Address}
			byAddress[key] = v
		}
		v.count++
		v.ids = append(v.ids, l.ID)
	}

	var allNotes strings.Builder
	for _, n := range w.notes {
		allNotes.WriteString(strings.ToLower(n.Body))
		allNotes.WriteString("\n")
	}
	noteText := allNotes.String()

	var silent []*visit
	for _, v := range byAddress {
		if v.count < 3 {
			continue
		}
		mentioned := false
		for _, word := range addressWords(v.address) {
			if strings.Contains(noteText, word) {
				mentioned = true
				break
			}
		}
		if !mentioned {
			silent = append(silent, v)
		}
	}
	sort.Slice(silent, func(i, j int) bool {
		if silent[i].count != silent[j].count {
			return silent[i].count > silent[j].count
		}
		return silent[i].address < silent[j].address
	})
	if len(silent) > 2 {
		silent = silent[:2]
	}

	var out []repository.Confrontation
	for _, v := range silent {
		out = append(out, s.confrontation(CategoryAnomaly, 0.5,
			fmt.Sprintf("You keep going to %s and never mention it", v.address),
			fmt.Sprintf("%d visits this period, zero references in any note.", v.count),
			[]repository.DataPoint{
				{Label: "visits", Value: fmt.Sprintf("%d", v.count)},
				{Label: "notes in period", Value: fmt.Sprintf("%d", len(w.notes))},
			}, v.ids))
	}
	return out
}

// Analyzer 6: spending accelerating inside the window.
func (s *ConfrontService) spendingTrend(w windowData) []repository.Confrontation {
	mid := w.start.Add(w.end.Sub(w.start) / 2)
	var firstTotal, secondTotal float64
	secondByCategory := map[string]float64{}
	for _, t := range w.ledger {
		if t.Amount >= 0 {
			continue
		}
		amount := -t.Amount
		if t.Date.Before(mid) {
			firstTotal += amount
			continue
		}
		secondTotal += amount
		cat := "uncategorized"
		if t.Category != nil && *t.Category != "" {
			cat = *t.Category
		}
		secondByCategory[cat] += amount
	}
	if firstTotal == 0 || secondTotal <= 1.3*firstTotal {
		return nil
	}

	topCat, topAmount := "", 0.0
	for cat, amount := range secondByCategory {
		if amount > topAmount || (amount == topAmount && cat < topCat) {
			topCat, topAmount = cat, amount
		}
	}
	ratio := secondTotal / firstTotal
	return []repository.Confrontation{s.confrontation(CategoryTrend,
		0.4+(ratio-1.3)*0.25,
		"Spending is accelerating",
		fmt.Sprintf("Second half of the period cost $%.2f versus $%.2f in the first; %s led the increase at $%.2f.",
			secondTotal, firstTotal, topCat, topAmount),
		[]repository.DataPoint{
			{Label: "first half", Value: fmt.Sprintf("$%.2f", firstTotal)},
			{Label: "second half", Value: fmt.Sprintf("$%.2f", secondTotal)},
			{Label: "top category", Value: topCat},
		}, nil)}
}

// Analyzer 7: too much calendar.
func (s *ConfrontService) calendarOverload(w windowData) []repository.Confrontation {
	if len(w.calendar) == 0 {
		return nil
	}
	days := int(w.end.Sub(w.start).Hours() / 24)
	if days == 0 {
		days = 1
	}
	perDay := float64(len(w.calendar)) / float64(days)

	maxDay, maxCount := "", 0
	for day, n := range dailyEventCount(w.calendar) {
		if n > maxCount || (n == maxCount && day < maxDay) {
			maxDay, maxCount = day, n
		}
	}
	if perDay < 3 && maxCount < 6 {
		return nil
	}

	points := []repository.DataPoint{
		{Label: "events per day", Value: fmt.Sprintf("%.1f", perDay)},
		{Label: "busiest day", Value: fmt.Sprintf("%s (%d events)", maxDay, maxCount)},
	}
	insight := fmt.Sprintf("You averaged %.1f events per day; %s alone had %d.", perDay, maxDay, maxCount)
	if avg := stats.Mean(moodScores(w.moods)); len(w.moods) > 0 && avg < 3.5 {
		points = append(points, repository.DataPoint{Label: "average mood", Value: fmt.Sprintf("%.1f", avg)})
		insight += fmt.Sprintf(" Your mood averaged %.1f over the same stretch.", avg)
	}
	return []repository.Confrontation{s.confrontation(CategoryAnomaly, 0.6,
		"Calendar overload", insight, points, nil)}
}

// addressWords splits an address into comparable component words, dropping
// short tokens and pure numbers.
func addressWords(address string) []string {
	fields := strings.FieldsFunc(strings.ToLower(address), func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '-'
	})
	var out []string
	for _, f := range fields {
		if len(f) < 4 {
			continue
		}
		if strings.IndexFunc(f, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
			continue
		}
		out = append(out, f)
	}
	return out
}
