package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
	"github.com/alperenugurlu/mirror-history/internal/stats"
)

// Change directions.
const (
	DirectionUp     = "up"
	DirectionDown   = "down"
	DirectionStable = "stable"
)

// stableBandPct is the |delta%| below which a change counts as stable.
const stableBandPct = 5.0

// metricOrder fixes the change-list ordering.
var metricOrder = []string{
	"Average Mood",
	"Lowest Mood",
	"Highest Mood",
	"Mood Entries",
	"Total Spending",
	"Daily Average Spending",
	"Average Steps",
	"Average Sleep Hours",
	"Workouts",
	"Calendar Events",
	"Events per Day",
	"Notes",
	"Voice Memos",
	"Unique Places",
	"Photos",
	"Videos",
	"Average People per Photo",
	"Unique Tags",
}

// MerchantTotal is one top-merchant row in a period summary.
type MerchantTotal struct {
	Merchant string
	Total    float64
}

// PeriodSummary is the metric set computed for one period.
type PeriodSummary struct {
	Start, End      time.Time
	Metrics         map[string]float64
	TopMerchants    []MerchantTotal
	DominantMoodTag string
	MoodTagDist     map[string]int
}

// Change describes how one metric moved between the two periods.
type Change struct {
	Metric    string
	A, B      float64
	DeltaPct  float64
	Direction string
}

// Comparison is the full two-period result.
type Comparison struct {
	A, B    PeriodSummary
	Changes []Change
}

// CompareService computes per-domain metrics for two explicit date ranges
// and the list of named changes between them.
type CompareService struct {
	Ledger    *repository.LedgerRepo
	Mood      *repository.MoodRepo
	Calendar  *repository.CalendarRepo
	Health    *repository.HealthRepo
	Locations *repository.LocationRepo
	Notes     *repository.NoteRepo
	Media     *repository.MediaRepo
	Log       *slog.Logger
}

// Compare summarizes both periods and emits a change record per metric that
// is nonzero in at least one of them.
func (s *CompareService) Compare(ctx context.Context, aFrom, aTo, bFrom, bTo time.Time) (*Comparison, error) {
	a, err := s.summarize(ctx, aFrom, aTo)
	if err != nil {
		return nil, err
	}
	b, err := s.summarize(ctx, bFrom, bTo)
	if err != nil {
		return nil, err
	}

	var changes []Change
	for _, name := range metricOrder {
		av, bv := a.Metrics[name], b.Metrics[name]
		if av == 0 && bv == 0 {
			continue
		}
		pct := stats.PctChange(av, bv)
		direction := DirectionStable
		if pct >= stableBandPct {
			direction = DirectionUp
		} else if pct <= -stableBandPct {
			direction = DirectionDown
		}
		changes = append(changes, Change{Metric: name, A: av, B: bv, DeltaPct: pct, Direction: direction})
	}

	if s.Log != nil {
		s.Log.Debug("periods compared", "changes", len(changes))
	}
	return &Comparison{A: a, B: b, Changes: changes}, nil
}

func (s *CompareService) summarize(ctx context.Context, from, to time.Time) (PeriodSummary, error) {
	sum := PeriodSummary{Start: from, End: to, Metrics: map[string]float64{}, MoodTagDist: map[string]int{}}

	moods, err := s.Mood.InWindow(ctx, from, to)
	if err != nil {
		return sum, err
	}
	if len(moods) > 0 {
		scores := moodScores(moods)
		min, max := stats.MinMax(scores)
		sum.Metrics["Average Mood"] = stats.Mean(scores)
		sum.Metrics["Lowest Mood"] = min
		sum.Metrics["Highest Mood"] = max
		sum.Metrics["Mood Entries"] = float64(len(moods))
	}

	ledger, err := s.Ledger.InWindow(ctx, from, to)
	if err != nil {
		return sum, err
	}
	days := to.Sub(from).Hours() / 24
	if days < 1 {
		days = 1
	}
	total := spendTotal(ledger)
	sum.Metrics["Total Spending"] = stats.Round2(total)
	sum.Metrics["Daily Average Spending"] = stats.Round2(total / days)
	sum.TopMerchants = topMerchants(ledger, 3)

	health, err := s.Health.InWindow(ctx, from, to)
	if err != nil {
		return sum, err
	}
	var steps, sleep []float64
	workouts := 0
	for _, h := range health {
		switch h.Metric {
		case "steps":
			steps = append(steps, h.Value)
		case "sleep_hours":
			sleep = append(sleep, h.Value)
		case "workout":
			workouts++
		}
	}
	sum.Metrics["Average Steps"] = stats.Round2(stats.Mean(steps))
	sum.Metrics["Average Sleep Hours"] = stats.Round2(stats.Mean(sleep))
	sum.Metrics["Workouts"] = float64(workouts)

	calendar, err := s.Calendar.InWindow(ctx, from, to)
	if err != nil {
		return sum, err
	}
	sum.Metrics["Calendar Events"] = float64(len(calendar))
	sum.Metrics["Events per Day"] = stats.Round2(float64(len(calendar)) / days)

	notes, err := s.Notes.InWindow(ctx, from, to)
	if err != nil {
		return sum, err
	}
	voice := 0
	for _, n := range notes {
		if n.Source == "voice" {
			voice++
		}
	}
	sum.Metrics["Notes"] = float64(len(notes))
	sum.Metrics["Voice Memos"] = float64(voice)

	locations, err := s.Locations.InWindow(ctx, from, to)
	if err != nil {
		return sum, err
	}
	places := map[string]bool{}
	for _, l := range locations {
		places[normalizeAddress(l.Address)] = true
	}
	sum.Metrics["Unique Places"] = float64(len(places))

	media, err := s.Media.InWindow(ctx, from, to)
	if err != nil {
		return sum, err
	}
	photos, videos, people := 0, 0, 0
	tags := map[string]bool{}
	for _, m := range media {
		switch m.Kind {
		case "video":
			videos++
		default:
			photos++
			people += m.PeopleCount
		}
		for _, t := range m.Tags {
			tags[t] = true
		}
		if m.MoodTone != nil && *m.MoodTone != "" {
			sum.MoodTagDist[*m.MoodTone]++
		}
	}
	sum.Metrics["Photos"] = float64(photos)
	sum.Metrics["Videos"] = float64(videos)
	if photos > 0 {
		sum.Metrics["Average People per Photo"] = stats.Round2(float64(people) / float64(photos))
	}
	sum.Metrics["Unique Tags"] = float64(len(tags))
	sum.DominantMoodTag = dominantTag(sum.MoodTagDist)

	return sum, nil
}

func topMerchants(ledger []repository.Transaction, n int) []MerchantTotal {
	totals := map[string]*MerchantTotal{}
	for _, t := range ledger {
		if t.Amount >= 0 {
			continue
		}
		key := t.MerchantKey
		if key == "" {
			key = t.Merchant
		}
		mt, ok := totals[key]
		if !ok {
			mt = &MerchantTotal{Merchant: t.Merchant}
			totals[key] = mt
		}
		mt.Total += -t.Amount
	}
	out := make([]MerchantTotal, 0, len(totals))
	for _, mt := range totals {
		mt.Total = stats.Round2(mt.Total)
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Merchant < out[j].Merchant
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func dominantTag(dist map[string]int) string {
	best, bestCount := "", 0
	for tag, count := range dist {
		if count > bestCount || (count == bestCount && tag < best) {
			best, bestCount = tag, count
		}
	}
	return best
}
