package detect

import (
	"sort"
	"time"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
	"github.com/alperenugurlu/mirror-history/internal/stats"
)

// Subscription cadence labels.
const (
	CadenceMonthly = "monthly"
	CadenceAnnual  = "annual"
	CadenceUnknown = "unknown"
)

// MinSubscriptionConfidence is the emission cutoff for subscription candidates.
const MinSubscriptionConfidence = 0.40

// SubscriptionCandidate describes a recurring charge and the statistics that
// justified it.
type SubscriptionCandidate struct {
	Merchant          string
	MerchantKey       string
	Occurrences       int
	TypicalAmount     float64
	AmountConsistency float64
	Cadence           string
	MeanIntervalDays  float64
	IntervalStdDev    float64
	Confidence        float64
	FirstSeen         time.Time
	LastSeen          time.Time
	Dates             []time.Time
	RecordIDs         []string
}

// DetectSubscriptions finds recurring charges across the whole ledger.
// Merchants with fewer than two records are skipped; candidates below the
// confidence cutoff are dropped; output is sorted by confidence, highest
// first.
func DetectSubscriptions(records []repository.Transaction) []SubscriptionCandidate {
	var out []SubscriptionCandidate
	for key, group := range groupByMerchant(records) {
		if len(group) < 2 {
			continue
		}
		group = sortedByDate(group)

		amounts := absAmounts(group)
		amountMean := stats.Mean(amounts)
		amountStd := stats.StdDev(amounts)

		consistency := 0.0
		if amountMean != 0 {
			ratio := amountStd / amountMean
			if ratio > 1 {
				ratio = 1
			}
			consistency = 1 - ratio
		}

		intervals := make([]float64, 0, len(group)-1)
		for i := 1; i < len(group); i++ {
			intervals = append(intervals, group[i].Date.Sub(group[i-1].Date).Hours()/24)
		}
		intervalMean := stats.Mean(intervals)
		intervalStd := stats.StdDev(intervals)

		cadence := CadenceUnknown
		switch {
		case intervalMean >= 25 && intervalMean <= 35:
			cadence = CadenceMonthly
		case intervalMean >= 350 && intervalMean <= 380:
			cadence = CadenceAnnual
		}

		confidence := 0.0
		switch {
		case consistency > 0.85:
			confidence += 0.30
		case consistency > 0.70:
			confidence += 0.15
		}
		if cadence != CadenceUnknown {
			confidence += 0.30
		}
		switch {
		case intervalStd < 5:
			confidence += 0.20
		case intervalStd < 10:
			confidence += 0.10
		}
		switch {
		case len(group) >= 3:
			confidence += 0.20
		case len(group) >= 2:
			confidence += 0.10
		}
		if confidence < MinSubscriptionConfidence {
			continue
		}

		dates := make([]time.Time, len(group))
		for i, t := range group {
			dates[i] = t.Date
		}
		out = append(out, SubscriptionCandidate{
			Merchant:          group[len(group)-1].Merchant,
			MerchantKey:       key,
			Occurrences:       len(group),
			TypicalAmount:     stats.Round2(amountMean),
			AmountConsistency: consistency,
			Cadence:           cadence,
			MeanIntervalDays:  intervalMean,
			IntervalStdDev:    intervalStd,
			Confidence:        confidence,
			FirstSeen:         group[0].Date,
			LastSeen:          group[len(group)-1].Date,
			Dates:             dates,
			RecordIDs:         recordIDs(group),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].MerchantKey < out[j].MerchantKey
	})
	return out
}
