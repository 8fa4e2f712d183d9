package detect

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
	"github.com/alperenugurlu/mirror-history/internal/stats"
)

// Anomaly levels.
const (
	LevelMerchant = "merchant"
	LevelCategory = "category"
)

// Anomaly thresholds: merchant baselines need 3 samples and z > 2; the
// category fallback needs 5 samples and z > 2.5.
const (
	merchantMinSamples = 3
	merchantZThreshold = 2.0
	categoryMinSamples = 5
	categoryZThreshold = 2.5
)

// AnomalyCandidate describes one current-period record whose amount deviates
// sharply from its merchant or category baseline.
type AnomalyCandidate struct {
	RecordID     string
	Merchant     string
	MerchantKey  string
	Category     string
	Date         time.Time
	Amount       float64 // absolute dollars
	ZScore       float64
	BaselineMean float64
	BaselineStd  float64
	Level        string
	Confidence   float64
	Reason       string
}

type baseline struct {
	mean float64
	std  float64
	n    int
}

func buildBaselines(history []repository.Transaction) (byMerchant, byCategory map[string]baseline) {
	merchantAmounts := make(map[string][]float64)
	categoryAmounts := make(map[string][]float64)
	for _, t := range history {
		if k := merchantKey(t); k != "" {
			merchantAmounts[k] = append(merchantAmounts[k], abs(t.Amount))
		}
		if t.Category != nil && *t.Category != "" {
			c := strings.ToLower(*t.Category)
			categoryAmounts[c] = append(categoryAmounts[c], abs(t.Amount))
		}
	}
	byMerchant = make(map[string]baseline, len(merchantAmounts))
	for k, xs := range merchantAmounts {
		byMerchant[k] = baseline{mean: stats.Mean(xs), std: stats.StdDev(xs), n: len(xs)}
	}
	byCategory = make(map[string]baseline, len(categoryAmounts))
	for k, xs := range categoryAmounts {
		byCategory[k] = baseline{mean: stats.Mean(xs), std: stats.StdDev(xs), n: len(xs)}
	}
	return byMerchant, byCategory
}

// DetectAnomalies flags current-period records whose absolute amount is a
// statistical outlier against history (which includes the current period).
// Merchant-level flags take priority; a record is flagged at most once.
// Output is sorted by z-score, largest first.
func DetectAnomalies(current, history []repository.Transaction) []AnomalyCandidate {
	byMerchant, byCategory := buildBaselines(history)

	var out []AnomalyCandidate
	for _, t := range current {
		amount := abs(t.Amount)

		if b, ok := byMerchant[merchantKey(t)]; ok && b.n >= merchantMinSamples && b.std > 0 {
			z := stats.ZScore(amount, b.mean, b.std)
			if z > merchantZThreshold {
				conf := 0.5 + (z-merchantZThreshold)*0.15
				if conf > 0.95 {
					conf = 0.95
				}
				out = append(out, AnomalyCandidate{
					RecordID:     t.ID,
					Merchant:     t.Merchant,
					MerchantKey:  merchantKey(t),
					Date:         t.Date,
					Amount:       amount,
					ZScore:       z,
					BaselineMean: b.mean,
					BaselineStd:  b.std,
					Level:        LevelMerchant,
					Confidence:   conf,
					Reason: fmt.Sprintf("$%.2f at %s is %.1f standard deviations above your typical $%.2f there",
						amount, t.Merchant, z, b.mean),
				})
				continue
			}
		}

		if t.Category == nil || *t.Category == "" {
			continue
		}
		cat := strings.ToLower(*t.Category)
		b, ok := byCategory[cat]
		if !ok || b.n < categoryMinSamples || b.std == 0 {
			continue
		}
		z := stats.ZScore(amount, b.mean, b.std)
		if z <= categoryZThreshold {
			continue
		}
		conf := 0.4 + (z-categoryZThreshold)*0.15
		if conf > 0.90 {
			conf = 0.90
		}
		out = append(out, AnomalyCandidate{
			RecordID:     t.ID,
			Merchant:     t.Merchant,
			MerchantKey:  merchantKey(t),
			Category:     *t.Category,
			Date:         t.Date,
			Amount:       amount,
			ZScore:       z,
			BaselineMean: b.mean,
			BaselineStd:  b.std,
			Level:        LevelCategory,
			Confidence:   conf,
			Reason: fmt.Sprintf("$%.2f at %s is %.1f standard deviations above your usual %s spending of $%.2f",
				amount, t.Merchant, z, *t.Category, b.mean),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ZScore != out[j].ZScore {
			return out[i].ZScore > out[j].ZScore
		}
		return out[i].RecordID < out[j].RecordID
	})
	return out
}
