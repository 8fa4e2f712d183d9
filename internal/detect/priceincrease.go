package detect

import (
	"sort"
	"time"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
)

// Price-increase emission floors.
const (
	minIncreasePct    = 5.0
	minIncreaseAmount = 0.50
)

// PriceIncreaseCandidate describes average-price drift for one merchant
// between the baseline period and the current one.
type PriceIncreaseCandidate struct {
	Merchant       string
	MerchantKey    string
	BaselineAvg    float64
	CurrentAvg     float64
	IncreaseAmount float64
	IncreasePct    float64
	BaselineCount  int
	CurrentCount   int
	LatestDate     time.Time
	Confidence     float64
	RecordIDs      []string
}

type merchantAgg struct {
	merchant string
	sum      float64
	count    int
	latest   time.Time
	ids      []string
}

func aggregate(records []repository.Transaction) map[string]*merchantAgg {
	out := make(map[string]*merchantAgg)
	for _, t := range records {
		k := merchantKey(t)
		if k == "" {
			continue
		}
		a, ok := out[k]
		if !ok {
			a = &merchantAgg{}
			out[k] = a
		}
		a.merchant = t.Merchant
		a.sum += abs(t.Amount)
		a.count++
		if t.Date.After(a.latest) {
			a.latest = t.Date
		}
		a.ids = append(a.ids, t.ID)
	}
	return out
}

// DetectPriceIncreases flags merchants whose average charge rose at least 5%
// and at least 50 cents versus the baseline period. Output is sorted by the
// absolute increase, largest first.
func DetectPriceIncreases(current, baseline []repository.Transaction) []PriceIncreaseCandidate {
	cur := aggregate(current)
	base := aggregate(baseline)

	var out []PriceIncreaseCandidate
	for key, c := range cur {
		b, ok := base[key]
		if !ok {
			continue
		}
		currentAvg := c.sum / float64(c.count)
		baselineAvg := b.sum / float64(b.count)
		if baselineAvg == 0 || currentAvg <= baselineAvg {
			continue
		}
		increase := currentAvg - baselineAvg
		pct := increase / baselineAvg * 100
		if pct < minIncreasePct || increase < minIncreaseAmount {
			continue
		}

		confidence := 0.5
		switch {
		case pct > 20:
			confidence += 0.2
		case pct > 10:
			confidence += 0.1
		}
		if b.count >= 2 && c.count >= 1 {
			confidence += 0.2
		}
		if increase > 5 {
			confidence += 0.1
		}
		if confidence > 1 {
			confidence = 1
		}

		out = append(out, PriceIncreaseCandidate{
			Merchant:       c.merchant,
			MerchantKey:    key,
			BaselineAvg:    baselineAvg,
			CurrentAvg:     currentAvg,
			IncreaseAmount: increase,
			IncreasePct:    pct,
			BaselineCount:  b.count,
			CurrentCount:   c.count,
			LatestDate:     c.latest,
			Confidence:     confidence,
			RecordIDs:      c.ids,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IncreaseAmount != out[j].IncreaseAmount {
			return out[i].IncreaseAmount > out[j].IncreaseAmount
		}
		return out[i].MerchantKey < out[j].MerchantKey
	})
	return out
}
