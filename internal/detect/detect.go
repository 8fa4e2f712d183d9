// Package detect implements the four financial pattern detectors. All
// detectors are pure functions over in-memory ledger slices: they never touch
// the store, never error, and return empty results for empty input.
package detect

import (
	"sort"
	"strings"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
)

func merchantKey(t repository.Transaction) string {
	if t.MerchantKey != "" {
		return t.MerchantKey
	}
	return strings.ToLower(strings.TrimSpace(t.Merchant))
}

// groupByMerchant buckets records by case-folded merchant, preserving input
// order within each bucket.
func groupByMerchant(records []repository.Transaction) map[string][]repository.Transaction {
	groups := make(map[string][]repository.Transaction)
	for _, t := range records {
		k := merchantKey(t)
		if k == "" {
			continue
		}
		groups[k] = append(groups[k], t)
	}
	return groups
}

func absAmounts(records []repository.Transaction) []float64 {
	out := make([]float64, len(records))
	for i, t := range records {
		out[i] = abs(t.Amount)
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func sortedByDate(records []repository.Transaction) []repository.Transaction {
	out := make([]repository.Transaction, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func recordIDs(records []repository.Transaction) []string {
	ids := make([]string, len(records))
	for i, t := range records {
		ids[i] = t.ID
	}
	return ids
}
