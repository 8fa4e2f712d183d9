package service

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
)

// aliasMaxDistance is the normalized levenshtein distance below which two
// merchant labels are considered the same merchant.
const aliasMaxDistance = 0.4

// AliasGroup is a cluster of merchant labels that likely name one merchant.
type AliasGroup struct {
	Labels       []string
	Transactions int
}

// MerchantService suggests merchant-label cleanups. Importers write raw
// statement descriptions, so the same merchant often appears under several
// near-identical labels; this surfaces the clusters for review.
type MerchantService struct {
	Ledger *repository.LedgerRepo
}

// SuggestAliases clusters distinct merchant labels by edit distance and
// returns groups with at least two labels, largest first.
func (s *MerchantService) SuggestAliases(ctx context.Context) ([]AliasGroup, error) {
	records, err := s.Ledger.All(ctx)
	if err != nil {
		return nil, err
	}

	type labelInfo struct {
		display string
		count   int
	}
	labels := map[string]*labelInfo{}
	var keys []string
	for _, t := range records {
		key := t.MerchantKey
		if key == "" {
			key = strings.ToLower(strings.TrimSpace(t.Merchant))
		}
		if key == "" {
			continue
		}
		li, ok := labels[key]
		if !ok {
			li = &labelInfo{display: t.Merchant}
			labels[key] = li
			keys = append(keys, key)
		}
		li.count++
	}
	sort.Strings(keys)

	// Union-find over near-identical labels.
	parent := map[string]string{}
	var find func(string) string
	find = func(k string) string {
		if parent[k] == k {
			return k
		}
		parent[k] = find(parent[k])
		return parent[k]
	}
	for _, k := range keys {
		parent[k] = k
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if !similarLabels(keys[i], keys[j]) {
				continue
			}
			ri, rj := find(keys[i]), find(keys[j])
			if ri != rj {
				parent[rj] = ri
			}
		}
	}

	groups := map[string]*AliasGroup{}
	for _, k := range keys {
		root := find(k)
		g, ok := groups[root]
		if !ok {
			g = &AliasGroup{}
			groups[root] = g
		}
		g.Labels = append(g.Labels, labels[k].display)
		g.Transactions += labels[k].count
	}

	var out []AliasGroup
	for _, g := range groups {
		if len(g.Labels) < 2 {
			continue
		}
		sort.Strings(g.Labels)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Transactions != out[j].Transactions {
			return out[i].Transactions > out[j].Transactions
		}
		return out[i].Labels[0] < out[j].Labels[0]
	})
	return out, nil
}

func similarLabels(a, b string) bool {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return false
	}
	dist := levenshtein.ComputeDistance(a, b)
	return float64(dist)/float64(maxLen) < aliasMaxDistance
}
