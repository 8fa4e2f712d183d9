// Package rules evaluates user-defined suppression rules against generated
// cards and findings. Rules never mutate what they match; they only remove it
// from the output.
package rules

import (
	"encoding/json"
	"strings"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
)

// Rule types.
const (
	TypeIgnoreMerchant        = "ignore_merchant"
	TypeIgnoreCategory        = "ignore_category"
	TypeThreshold             = "threshold"
	TypeWhitelistSubscription = "whitelist_subscription"
)

// Subject is the rule-visible projection of a card or finding.
type Subject struct {
	Merchant     string
	Category     string
	Impact       float64 // signed dollars; threshold rules compare its magnitude
	Subscription bool
}

type merchantPayload struct {
	Merchant string `json:"merchant"`
}

type categoryPayload struct {
	Category string `json:"category"`
}

type thresholdPayload struct {
	MinAmount float64 `json:"minAmount"`
}

// Suppressed reports whether any enabled rule matches the subject.
// Evaluation short-circuits on the first match; there is no rule priority.
func Suppressed(s Subject, rs []repository.Rule) bool {
	for _, r := range rs {
		if !r.Enabled {
			continue
		}
		if matches(s, r) {
			return true
		}
	}
	return false
}

// Filter returns the items whose subject no enabled rule matches, preserving
// order.
func Filter[T any](items []T, rs []repository.Rule, subject func(T) Subject) []T {
	if len(rs) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if Suppressed(subject(it), rs) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func matches(s Subject, r repository.Rule) bool {
	switch r.Type {
	case TypeIgnoreMerchant:
		var p merchantPayload
		if json.Unmarshal(r.Payload, &p) != nil || p.Merchant == "" {
			return false
		}
		return strings.EqualFold(s.Merchant, p.Merchant)
	case TypeIgnoreCategory:
		var p categoryPayload
		if json.Unmarshal(r.Payload, &p) != nil || p.Category == "" {
			return false
		}
		return strings.EqualFold(s.Category, p.Category)
	case TypeThreshold:
		var p thresholdPayload
		if json.Unmarshal(r.Payload, &p) != nil {
			return false
		}
		impact := s.Impact
		if impact < 0 {
			impact = -impact
		}
		return impact < p.MinAmount
	case TypeWhitelistSubscription:
		if !s.Subscription {
			return false
		}
		var p merchantPayload
		if json.Unmarshal(r.Payload, &p) != nil || p.Merchant == "" {
			return false
		}
		return strings.EqualFold(s.Merchant, p.Merchant)
	default:
		return false
	}
}
