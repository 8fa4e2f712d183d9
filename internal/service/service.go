// Package service wires the detectors, the scanner, the confrontation
// generator and the comparison engine to the record store.
package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alperenugurlu/mirror-history/internal/database"
)

// now resolves an injected clock, falling back to store time.
func now(clock func() time.Time) time.Time {
	if clock != nil {
		return clock()
	}
	return database.Now()
}

// newID resolves an injected ID generator, falling back to UUIDs.
func newID(fn func() string) string {
	if fn != nil {
		return fn()
	}
	return uuid.NewString()
}

// dayStart truncates t to midnight in its location.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dateKey formats a calendar date the way findings are keyed.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// normalizeAddress folds an address for grouping.
func normalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
