package repository

import (
	"encoding/json"
	"time"
)

// Transaction represents a ledger row. Rows are immutable after import;
// only MaintenanceService.Erase removes them.
type Transaction struct {
	ID          string
	Date        time.Time
	Merchant    string
	MerchantKey string // case-folded merchant, used for grouping
	Amount      float64 // signed dollars, negative = expense
	Currency    string
	Category    *string
	Account     *string
	SourceHash  string
	CreatedAt   time.Time
}

// MoodEntry represents a mood rating row.
type MoodEntry struct {
	ID    string
	Score int // 1..5
	Note  *string
	Ts    time.Time
}

// CalendarEntry represents a calendar event row.
type CalendarEntry struct {
	ID          string
	Title       string
	Start       time.Time
	End         time.Time
	Location    *string
	Description *string
}

// HealthEntry represents a health metric sample.
type HealthEntry struct {
	ID     string
	Metric string // "workout", "steps", "sleep_hours", ...
	Value  float64
	Unit   string
	Ts     time.Time
}

// LocationEntry represents a visited place.
type LocationEntry struct {
	ID      string
	Lat     float64
	Lon     float64
	Address string
	Ts      time.Time
}

// NoteEntry represents a free-text note. Source distinguishes typed notes
// from transcribed voice memos.
type NoteEntry struct {
	ID     string
	Body   string
	Source string // "text" | "voice"
	Ts     time.Time
}

// MediaEntry represents a photo/video row. MoodTone and ToneConfidence are
// filled by the external vision collaborator on import.
type MediaEntry struct {
	ID             string
	Kind           string // "photo" | "video"
	MoodTone       *string
	ToneConfidence float64
	PeopleCount    int
	Tags           []string
	Ts             time.Time
}

// Finding represents a per-day cross-domain inconsistency.
type Finding struct {
	ID          string
	Date        string // YYYY-MM-DD
	Type        string
	Severity    float64
	Title       string
	Description string
	EvidenceIDs []string
	Question    string
	CreatedAt   time.Time
}

// DataPoint is one labeled value backing a confrontation.
type DataPoint struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Confrontation represents a period-level narrative insight.
type Confrontation struct {
	ID          string
	Title       string
	Insight     string
	Severity    float64
	Category    string // "correlation" | "trend" | "anomaly"
	DataPoints  []DataPoint
	RelatedIDs  []string
	GeneratedAt time.Time
}

// DerivedEvent is a backing record for a generated diff card; evidence rows
// hang off it.
type DerivedEvent struct {
	ID      string
	Kind    string // "finding:<card type>"
	Ts      time.Time
	Title   string
	Payload json.RawMessage
}

// Event is a generic timeline record assembled from the domain tables.
type Event struct {
	ID   string
	Kind string // "ledger" | "mood" | "calendar" | "health" | "location" | "note" | "media"
	Ts   time.Time
}

// Evidence links a generated finding/card back to a source record.
type Evidence struct {
	ID         string
	OwnerID    string
	RecordKind string
	RecordID   string
	Excerpt    string
	Hash       string
	CreatedAt  time.Time
}

// Diff represents a persisted financial diff report.
type Diff struct {
	ID            string
	PeriodType    string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	Summary       string
	TotalSpend    float64
	BaselineSpend float64
	ChangePct     float64
	Cards         json.RawMessage
	CreatedAt     time.Time
}

// Rule represents a suppression rule. Payload shape depends on Type.
type Rule struct {
	ID        string
	Type      string // ignore_merchant | ignore_category | threshold | whitelist_subscription
	Payload   json.RawMessage
	Enabled   bool
	CreatedAt time.Time
}
