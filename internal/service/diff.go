package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
	"github.com/alperenugurlu/mirror-history/internal/detect"
	"github.com/alperenugurlu/mirror-history/internal/rules"
	"github.com/alperenugurlu/mirror-history/internal/stats"
)

// Period types accepted by the diff assembler.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// Card types.
const (
	CardSubscription    = "subscription"
	CardPriceIncrease   = "price_increase"
	CardRefundPending   = "refund_pending"
	CardAnomaly         = "anomaly"
	CardSpendingSummary = "spending_summary"
)

const activeSubscriptionMinConf = 0.6

// Card is one reviewable unit of a diff report. Impact is signed dollars:
// negative costs money, positive is money potentially coming back.
type Card struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Impact      float64        `json:"impact"`
	Confidence  float64        `json:"confidence"`
	Merchant    string         `json:"merchant,omitempty"`
	Category    string         `json:"category,omitempty"`
	Summary     string         `json:"summary"`
	Detail      map[string]any `json:"detail,omitempty"`
	EvidenceIDs []string       `json:"evidenceIds,omitempty"`
	Actions     []string       `json:"actions,omitempty"`
}

// DiffReport is what Generate persists and returns.
type DiffReport struct {
	Diff  repository.Diff
	Cards []Card
}

// DiffService assembles financial diff reports for a period against its
// immediately preceding baseline.
type DiffService struct {
	Ledger   *repository.LedgerRepo
	Events   *repository.EventRepo
	Evidence *repository.EvidenceRepo
	Diffs    *repository.DiffRepo
	Rules    *repository.RuleRepo
	Activity *repository.ActivityRepo
	Log      *slog.Logger

	Clock func() time.Time
	NewID func() string

	RefundThresholdDays int
	RefundMinAmount     float64
}

// PeriodBounds returns [start,end) for the period containing ref plus the
// immediately preceding period of equal length.
func PeriodBounds(periodType string, ref time.Time) (start, end, baseStart, baseEnd time.Time, err error) {
	day := dayStart(ref)
	switch periodType {
	case PeriodDaily:
		start, end = day, day.AddDate(0, 0, 1)
		baseStart, baseEnd = day.AddDate(0, 0, -1), day
	case PeriodWeekly:
		end = day.AddDate(0, 0, 1)
		start = end.AddDate(0, 0, -7)
		baseEnd = start
		baseStart = baseEnd.AddDate(0, 0, -7)
	case PeriodMonthly:
		start = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		end = start.AddDate(0, 1, 0)
		baseStart = start.AddDate(0, -1, 0)
		baseEnd = start
	default:
		err = fmt.Errorf("unknown period type %q", periodType)
	}
	return start, end, baseStart, baseEnd, err
}

// Generate runs the four financial detectors over the period, assembles the
// card list, backs every card with a derived event plus evidence rows, runs
// the suppression rules, persists the diff and logs an activity entry.
func (s *DiffService) Generate(ctx context.Context, periodType string, ref time.Time) (*DiffReport, error) {
	start, end, baseStart, baseEnd, err := PeriodBounds(periodType, ref)
	if err != nil {
		return nil, err
	}

	current, err := s.Ledger.InWindow(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load current period: %w", err)
	}
	baseline, err := s.Ledger.InWindow(ctx, baseStart, baseEnd)
	if err != nil {
		return nil, fmt.Errorf("load baseline period: %w", err)
	}
	all, err := s.Ledger.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	refundDays := s.RefundThresholdDays
	if refundDays == 0 {
		refundDays = detect.DefaultRefundThresholdDays
	}
	refundMin := s.RefundMinAmount
	if refundMin == 0 {
		refundMin = detect.DefaultRefundMinAmount
	}

	subs := detect.DetectSubscriptions(all)
	increases := detect.DetectPriceIncreases(current, baseline)
	refunds := detect.DetectPendingRefunds(all, refundDays, refundMin, now(s.Clock))
	anomalies := detect.DetectAnomalies(current, all)

	totalSpend := spendTotal(current)
	baselineSpend := spendTotal(baseline)
	changePct := stats.PctChange(baselineSpend, totalSpend)

	// sources[i] holds the ledger record IDs behind cards[i], so cards that
	// share a merchant still trace back to their own records.
	var cards []Card
	var sources [][]string
	if len(current) > 0 {
		sources = append(sources, nil)
		cards = append(cards, Card{
			ID:         newID(s.NewID),
			Type:       CardSpendingSummary,
			Impact:     -stats.Round2(totalSpend),
			Confidence: 1,
			Summary: fmt.Sprintf("Spent $%.2f across %d transactions (%+.1f%% vs previous %s period)",
				totalSpend, len(current), changePct, periodType),
			Detail: map[string]any{
				"totalSpend":    stats.Round2(totalSpend),
				"baselineSpend": stats.Round2(baselineSpend),
				"changePct":     changePct,
				"count":         len(current),
			},
		})
	}

	newCarded := map[string]bool{}
	for _, c := range subs {
		if !activeWithin(c.Dates, start, end) {
			continue
		}
		if activeWithin(c.Dates, baseStart, baseEnd) || c.Occurrences > 3 {
			continue
		}
		newCarded[c.MerchantKey] = true
		sources = append(sources, c.RecordIDs)
		cards = append(cards, s.subscriptionCard(c, true))
	}
	if periodType == PeriodMonthly {
		for _, c := range subs {
			if c.Confidence < activeSubscriptionMinConf || newCarded[c.MerchantKey] {
				continue
			}
			if !activeWithin(c.Dates, start, end) {
				continue
			}
			sources = append(sources, c.RecordIDs)
			cards = append(cards, s.subscriptionCard(c, false))
		}
	}
	for _, c := range increases {
		sources = append(sources, c.RecordIDs)
		cards = append(cards, Card{
			ID:         newID(s.NewID),
			Type:       CardPriceIncrease,
			Impact:     -stats.Round2(c.IncreaseAmount),
			Confidence: c.Confidence,
			Merchant:   c.Merchant,
			Summary: fmt.Sprintf("%s now averages $%.2f, up %.1f%% from $%.2f",
				c.Merchant, c.CurrentAvg, c.IncreasePct, c.BaselineAvg),
			Detail: map[string]any{
				"baselineAvg":   stats.Round2(c.BaselineAvg),
				"currentAvg":    stats.Round2(c.CurrentAvg),
				"increasePct":   c.IncreasePct,
				"baselineCount": c.BaselineCount,
				"currentCount":  c.CurrentCount,
			},
			Actions:     []string{"Check for a plan change or expired promo", "Consider cancelling if the price no longer fits"},
			EvidenceIDs: nil,
		})
	}
	for _, c := range refunds {
		if c.PurchaseDate.After(end) {
			continue
		}
		sources = append(sources, []string{c.PurchaseID})
		cards = append(cards, Card{
			ID:         newID(s.NewID),
			Type:       CardRefundPending,
			Impact:     stats.Round2(c.Amount),
			Confidence: c.Confidence,
			Merchant:   c.Merchant,
			Summary: fmt.Sprintf("$%.2f at %s from %s has no matching refund after %d days",
				c.Amount, c.Merchant, c.PurchaseDate.Format("Jan 2"), c.DaysSincePurchase),
			Detail: map[string]any{
				"purchaseDate":      c.PurchaseDate.Format("2006-01-02"),
				"daysSincePurchase": c.DaysSincePurchase,
			},
			Actions: []string{"Chase the merchant if a return was promised"},
		})
	}
	for _, c := range anomalies {
		card := Card{
			ID:         newID(s.NewID),
			Type:       CardAnomaly,
			Impact:     -stats.Round2(c.Amount),
			Confidence: c.Confidence,
			Merchant:   c.Merchant,
			Category:   c.Category,
			Summary:    c.Reason,
			Detail: map[string]any{
				"zScore":       c.ZScore,
				"baselineMean": stats.Round2(c.BaselineMean),
				"level":        c.Level,
				"date":         c.Date.Format("2006-01-02"),
			},
			Actions: []string{"Verify this charge is legitimate"},
		}
		sources = append(sources, []string{c.RecordID})
		cards = append(cards, card)
	}

	// Every card gets a backing record and an audit trail before filtering,
	// so suppressed patterns remain explainable later.
	if err := s.backCards(ctx, cards, sources, all); err != nil {
		return nil, err
	}

	active, err := s.Rules.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	cards = rules.Filter(cards, active, func(c Card) rules.Subject {
		return rules.Subject{
			Merchant:     c.Merchant,
			Category:     c.Category,
			Impact:       c.Impact,
			Subscription: c.Type == CardSubscription,
		}
	})

	findings := len(cards)
	for _, c := range cards {
		if c.Type == CardSpendingSummary {
			findings--
		}
	}
	label := strings.ToUpper(periodType[:1]) + periodType[1:] + " diff " + start.Format("2006-01-02")
	summary := fmt.Sprintf("%s: $%.2f (%d findings)", label, totalSpend, findings)

	cardsJSON, err := json.Marshal(cards)
	if err != nil {
		return nil, err
	}
	diff := repository.Diff{
		ID:            newID(s.NewID),
		PeriodType:    periodType,
		PeriodStart:   start,
		PeriodEnd:     end,
		Summary:       summary,
		TotalSpend:    stats.Round2(totalSpend),
		BaselineSpend: stats.Round2(baselineSpend),
		ChangePct:     changePct,
		Cards:         cardsJSON,
	}
	if err := s.Diffs.Insert(ctx, diff); err != nil {
		return nil, fmt.Errorf("persist diff: %w", err)
	}
	if err := s.Activity.Log(ctx, newID(s.NewID), "diff_generated", summary, now(s.Clock)); err != nil {
		return nil, fmt.Errorf("log activity: %w", err)
	}
	if s.Log != nil {
		s.Log.Info("diff generated", "period", periodType, "start", start.Format("2006-01-02"),
			"cards", len(cards), "findings", findings)
	}
	return &DiffReport{Diff: diff, Cards: cards}, nil
}

// backCards writes one derived event per card and evidence rows pointing at
// the ledger records behind it. Card.EvidenceIDs is filled in place;
// sources[i] carries the record IDs for cards[i].
func (s *DiffService) backCards(ctx context.Context, cards []Card, sources [][]string,
	ledger []repository.Transaction) error {

	byID := make(map[string]repository.Transaction, len(ledger))
	for _, t := range ledger {
		byID[t.ID] = t
	}

	ts := now(s.Clock)
	for i := range cards {
		c := &cards[i]
		payload, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if err := s.Events.InsertDerived(ctx, repository.DerivedEvent{
			ID:      c.ID,
			Kind:    "finding:" + c.Type,
			Ts:      ts,
			Title:   c.Summary,
			Payload: payload,
		}); err != nil {
			return fmt.Errorf("back card %s: %w", c.ID, err)
		}
		for _, rid := range sources[i] {
			t, ok := byID[rid]
			if !ok {
				continue
			}
			excerpt := fmt.Sprintf("%s $%.2f on %s", t.Merchant, t.Amount, t.Date.Format("2006-01-02"))
			ev := repository.Evidence{
				ID:         newID(s.NewID),
				OwnerID:    c.ID,
				RecordKind: "ledger",
				RecordID:   rid,
				Excerpt:    excerpt,
				Hash:       contentHash(rid + "|" + excerpt),
			}
			if err := s.Evidence.Insert(ctx, ev); err != nil {
				return fmt.Errorf("evidence for card %s: %w", c.ID, err)
			}
			c.EvidenceIDs = append(c.EvidenceIDs, ev.ID)
		}
	}
	return nil
}

func (s *DiffService) subscriptionCard(c detect.SubscriptionCandidate, isNew bool) Card {
	label := "Active subscription"
	actions := []string{"Review whether you still use this"}
	if isNew {
		label = "New subscription"
		actions = []string{"Cancel within the trial window if unwanted"}
	}
	return Card{
		ID:         newID(s.NewID),
		Type:       CardSubscription,
		Impact:     -c.TypicalAmount,
		Confidence: c.Confidence,
		Merchant:   c.Merchant,
		Summary: fmt.Sprintf("%s: %s charges %s $%.2f (%d so far)",
			label, c.Merchant, cadenceAdverb(c.Cadence), c.TypicalAmount, c.Occurrences),
		Detail: map[string]any{
			"cadence":           c.Cadence,
			"typicalAmount":     c.TypicalAmount,
			"occurrences":       c.Occurrences,
			"amountConsistency": c.AmountConsistency,
			"meanIntervalDays":  c.MeanIntervalDays,
			"new":               isNew,
		},
		Actions: actions,
	}
}

func cadenceAdverb(cadence string) string {
	switch cadence {
	case detect.CadenceMonthly:
		return "monthly"
	case detect.CadenceAnnual:
		return "yearly"
	default:
		return "recurringly"
	}
}

func spendTotal(records []repository.Transaction) float64 {
	var total float64
	for _, t := range records {
		if t.Amount < 0 {
			total += -t.Amount
		}
	}
	return total
}

func activeWithin(dates []time.Time, from, to time.Time) bool {
	for _, d := range dates {
		if !d.Before(from) && d.Before(to) {
			return true
		}
	}
	return false
}

func contentHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
