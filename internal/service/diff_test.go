package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
)

func newDiffService(s *testStore, clock time.Time) *DiffService {
	return &DiffService{
		Ledger:   s.ledger,
		Events:   s.events,
		Evidence: s.evidence,
		Diffs:    s.diffs,
		Rules:    s.rules,
		Activity: s.activity,
		Clock:    fixedClock(clock),
		NewID:    seqIDs("card"),
	}
}

func ruleRow(id, typ, payload string, enabled bool) repository.Rule {
	return repository.Rule{ID: id, Type: typ, Payload: json.RawMessage(payload), Enabled: enabled}
}

// seedDiffFixture loads six months of ledger history: a monthly Netflix
// subscription whose price keeps creeping up, a large unrefunded purchase in
// July and an August coffee-counter outlier.
func seedDiffFixture(t *testing.T, s *testStore) {
	t.Helper()

	// Netflix every 30 days, wobbling between two prices before the bump.
	start := utcDay(2025, time.March, 1)
	for i := 0; i < 6; i++ {
		amount := 15.99
		if i%2 == 1 {
			amount = 16.99
		}
		seedTxn(t, s, fmt.Sprintf("nf-%d", i), "Netflix", -amount, start.AddDate(0, 0, 30*i))
	}
	seedTxn(t, s, "nf-6", "Netflix", -17.99, start.AddDate(0, 0, 180)) // Aug 28

	// $999 purchase 48 days before the reference date, no refund.
	seedTxn(t, s, "ap-0", "Apple Store", -999.00, utcDay(2025, time.July, 11))

	// six $5 coffees early in August, then $47.50 on the 10th.
	for i := 0; i < 6; i++ {
		seedTxn(t, s, fmt.Sprintf("sb-%d", i), "Starbucks", -5.00, utcDay(2025, time.August, 1+i))
	}
	seedTxn(t, s, "sb-6", "Starbucks", -47.50, utcDay(2025, time.August, 10))
}

func TestDiffGenerateMonthly(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	seedDiffFixture(t, s)

	ref := utcDay(2025, time.August, 28)
	report, err := newDiffService(s, ref).Generate(context.Background(), PeriodMonthly, ref)
	require.NoError(t, err)

	byType := map[string][]Card{}
	for _, c := range report.Cards {
		byType[c.Type] = append(byType[c.Type], c)
	}

	// summary card leads and carries the period spend
	require.Equal(t, CardSpendingSummary, report.Cards[0].Type)
	require.InDelta(t, -95.49, report.Cards[0].Impact, 0.01)

	subs := byType[CardSubscription]
	require.Len(t, subs, 1)
	require.Equal(t, "Netflix", subs[0].Merchant)
	require.Equal(t, false, subs[0].Detail["new"])

	incs := byType[CardPriceIncrease]
	require.Len(t, incs, 1)
	require.Equal(t, "Netflix", incs[0].Merchant)
	require.InDelta(t, -1.00, incs[0].Impact, 1e-9)

	refunds := byType[CardRefundPending]
	require.Len(t, refunds, 1)
	require.Equal(t, "Apple Store", refunds[0].Merchant)
	require.InDelta(t, 999.00, refunds[0].Impact, 1e-9)
	require.Equal(t, 48, refunds[0].Detail["daysSincePurchase"])

	anomalies := byType[CardAnomaly]
	require.Len(t, anomalies, 1)
	require.Equal(t, "Starbucks", anomalies[0].Merchant)

	require.Len(t, report.Cards, 5)
	require.Contains(t, report.Diff.Summary, "(4 findings)")
	require.InDelta(t, 95.49, report.Diff.TotalSpend, 0.01)
}

func TestDiffGenerateBacksCardsWithEvidence(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	seedDiffFixture(t, s)

	ref := utcDay(2025, time.August, 28)
	ctx := context.Background()

	report, err := newDiffService(s, ref).Generate(ctx, PeriodMonthly, ref)
	require.NoError(t, err)

	for _, c := range report.Cards {
		ev, err := s.events.Get(ctx, c.ID)
		require.NoError(t, err)
		require.NotNil(t, ev, "card %s has no backing event", c.ID)
		require.Equal(t, "finding:"+c.Type, ev.Kind)

		if c.Type == CardSpendingSummary {
			continue
		}
		require.NotEmpty(t, c.EvidenceIDs, "card %s has no evidence", c.ID)
		rows, err := s.evidence.ForOwner(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, rows, len(c.EvidenceIDs))
		for _, r := range rows {
			require.Equal(t, "ledger", r.RecordKind)
			require.NotEmpty(t, r.Hash)
		}
	}

	latest, err := s.diffs.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	var cards []Card
	require.NoError(t, json.Unmarshal(latest.Cards, &cards))
	require.Len(t, cards, len(report.Cards))
}

func TestDiffGenerateRefundEvidencePerPurchase(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	ref := utcDay(2025, time.August, 28)

	// two unrefunded purchases at the same merchant
	seedTxn(t, s, "ap-big", "Apple Store", -999.00, utcDay(2025, time.July, 11))
	seedTxn(t, s, "ap-small", "Apple Store", -500.00, utcDay(2025, time.July, 21))

	report, err := newDiffService(s, ref).Generate(ctx, PeriodMonthly, ref)
	require.NoError(t, err)

	var refundCards []Card
	for _, c := range report.Cards {
		if c.Type == CardRefundPending {
			refundCards = append(refundCards, c)
		}
	}
	require.Len(t, refundCards, 2)

	// each card's evidence cites its own purchase, not its neighbour's
	cited := map[string]bool{}
	for _, c := range refundCards {
		rows, err := s.evidence.ForOwner(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		want := "ap-big"
		if c.Detail["purchaseDate"] == "2025-07-21" {
			want = "ap-small"
		}
		require.Equal(t, want, rows[0].RecordID)
		cited[rows[0].RecordID] = true
	}
	require.Len(t, cited, 2)
}

func TestDiffGenerateAppliesRules(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	seedDiffFixture(t, s)
	ctx := context.Background()

	require.NoError(t, s.rules.Insert(ctx, ruleRow("r-1", "ignore_merchant", `{"merchant":"Netflix"}`, true)))

	ref := utcDay(2025, time.August, 28)
	report, err := newDiffService(s, ref).Generate(ctx, PeriodMonthly, ref)
	require.NoError(t, err)

	for _, c := range report.Cards {
		require.NotEqual(t, "Netflix", c.Merchant)
	}

	// suppressed cards keep their backing events for later explanation
	var n int
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM derived_events WHERE kind = 'finding:subscription'`).Scan(&n))
	require.Equal(t, 1, n)
}

func TestDiffGenerateNewSubscriptionCard(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	// two charges, both inside August: brand new this period
	seedTxn(t, s, "hl-0", "Hulu", -12.99, utcDay(2025, time.August, 1))
	seedTxn(t, s, "hl-1", "Hulu", -12.99, utcDay(2025, time.August, 31))

	ref := utcDay(2025, time.August, 31)
	report, err := newDiffService(s, ref).Generate(context.Background(), PeriodMonthly, ref)
	require.NoError(t, err)

	var sub *Card
	for i, c := range report.Cards {
		if c.Type == CardSubscription {
			sub = &report.Cards[i]
		}
	}
	require.NotNil(t, sub)
	require.Equal(t, "Hulu", sub.Merchant)
	require.Equal(t, true, sub.Detail["new"])
}

func TestDiffGenerateEmptyPeriod(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	ref := utcDay(2025, time.August, 28)
	report, err := newDiffService(s, ref).Generate(context.Background(), PeriodWeekly, ref)
	require.NoError(t, err)
	require.Empty(t, report.Cards)
	require.Zero(t, report.Diff.TotalSpend)
}

func TestPeriodBounds(t *testing.T) {
	t.Parallel()

	ref := time.Date(2025, time.August, 28, 14, 30, 0, 0, time.UTC)

	start, end, baseStart, baseEnd, err := PeriodBounds(PeriodDaily, ref)
	require.NoError(t, err)
	require.Equal(t, utcDay(2025, time.August, 28), start)
	require.Equal(t, utcDay(2025, time.August, 29), end)
	require.Equal(t, utcDay(2025, time.August, 27), baseStart)
	require.Equal(t, start, baseEnd)

	start, end, baseStart, baseEnd, err = PeriodBounds(PeriodWeekly, ref)
	require.NoError(t, err)
	require.Equal(t, utcDay(2025, time.August, 22), start)
	require.Equal(t, utcDay(2025, time.August, 29), end)
	require.Equal(t, utcDay(2025, time.August, 15), baseStart)
	require.Equal(t, start, baseEnd)

	start, end, baseStart, baseEnd, err = PeriodBounds(PeriodMonthly, ref)
	require.NoError(t, err)
	require.Equal(t, utcDay(2025, time.August, 1), start)
	require.Equal(t, utcDay(2025, time.September, 1), end)
	require.Equal(t, utcDay(2025, time.July, 1), baseStart)
	require.Equal(t, start, baseEnd)

	_, _, _, _, err = PeriodBounds("fortnightly", ref)
	require.Error(t, err)
}
