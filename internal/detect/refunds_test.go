package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
)

func TestDetectPendingRefundsFlagsStalePurchase(t *testing.T) {
	t.Parallel()

	now := day(2025, time.August, 18)
	ledger := []repository.Transaction{
		txn("ap-1", "Apple Store", -999.00, now.AddDate(0, 0, -48)),
	}

	got := DetectPendingRefunds(ledger, DefaultRefundThresholdDays, DefaultRefundMinAmount, now)
	require.Len(t, got, 1)

	r := got[0]
	require.Equal(t, "ap-1", r.PurchaseID)
	require.Equal(t, 48, r.DaysSincePurchase)
	require.InDelta(t, 999.00, r.Amount, 1e-9)
	// base 0.3 + 0.1 for a purchase over $200; 48 days is under the 60-day bump
	require.InDelta(t, 0.4, r.Confidence, 1e-9)
}

func TestDetectPendingRefundsSkipsMatchedRefund(t *testing.T) {
	t.Parallel()

	now := day(2025, time.August, 18)
	purchase := txn("tv-1", "Best Buy", -450.00, now.AddDate(0, 0, -40))

	// refund within a dollar of the purchase, dated after it
	refunded := []repository.Transaction{
		purchase,
		txn("tv-2", "Best Buy", 449.50, now.AddDate(0, 0, -20)),
	}
	require.Empty(t, DetectPendingRefunds(refunded, 30, 50, now))

	// a positive record before the purchase does not count
	early := []repository.Transaction{
		txn("tv-3", "Best Buy", 450.00, now.AddDate(0, 0, -60)),
		purchase,
	}
	require.Len(t, DetectPendingRefunds(early, 30, 50, now), 1)
}

func TestDetectPendingRefundsHonorsFloors(t *testing.T) {
	t.Parallel()

	now := day(2025, time.August, 18)
	ledger := []repository.Transaction{
		// too small
		txn("s-1", "Cafe", -30.00, now.AddDate(0, 0, -90)),
		// too recent
		txn("s-2", "Outfitter", -120.00, now.AddDate(0, 0, -10)),
		// income, not an expense
		txn("s-3", "Employer", 2500.00, now.AddDate(0, 0, -90)),
	}
	require.Empty(t, DetectPendingRefunds(ledger, 30, 50, now))
}

func TestDetectPendingRefundsSortsByAmount(t *testing.T) {
	t.Parallel()

	now := day(2025, time.August, 18)
	ledger := []repository.Transaction{
		txn("a-1", "Airline", -320.00, now.AddDate(0, 0, -70)),
		txn("h-1", "Hotel", -840.00, now.AddDate(0, 0, -35)),
	}

	got := DetectPendingRefunds(ledger, 30, 50, now)
	require.Len(t, got, 2)
	require.Equal(t, "h-1", got[0].PurchaseID)
	require.Equal(t, "a-1", got[1].PurchaseID)
	// 70 days out earns the staleness bump on top of the large-amount bump
	require.InDelta(t, 0.5, got[1].Confidence, 1e-9)
}
