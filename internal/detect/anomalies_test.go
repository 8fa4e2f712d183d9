package detect

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
)

func TestDetectAnomaliesMerchantOutlier(t *testing.T) {
	t.Parallel()

	// six $5 coffees, then a $47.50 charge at the same counter
	history := make([]repository.Transaction, 0, 7)
	for i := 0; i < 6; i++ {
		history = append(history, txn(
			fmt.Sprintf("sb-%d", i), "Starbucks", -5.00, day(2025, time.July, 1+i)))
	}
	spike := txn("sb-6", "Starbucks", -47.50, day(2025, time.July, 10))
	history = append(history, spike)

	got := DetectAnomalies([]repository.Transaction{spike}, history)
	require.Len(t, got, 1)

	a := got[0]
	require.Equal(t, "sb-6", a.RecordID)
	require.Equal(t, LevelMerchant, a.Level)
	require.Greater(t, a.ZScore, 2.0)
	require.InDelta(t, 47.50, a.Amount, 1e-9)
	require.Greater(t, a.Confidence, 0.5)
	require.Contains(t, a.Reason, "Starbucks")
}

func TestDetectAnomaliesCategoryFallback(t *testing.T) {
	t.Parallel()

	// eight modest dining charges at distinct merchants, so no merchant
	// accumulates enough history of its own
	history := make([]repository.Transaction, 0, 9)
	for i := 0; i < 8; i++ {
		history = append(history, txnCat(
			fmt.Sprintf("d-%d", i), fmt.Sprintf("Diner %d", i), "dining", -8.00, day(2025, time.July, 1+i)))
	}
	spike := txnCat("d-8", "River Cafe", "dining", -100.00, day(2025, time.July, 12))
	history = append(history, spike)

	got := DetectAnomalies([]repository.Transaction{spike}, history)
	require.Len(t, got, 1)

	a := got[0]
	require.Equal(t, LevelCategory, a.Level)
	require.Equal(t, "dining", a.Category)
	require.Greater(t, a.ZScore, 2.5)
	require.Contains(t, a.Reason, "dining")
}

func TestDetectAnomaliesFlagsRecordAtMostOnce(t *testing.T) {
	t.Parallel()

	// merchant baseline qualifies, so the category path must not fire too
	history := make([]repository.Transaction, 0, 8)
	for i := 0; i < 6; i++ {
		history = append(history, txnCat(
			fmt.Sprintf("g-%d", i), "Grocer", "groceries", -40.00, day(2025, time.July, 1+i)))
	}
	spike := txnCat("g-6", "Grocer", "groceries", -400.00, day(2025, time.July, 9))
	history = append(history, spike)

	got := DetectAnomalies([]repository.Transaction{spike}, history)
	require.Len(t, got, 1)
	require.Equal(t, LevelMerchant, got[0].Level)
}

func TestDetectAnomaliesQuietBaseline(t *testing.T) {
	t.Parallel()

	// identical amounts: zero stddev never divides, never flags
	history := []repository.Transaction{
		txn("r-0", "Rent Co", -1800.00, day(2025, time.June, 1)),
		txn("r-1", "Rent Co", -1800.00, day(2025, time.July, 1)),
		txn("r-2", "Rent Co", -1800.00, day(2025, time.August, 1)),
	}
	require.Empty(t, DetectAnomalies(history, history))
}
