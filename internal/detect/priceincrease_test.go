package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
)

func TestDetectPriceIncreasesFlagsDrift(t *testing.T) {
	t.Parallel()

	baseline := makeMonthly("Netflix", day(2025, time.January, 5), 15.99, 5, 0)
	current := []repository.Transaction{
		txn("n-5", "Netflix", -17.99, day(2025, time.June, 4)),
	}

	got := DetectPriceIncreases(current, baseline)
	require.Len(t, got, 1)

	p := got[0]
	require.Equal(t, "netflix", p.MerchantKey)
	require.InDelta(t, 15.99, p.BaselineAvg, 1e-9)
	require.InDelta(t, 17.99, p.CurrentAvg, 1e-9)
	require.InDelta(t, 2.00, p.IncreaseAmount, 1e-9)
	require.InDelta(t, 12.51, p.IncreasePct, 0.01)
	// base 0.5 + 0.1 (>10%) + 0.2 (solid sample counts)
	require.InDelta(t, 0.8, p.Confidence, 1e-9)
	require.Equal(t, 5, p.BaselineCount)
	require.Equal(t, 1, p.CurrentCount)
}

func TestDetectPriceIncreasesIgnoresSmallOrNegativeMoves(t *testing.T) {
	t.Parallel()

	baseline := []repository.Transaction{
		txn("a1", "Gym", -40.00, day(2025, time.April, 1)),
		txn("b1", "Cafe", -5.00, day(2025, time.April, 2)),
		txn("c1", "ISP", -60.00, day(2025, time.April, 3)),
	}
	current := []repository.Transaction{
		// 4.5% bump: below the percentage floor
		txn("a2", "Gym", -41.80, day(2025, time.May, 1)),
		// price went down
		txn("b2", "Cafe", -4.00, day(2025, time.May, 2)),
		// merchant never seen before
		txn("d1", "Florist", -25.00, day(2025, time.May, 3)),
	}
	require.Empty(t, DetectPriceIncreases(current, baseline))

	// 8% bump on a $5 coffee is only 40 cents: below the dollar floor
	current = []repository.Transaction{
		txn("b3", "Cafe", -5.40, day(2025, time.May, 4)),
	}
	require.Empty(t, DetectPriceIncreases(current, baseline))
}

func TestDetectPriceIncreasesSkipsZeroBaseline(t *testing.T) {
	t.Parallel()

	// a free trial in the baseline must not divide into an infinite bump
	baseline := []repository.Transaction{
		txn("s1", "Streamly", 0.00, day(2025, time.April, 1)),
	}
	current := []repository.Transaction{
		txn("s2", "Streamly", -9.99, day(2025, time.May, 1)),
	}
	require.Empty(t, DetectPriceIncreases(current, baseline))
}

func TestDetectPriceIncreasesSortsByAbsoluteIncrease(t *testing.T) {
	t.Parallel()

	baseline := []repository.Transaction{
		txn("i1", "ISP", -60.00, day(2025, time.April, 1)),
		txn("i2", "ISP", -60.00, day(2025, time.April, 15)),
		txn("g1", "Gym", -40.00, day(2025, time.April, 2)),
		txn("g2", "Gym", -40.00, day(2025, time.April, 16)),
	}
	current := []repository.Transaction{
		txn("i3", "ISP", -70.00, day(2025, time.May, 1)),
		txn("g3", "Gym", -44.00, day(2025, time.May, 2)),
	}

	got := DetectPriceIncreases(current, baseline)
	require.Len(t, got, 2)
	require.Equal(t, "isp", got[0].MerchantKey)
	require.Equal(t, "gym", got[1].MerchantKey)
	require.InDelta(t, 10.00, got[0].IncreaseAmount, 1e-9)
}
