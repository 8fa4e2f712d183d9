package detect

import (
	"sort"
	"time"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
)

// Pending-refund defaults, overridable via config.
const (
	DefaultRefundThresholdDays = 30
	DefaultRefundMinAmount     = 50.0
)

// refundAmountTolerance is how close a positive record must be to the
// purchase amount to count as its refund.
const refundAmountTolerance = 1.0

// PendingRefundCandidate describes a sizable purchase with no matching refund
// after the waiting threshold.
type PendingRefundCandidate struct {
	Merchant          string
	MerchantKey       string
	PurchaseID        string
	PurchaseDate      time.Time
	Amount            float64 // absolute dollars
	DaysSincePurchase int
	Confidence        float64
}

// DetectPendingRefunds flags expenses of at least minAmount that are at least
// thresholdDays old and have no same-merchant refund of matching size dated
// on or after the purchase. Output is sorted by purchase amount, largest
// first.
func DetectPendingRefunds(records []repository.Transaction, thresholdDays int, minAmount float64, now time.Time) []PendingRefundCandidate {
	var out []PendingRefundCandidate
	for key, group := range groupByMerchant(records) {
		for _, purchase := range group {
			if purchase.Amount >= 0 || abs(purchase.Amount) < minAmount {
				continue
			}
			days := int(now.Sub(purchase.Date).Hours() / 24)
			if days < thresholdDays {
				continue
			}
			if hasRefund(group, purchase) {
				continue
			}

			amount := abs(purchase.Amount)
			confidence := 0.3
			if days > 60 {
				confidence += 0.1
			}
			if amount > 200 {
				confidence += 0.1
			}
			if confidence > 1 {
				confidence = 1
			}
			out = append(out, PendingRefundCandidate{
				Merchant:          purchase.Merchant,
				MerchantKey:       key,
				PurchaseID:        purchase.ID,
				PurchaseDate:      purchase.Date,
				Amount:            amount,
				DaysSincePurchase: days,
				Confidence:        confidence,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].PurchaseID < out[j].PurchaseID
	})
	return out
}

func hasRefund(group []repository.Transaction, purchase repository.Transaction) bool {
	target := abs(purchase.Amount)
	for _, t := range group {
		if t.Amount <= 0 || t.Date.Before(purchase.Date) {
			continue
		}
		if abs(abs(t.Amount)-target) <= refundAmountTolerance {
			return true
		}
	}
	return false
}
