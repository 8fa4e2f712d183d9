package detect

import (
	"time"

	"github.com/alperenugurlu/mirror-history/internal/database/repository"
)

func txn(id, merchant string, amount float64, date time.Time) repository.Transaction {
	return repository.Transaction{
		ID:       id,
		Date:     date,
		Merchant: merchant,
		Amount:   amount,
		Currency: "USD",
	}
}

func txnCat(id, merchant, category string, amount float64, date time.Time) repository.Transaction {
	t := txn(id, merchant, amount, date)
	t.Category = &category
	return t
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
