// Package detector infers recurring subscriptions from a transaction list.
package detector

import (
	"sort"
	"time"

	"github.com/dvloznov/decision-ease/internal/domain"
)

// A merchant counts as monthly when any gap between consecutive charges
// falls inside this closed range of days.
const (
	MinMonthlyGapDays = 25.0
	MaxMonthlyGapDays = 35.0
)

// Detect groups expense transactions by merchant and returns one active
// subscription for every merchant with at least one roughly monthly gap.
// Merchants are emitted in order of their first appearance in transactions.
func Detect(transactions []domain.Transaction) []domain.Subscription {
	var order []string
	byMerchant := make(map[string][]domain.Transaction)

	for _, tx := range transactions {
		if !tx.IsExpense() {
			continue
		}
		if _, seen := byMerchant[tx.Merchant]; !seen {
			order = append(order, tx.Merchant)
		}
		byMerchant[tx.Merchant] = append(byMerchant[tx.Merchant], tx)
	}

	results := []domain.Subscription{}
	for _, merchant := range order {
		items := byMerchant[merchant]
		if len(items) < 2 {
			continue
		}

		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Date.Before(items[j].Date)
		})

		if !hasMonthlyGap(items) {
			continue
		}

		latest := items[len(items)-1]
		results = append(results, domain.Subscription{
			ID:         "sub-" + merchant,
			Name:       merchant,
			Amount:     latest.Amount,
			RenewalDay: latest.Date.Day(),
			Status:     domain.StatusActive,
			Category:   CategoryFor(merchant),
			Detected:   true,
		})
	}

	return results
}

// hasMonthlyGap expects items sorted ascending by date.
func hasMonthlyGap(items []domain.Transaction) bool {
	for i := 1; i < len(items); i++ {
		gap := gapDays(items[i-1].Date, items[i].Date)
		if gap >= MinMonthlyGapDays && gap <= MaxMonthlyGapDays {
			return true
		}
	}
	return false
}

func gapDays(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}
