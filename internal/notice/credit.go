// Package notice derives the user-facing status, warning and forecast
// messages from the dashboard state. Every function is pure.
package notice

import "github.com/dvloznov/decision-ease/internal/domain"

// Label is the estimated credit-status grade.
type Label string

const (
	LabelAttention    Label = "attention"
	LabelReviewNeeded Label = "review-needed"
	LabelStable       Label = "stable"
)

// maxCalmSubscriptions is the subscription count above which fixed costs
// are considered volatile.
const maxCalmSubscriptions = 4

// Status is a credit-status label with the reason shown next to it.
type Status struct {
	Label  Label  `json:"label"`
	Reason string `json:"reason"`
}

// CreditStatus grades the current position. Rules are checked in order and
// the first match wins.
func CreditStatus(transactions []domain.Transaction, subscriptions []domain.Subscription, balance int64) Status {
	for _, tx := range transactions {
		if tx.IsExpense() && tx.Amount > balance {
			return Status{Label: LabelAttention, Reason: "billed amount may exceed balance"}
		}
	}

	if len(subscriptions) > maxCalmSubscriptions {
		return Status{Label: LabelReviewNeeded, Reason: "many fixed costs increase balance volatility"}
	}

	return Status{Label: LabelStable, Reason: "billed amounts and balance are in balance"}
}
