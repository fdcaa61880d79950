package notice

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dvloznov/decision-ease/internal/domain"
)

// Charge is a subscription paired with the date it is next billed.
type Charge struct {
	Subscription   domain.Subscription `json:"subscription"`
	NextChargeDate time.Time           `json:"nextChargeDate"`
}

// UpcomingCharges projects the next billing date of every subscription.
// The candidate is RenewalDay in today's month, with time.Date overflow
// (day 31 in a 30-day month lands on the 1st of the next). If the candidate
// is before today it moves forward one calendar month. Input order is kept.
func UpcomingCharges(subscriptions []domain.Subscription, today time.Time) []Charge {
	charges := make([]Charge, 0, len(subscriptions))
	for _, sub := range subscriptions {
		next := time.Date(today.Year(), today.Month(), sub.RenewalDay, 0, 0, 0, 0, today.Location())
		if next.Before(today) {
			next = next.AddDate(0, 1, 0)
		}
		charges = append(charges, Charge{Subscription: sub, NextChargeDate: next})
	}
	return charges
}

// NextCharge returns the earliest upcoming charge. On equal dates the one
// listed first wins. ok is false when there are no subscriptions.
func NextCharge(subscriptions []domain.Subscription, today time.Time) (Charge, bool) {
	charges := UpcomingCharges(subscriptions, today)
	if len(charges) == 0 {
		return Charge{}, false
	}

	soonest := charges[0]
	for _, c := range charges[1:] {
		if c.NextChargeDate.Before(soonest.NextChargeDate) {
			soonest = c
		}
	}
	return soonest, true
}

// BalanceWarning returns a warning when the soonest charge is larger than
// the balance. ok is false when no warning applies.
func BalanceWarning(subscriptions []domain.Subscription, balance int64, today time.Time) (string, bool) {
	next, ok := NextCharge(subscriptions, today)
	if !ok {
		return "", false
	}
	if balance >= next.Subscription.Amount {
		return "", false
	}
	return fmt.Sprintf("The next charge for %q (%s yen) exceeds the current balance.",
		next.Subscription.Name, formatAmount(next.Subscription.Amount)), true
}

// ForecastMessages returns one line per upcoming charge, in input order.
// Premium gating is the caller's concern.
func ForecastMessages(subscriptions []domain.Subscription, today time.Time) []string {
	charges := UpcomingCharges(subscriptions, today)
	messages := make([]string, 0, len(charges))
	for _, c := range charges {
		messages = append(messages, fmt.Sprintf("%q is scheduled for %s at %s yen.",
			c.Subscription.Name, c.NextChargeDate.Format(domain.DateLayout), formatAmount(c.Subscription.Amount)))
	}
	return messages
}

func formatAmount(amount int64) string {
	return humanize.Comma(amount)
}
