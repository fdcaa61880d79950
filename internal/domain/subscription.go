package domain

// SubscriptionStatus is the lifecycle state of a subscription.
// Subscriptions are never deleted, only moved between these states.
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusPaused    SubscriptionStatus = "paused"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCancelled:
		return true
	}
	return false
}

// Subscription is a recurring charge, either inferred from transactions
// (Detected=true) or added by the user (Detected=false).
type Subscription struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Amount     int64              `json:"amount"`
	RenewalDay int                `json:"renewalDay"`
	Status     SubscriptionStatus `json:"status"`
	Category   Category           `json:"category"`
	Detected   bool               `json:"detected"`
}
