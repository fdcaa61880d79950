package dashboard

import (
	"time"

	"github.com/dvloznov/decision-ease/internal/detector"
	"github.com/dvloznov/decision-ease/internal/domain"
	"github.com/dvloznov/decision-ease/internal/notice"
)

// Summary is everything the home, forecast and report views show.
type Summary struct {
	Balance         int64                    `json:"balance"`
	PremiumActive   bool                     `json:"premiumActive"`
	CreditStatus    notice.Status            `json:"creditStatus"`
	BalanceWarning  string                   `json:"balanceWarning,omitempty"`
	UpcomingCharges []notice.Charge          `json:"upcomingCharges"`
	Forecasts       []string                 `json:"forecasts"`
	CategoryTotals  []detector.CategoryTotal `json:"categoryTotals"`
	Timeline        []notice.Item            `json:"timeline"`
	WeeklyTopic     string                   `json:"weeklyTopic,omitempty"`
}

// BuildSummary computes a Summary without touching storage. Upcoming
// charges and forecasts are premium content and stay empty otherwise.
func BuildSummary(st *domain.State, today time.Time) *Summary {
	warning, hasWarning := notice.BalanceWarning(st.Subscriptions, st.Balance, today)

	sum := &Summary{
		Balance:         st.Balance,
		PremiumActive:   st.PremiumActive,
		CreditStatus:    notice.CreditStatus(st.Transactions, st.Subscriptions, st.Balance),
		BalanceWarning:  warning,
		UpcomingCharges: []notice.Charge{},
		Forecasts:       []string{},
		CategoryTotals:  detector.CategoryTotals(st.Transactions),
		Timeline:        notice.Timeline(st, today),
		WeeklyTopic:     notice.WeeklyTopic(st.PremiumActive, hasWarning),
	}
	if st.PremiumActive {
		sum.UpcomingCharges = notice.UpcomingCharges(st.Subscriptions, today)
		sum.Forecasts = notice.ForecastMessages(st.Subscriptions, today)
	}
	return sum
}
