package notice

import (
	"time"

	"github.com/dvloznov/decision-ease/internal/domain"
)

// Tag classifies a timeline entry for display.
type Tag string

const (
	TagStatus   Tag = "status"
	TagNotice   Tag = "notice"
	TagForecast Tag = "forecast"
	TagAdvice   Tag = "advice"
	TagRelief   Tag = "relief"
	TagGuide    Tag = "guide"
	TagLearning Tag = "learning"
)

// Item is one entry of the home timeline.
type Item struct {
	Title   string `json:"title"`
	Detail  string `json:"detail"`
	Tag     Tag    `json:"tag"`
	Warning bool   `json:"warning,omitempty"`
}

// Timeline builds the home timeline for the given state.
func Timeline(s *domain.State, today time.Time) []Item {
	status := CreditStatus(s.Transactions, s.Subscriptions, s.Balance)
	items := []Item{{
		Title:  "Estimated credit status",
		Detail: string(status.Label) + ": " + status.Reason,
		Tag:    TagStatus,
	}}

	if warning, ok := BalanceWarning(s.Subscriptions, s.Balance, today); ok {
		items = append(items, Item{
			Title:   "Balance notice",
			Detail:  warning,
			Tag:     TagNotice,
			Warning: true,
		})
	}

	if s.PremiumActive {
		detail := "Nothing is scheduled this month."
		if forecasts := ForecastMessages(s.Subscriptions, today); len(forecasts) > 0 {
			detail = forecasts[0]
		}
		items = append(items,
			Item{Title: "Outlook", Detail: detail, Tag: TagForecast},
			Item{Title: "Suggested action", Detail: "No new paperwork this week; things are fine as they are.", Tag: TagAdvice},
			Item{Title: "Fewer decisions", Detail: "Nothing to do right now. You will be told when a decision is needed.", Tag: TagRelief},
		)
	} else {
		items = append(items, Item{
			Title:  "Get ready for fewer decisions",
			Detail: "Forecasts of upcoming charges are available when you need them.",
			Tag:    TagGuide,
		})
	}

	items = append(items, Item{
		Title:  "Today's mini lesson",
		Detail: "How credit works (5 min)",
		Tag:    TagLearning,
	})

	return items
}

// WeeklyTopic picks the situational learning content for premium users.
// Non-premium users get an empty string.
func WeeklyTopic(premium, balanceWarning bool) string {
	if !premium {
		return ""
	}
	if balanceWarning {
		return "balance-tidy-up"
	}
	return "relaxed-check"
}
