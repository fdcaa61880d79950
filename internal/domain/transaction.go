package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-day layout used for transaction dates on the wire.
const DateLayout = "2006-01-02"

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	// TransactionIncome is money received (salary, refunds).
	TransactionIncome TransactionType = "income"
	// TransactionExpense is money spent; only expenses take part in detection.
	TransactionExpense TransactionType = "expense"
)

// Transaction represents one recorded account movement.
// Transactions are immutable once recorded; the amount is a positive whole number
// in the minor currency unit and the direction is carried by Type.
type Transaction struct {
	ID       string          // from "id"
	Date     time.Time       // calendar day, serialized as YYYY-MM-DD
	Merchant string          // free-text counterparty, grouping key for detection
	Amount   int64           // always positive
	Type     TransactionType // income or expense

	// Category is only populated by classification for reports.
	Category Category
}

// IsExpense reports whether the transaction is money going out.
func (t Transaction) IsExpense() bool {
	return t.Type == TransactionExpense
}

type transactionJSON struct {
	ID       string          `json:"id"`
	Date     string          `json:"date"`
	Merchant string          `json:"merchant"`
	Amount   int64           `json:"amount"`
	Type     TransactionType `json:"type"`
	Category Category        `json:"category,omitempty"`
}

// MarshalJSON writes the date as a plain calendar day.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:       t.ID,
		Date:     t.Date.Format(DateLayout),
		Merchant: t.Merchant,
		Amount:   t.Amount,
		Type:     t.Type,
		Category: t.Category,
	})
}

// UnmarshalJSON accepts either a calendar day or a full RFC 3339 timestamp.
// A timestamp is cut down to its calendar day (UTC midnight), the same value
// MarshalJSON writes back.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw transactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	date, err := ParseDate(raw.Date)
	if err != nil {
		return fmt.Errorf("transaction %q: %w", raw.ID, err)
	}
	date = CalendarDay(date)

	*t = Transaction{
		ID:       raw.ID,
		Date:     date,
		Merchant: raw.Merchant,
		Amount:   raw.Amount,
		Type:     raw.Type,
		Category: raw.Category,
	}
	return nil
}

// CalendarDay drops the time of day, keeping the date as written in t's own
// zone, and returns it as UTC midnight.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD (as UTC midnight) or RFC 3339. The RFC 3339
// form keeps its time of day; transactions truncate it with CalendarDay.
func ParseDate(s string) (time.Time, error) {
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}
