package integrations

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/dvloznov/decision-ease/internal/detector"
	"github.com/dvloznov/decision-ease/internal/domain"
	"github.com/dvloznov/decision-ease/internal/notice"
)

var reportHeader = []string{"section", "name", "amount", "date", "note"}

// MonthlyReport renders the report saved to Drive as CSV: category totals,
// upcoming charges, the balance and the credit status.
func MonthlyReport(st *domain.State, today time.Time) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{reportHeader}
	for _, total := range detector.CategoryTotals(st.Transactions) {
		rows = append(rows, []string{"category", string(total.Category), strconv.FormatInt(total.Total, 10), "", ""})
	}
	for _, charge := range notice.UpcomingCharges(activeSubscriptions(st.Subscriptions), today) {
		rows = append(rows, []string{
			"upcoming",
			charge.Subscription.Name,
			strconv.FormatInt(charge.Subscription.Amount, 10),
			charge.NextChargeDate.Format(domain.DateLayout),
			string(charge.Subscription.Category),
		})
	}
	rows = append(rows, []string{"balance", "current", strconv.FormatInt(st.Balance, 10), today.Format(domain.DateLayout), ""})

	status := notice.CreditStatus(st.Transactions, st.Subscriptions, st.Balance)
	rows = append(rows, []string{"status", string(status.Label), "", "", status.Reason})

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("MonthlyReport: %w", err)
	}
	return buf.Bytes(), nil
}

// reportName is the Drive file name for the month containing today.
func reportName(today time.Time) string {
	return fmt.Sprintf("decision-ease-%s.csv", today.Format("2006-01"))
}
