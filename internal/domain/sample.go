package domain

import "time"

func day(s string) time.Time {
	d, _ := time.Parse(DateLayout, s)
	return d
}

// SampleTransactions is the demo ledger a fresh dashboard starts with.
func SampleTransactions() []Transaction {
	return []Transaction{
		{ID: "t1", Date: day("2024-05-02"), Merchant: "Spotify", Amount: 980, Type: TransactionExpense},
		{ID: "t2", Date: day("2024-06-02"), Merchant: "Spotify", Amount: 980, Type: TransactionExpense},
		{ID: "t3", Date: day("2024-06-10"), Merchant: "GMOレンタル", Amount: 2980, Type: TransactionExpense},
		{ID: "t4", Date: day("2024-06-15"), Merchant: "GMOレンタル", Amount: 2980, Type: TransactionExpense},
		{ID: "t5", Date: day("2024-06-20"), Merchant: "スーパー", Amount: 4500, Type: TransactionExpense},
		{ID: "t6", Date: day("2024-06-21"), Merchant: "交通系IC", Amount: 1800, Type: TransactionExpense},
		{ID: "t7", Date: day("2024-06-25"), Merchant: "給与", Amount: 230000, Type: TransactionIncome},
	}
}
