package detector

import "github.com/dvloznov/decision-ease/internal/domain"

// merchantCategories maps exact merchant names to their spending category.
var merchantCategories = map[string]domain.Category{
	"Spotify":   domain.CategoryEntertainment,
	"GMOレンタル":   domain.CategoryHousing,
	"スーパー":      domain.CategoryFood,
	"交通系IC":     domain.CategoryTransport,
}

// CategoryFor returns the category of a merchant, or CategoryUncategorized
// when the merchant is not in the table. Matching is exact.
func CategoryFor(merchant string) domain.Category {
	if c, ok := merchantCategories[merchant]; ok {
		return c
	}
	return domain.CategoryUncategorized
}

// Classify returns a copy of transactions with Category populated.
func Classify(transactions []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(transactions))
	for i, tx := range transactions {
		tx.Category = CategoryFor(tx.Merchant)
		out[i] = tx
	}
	return out
}

// CategoryTotal is the summed expense amount of one category.
type CategoryTotal struct {
	Category domain.Category `json:"category"`
	Total    int64           `json:"total"`
}

// CategoryTotals sums expense amounts per category. Categories appear in the
// order they are first seen; income is skipped.
func CategoryTotals(transactions []domain.Transaction) []CategoryTotal {
	index := make(map[domain.Category]int)
	totals := []CategoryTotal{}

	for _, tx := range Classify(transactions) {
		if !tx.IsExpense() {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(totals)
			index[tx.Category] = i
			totals = append(totals, CategoryTotal{Category: tx.Category})
		}
		totals[i].Total += tx.Amount
	}

	return totals
}
