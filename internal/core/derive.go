package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// BalancePoint is one step of the running balance, labelled with the
// category of the transaction that produced it.
type BalancePoint struct {
	Category string          `json:"category"`
	Balance  decimal.Decimal `json:"balance"`
}

// CategoryTotal is the summed expense amount of one category.
type CategoryTotal struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Palette colours categories by their position in the aggregate, so the
// first-occurrence order decides each category's colour.
var Palette = []string{"#6366f1", "#8b5cf6", "#ec4899", "#f43f5e", "#f59e0b"}

// Growth holds the percentages shown on the summary cards.
type Growth struct {
	IncomePct  float64 `json:"income"`
	ExpensePct float64 `json:"expense"`
}

const (
	mockIncomeGrowthPct  = 15.5
	mockExpenseGrowthPct = 8.2
)

// Filter returns the transactions whose category contains term, ignoring case.
// An empty term keeps everything. The input slice is never modified.
func Filter(log []Transaction, term string) []Transaction {
	out := make([]Transaction, 0, len(log))
	if term == "" {
		return append(out, log...)
	}
	needle := strings.ToLower(term)
	for _, t := range log {
		if strings.Contains(strings.ToLower(t.Category), needle) {
			out = append(out, t)
		}
	}
	return out
}

// BuildBalanceSeries walks a newest-first log from its oldest entry and
// returns the running balance after each transaction, oldest first.
func BuildBalanceSeries(log []Transaction) []BalancePoint {
	out := make([]BalancePoint, 0, len(log))
	balance := decimal.Zero
	for i := len(log) - 1; i >= 0; i-- {
		balance = balance.Add(log[i].Signed())
		out = append(out, BalancePoint{Category: log[i].Category, Balance: balance})
	}
	return out
}

// BuildCategoryAggregate sums expense amounts per category. Categories keep
// the order in which they first appear in log.
func BuildCategoryAggregate(log []Transaction) []CategoryTotal {
	index := make(map[string]int)
	out := make([]CategoryTotal, 0)
	for _, t := range log {
		if t.Type != Expense {
			continue
		}
		i, seen := index[t.Category]
		if !seen {
			index[t.Category] = len(out)
			out = append(out, CategoryTotal{Name: t.Category, Value: t.Amount})
			continue
		}
		out[i].Value = out[i].Value.Add(t.Amount)
	}
	return out
}

// GrowthMetrics reports fixed placeholder percentages whenever the matching
// total is positive. No history is kept, so there is nothing to compare with.
func GrowthMetrics(s Summary) Growth {
	var g Growth
	if s.TotalIncome.IsPositive() {
		g.IncomePct = mockIncomeGrowthPct
	}
	if s.TotalExpenses.IsPositive() {
		g.ExpensePct = mockExpenseGrowthPct
	}
	return g
}

// Totals recomputes income and expense sums from a log.
func Totals(log []Transaction) Summary {
	var s Summary
	for _, t := range log {
		switch t.Type {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case Expense:
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount)
		}
	}
	s.NetBalance = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}
