package http

import (
	"strings"

	"github.com/shopspring/decimal"

	"wealthflow/internal/core"
)

// formatPct trims a trailing ".0" so 15.5 stays 15.5 and 8 becomes 8.
func formatPct(p float64) string {
	return strings.TrimSuffix(decimal.NewFromFloat(p).StringFixed(1), ".0")
}

// sanitizeInput trims and drops control characters other than whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return s
}

type historyRow struct {
	ID       string
	Category string
	Amount   string
	Income   bool
}

func historyRows(txs []core.Transaction) []historyRow {
	rows := make([]historyRow, 0, len(txs))
	for _, t := range txs {
		sign := "-"
		if t.Type == core.Income {
			sign = "+"
		}
		rows = append(rows, historyRow{
			ID:       t.ID.String(),
			Category: t.Category,
			Amount:   sign + core.FormatMoney(t.Amount),
			Income:   t.Type == core.Income,
		})
	}
	return rows
}
