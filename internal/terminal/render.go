// Package terminal renders a dashboard view for the summary command.
package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"wealthflow/internal/core"
	"wealthflow/internal/dashboard"
)

const barWidth = 24

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6366f1"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475a")).
			Padding(0, 1).
			Width(22)
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
)

// Render draws summary cards, the running balance, the expense
// breakdown and the filtered history.
func Render(v dashboard.View) string {
	if !v.Loaded() {
		return mutedStyle.Render("No data loaded from the ledger.") + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("WealthFlow") + "\n")
	b.WriteString(renderCards(v) + "\n")

	b.WriteString(titleStyle.Render("Net Worth Trend") + "\n")
	b.WriteString(renderSeries(v.Series) + "\n")

	b.WriteString(titleStyle.Render("Expense Breakdown") + "\n")
	b.WriteString(renderBreakdown(v.Categories) + "\n")

	heading := "History"
	if v.Filter != "" {
		heading += fmt.Sprintf(" (filter %q)", v.Filter)
	}
	b.WriteString(titleStyle.Render(heading) + "\n")
	b.WriteString(renderHistory(v.Filtered))
	return b.String()
}

func renderCards(v dashboard.View) string {
	income := cardStyle.Render(
		labelStyle.Render("Revenue") + "  " + goodStyle.Render(fmt.Sprintf("↑ %.1f%%", v.Growth.IncomePct)) + "\n" +
			core.FormatMoney(v.Summary.TotalIncome))
	expense := cardStyle.Render(
		labelStyle.Render("Outflow") + "  " + badStyle.Render(fmt.Sprintf("↑ %.1f%%", v.Growth.ExpensePct)) + "\n" +
			core.FormatMoney(v.Summary.TotalExpenses))
	net := cardStyle.Render(labelStyle.Render("Net Balance") + "\n" + core.FormatMoney(v.Summary.NetBalance))
	return lipgloss.JoinHorizontal(lipgloss.Top, income, expense, net)
}

func renderSeries(series []core.BalancePoint) string {
	if len(series) == 0 {
		return mutedStyle.Render("No transactions yet") + "\n"
	}
	var b strings.Builder
	for _, p := range series {
		style := goodStyle
		if p.Balance.IsNegative() {
			style = badStyle
		}
		fmt.Fprintf(&b, "  %-16s %s\n", truncate(p.Category, 16), style.Render(core.FormatMoney(p.Balance)))
	}
	return b.String()
}

func renderBreakdown(categories []core.CategoryTotal) string {
	total := decimal.Zero
	for _, c := range categories {
		total = total.Add(c.Value)
	}
	if !total.IsPositive() {
		return mutedStyle.Render("No expenses recorded") + "\n"
	}

	var b strings.Builder
	for i, c := range categories {
		frac := c.Value.Div(total).InexactFloat64()
		n := int(frac*barWidth + 0.5)
		if n == 0 {
			n = 1
		}
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(core.Palette[i%len(core.Palette)])).Render(strings.Repeat("█", n))
		fmt.Fprintf(&b, "  %-16s %s %s %5.1f%%\n", truncate(c.Name, 16), bar, core.FormatMoney(c.Value), frac*100)
	}
	return b.String()
}

func renderHistory(txs []core.Transaction) string {
	if len(txs) == 0 {
		return mutedStyle.Render("No transactions match") + "\n"
	}
	var b strings.Builder
	for _, t := range txs {
		amount := badStyle.Render("-" + core.FormatMoney(t.Amount))
		if t.Type == core.Income {
			amount = goodStyle.Render("+" + core.FormatMoney(t.Amount))
		}
		fmt.Fprintf(&b, "  %-6s %-16s %s\n", truncate(t.ID.String(), 6), truncate(t.Category, 16), amount)
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
