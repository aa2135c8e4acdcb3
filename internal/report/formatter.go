// Package report formats run results for terminal output.
package report

import (
	"fmt"
	"strings"

	"TrendBacktest/internal/model"

	"github.com/dustin/go-humanize"
)

// FormatSummary renders the final run summary.
func FormatSummary(s *model.Summary) string {
	var b strings.Builder
	b.WriteString("=== Backtest Summary ===\n")
	b.WriteString(fmt.Sprintf("Final balance:   %s\n", humanize.CommafWithDigits(s.FinalBalance, 2)))
	b.WriteString(fmt.Sprintf("Holdings value:  %s\n", humanize.CommafWithDigits(s.HoldingsValue, 2)))
	b.WriteString(fmt.Sprintf("Total assets:    %s\n", humanize.CommafWithDigits(s.TotalAssets, 2)))
	b.WriteString(fmt.Sprintf("Total profit:    %s (%+.2f%%)\n", humanize.CommafWithDigits(s.TotalProfit, 2), s.ReturnRate))
	b.WriteString(fmt.Sprintf("Transactions:    %d\n", s.TransactionCount))
	return b.String()
}

// FormatTransactions renders the transaction journal, one line per fill.
func FormatTransactions(txs []model.Transaction) string {
	if len(txs) == 0 {
		return "no transactions\n"
	}
	var b strings.Builder
	for _, tx := range txs {
		b.WriteString(FormatTransaction(&tx))
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatTransaction renders one fill.
func FormatTransaction(tx *model.Transaction) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %-4s %-10s qty %s @ %s fees %s",
		tx.Time.Format("2006-01-02 15:04"), tx.Type, tx.Symbol,
		humanize.Commaf(tx.Quantity),
		humanize.CommafWithDigits(tx.Price, 4),
		humanize.CommafWithDigits(tx.Fees, 2)))
	if tx.Type == model.TradeSell {
		b.WriteString(fmt.Sprintf(" profit %s (%s)", humanize.CommafWithDigits(tx.Profit, 2), tx.Reason))
	} else {
		if tx.GoldenCrossEntry {
			b.WriteString(" [golden entry]")
		}
		if tx.Pyramiding {
			b.WriteString(" [pyramiding]")
		}
	}
	return b.String()
}
