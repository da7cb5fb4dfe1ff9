package notify

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/stockrobo/stockrobo/internal/backtest"
	"github.com/stockrobo/stockrobo/internal/scanner"
	"github.com/stockrobo/stockrobo/pkg/types"
)

// PrintScanReport renders a scan sweep as console tables.
func PrintScanReport(w io.Writer, results *scanner.Results) {
	fmt.Fprintf(w, "\nScan results: %d symbols, %d buys, %d sells, %d heavy drops\n\n",
		len(results.Symbols), len(results.BuySignals), len(results.SellSignals), len(results.HeavyDrops))

	printSignalTable(w, "BUY SIGNALS", results.BuySignals)
	printSignalTable(w, "SELL SIGNALS", results.SellSignals)
	printSignalTable(w, "HEAVY DROPS", results.HeavyDrops)
}

func printSignalTable(w io.Writer, heading string, signals []types.Signal) {
	if len(signals) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", heading)

	table := tablewriter.NewWriter(w)
	table.Header("Symbol", "Price", "Change%", "Color")
	for _, s := range signals {
		color := ""
		if s.Trend != nil {
			color = string(s.Trend.Color)
		}
		table.Append(
			s.Symbol,
			fmt.Sprintf("%.2f", s.Price),
			fmt.Sprintf("%+.2f", s.ChangePct),
			color,
		)
	}
	table.Render()
	fmt.Fprintln(w)
}

// PrintBacktestReport renders per-symbol backtest results with win rates.
func PrintBacktestReport(w io.Writer, results []*backtest.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No backtest results.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("Symbol", "Strategy", "Trades", "Win Rate", "Return%", "Final Value")
	for _, r := range results {
		table.Append(
			r.Symbol,
			r.Strategy,
			fmt.Sprintf("%d", len(r.Trades)),
			fmt.Sprintf("%.1f%%", r.WinRate()),
			fmt.Sprintf("%+.2f", r.ReturnPct.InexactFloat64()),
			r.FinalValue.StringFixed(2),
		)
	}
	table.Render()
}

// PrintOrderReport renders generated order tickets.
func PrintOrderReport(w io.Writer, orders []types.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No orders.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Symbol", "Action", "Qty", "Type", "Limit", "Status")
	for _, o := range orders {
		limit := "-"
		if o.LimitPrice != nil {
			limit = fmt.Sprintf("%.2f", *o.LimitPrice)
		}
		table.Append(
			o.OrderID,
			o.Symbol,
			string(o.Action),
			fmt.Sprintf("%d", o.Quantity),
			string(o.OrderType),
			limit,
			string(o.Status),
		)
	}
	table.Render()
}
