// Package report renders a salary.Result for people and other programs: a plain-text
// breakdown, a PNG chart of income composition and a JSON view with decimal money values.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Simplici0/crewpay/internal/salary"
)

// WriteText writes the nine breakdown lines followed by the per diem and grand totals.
func WriteText(w io.Writer, title string, res salary.Result) error {
	var b strings.Builder

	title = strings.TrimSpace(title)
	if title == "" {
		title = "Salary breakdown"
	}
	fmt.Fprintf(&b, "%s\n%s\n\n", title, strings.Repeat("=", len([]rune(title))))

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, line := range res.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", line.Category, line.Detail, line.Amount)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("format breakdown lines: %w", err)
	}

	t := res.Totals
	fmt.Fprintf(&b, "\nPer diem held: %s\n", salary.FormatMoney(t.HoldingAmount, t.HoldingCurrency))
	fmt.Fprintf(&b, "Per diem in THB: %s\n", salary.FormatMoney(t.PerDiemTHB, salary.THB))
	fmt.Fprintf(&b, "Grand total: %s\n", salary.FormatMoney(t.GrandTotalTHB, salary.THB))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write breakdown: %w", err)
	}
	return nil
}
