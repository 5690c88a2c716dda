package report

import (
	"errors"
	"fmt"

	"github.com/go-analyze/charts"

	"github.com/Simplici0/crewpay/internal/salary"
)

// ErrNothingToChart is returned when every income component is zero.
var ErrNothingToChart = errors.New("no income to chart")

// Component is one slice of the grand total, in THB.
type Component struct {
	Name  string
	Value float64
}

// Components splits the grand total into its five THB parts. Zero parts are omitted.
func Components(res salary.Result) []Component {
	b := res.Breakdown
	all := []Component{
		{"Block hours", b.TotalBlockHourIncome},
		{"Per diem", b.PerDiemTHB},
		{"Base salary", b.BaseSalary},
		{"Position allowance", b.PositionAllowance},
		{"Transportation", b.TransportIncome},
	}

	out := make([]Component, 0, len(all))
	for _, c := range all {
		if c.Value > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Chart renders the income composition as a PNG pie chart.
func Chart(res salary.Result) ([]byte, error) {
	parts := Components(res)
	if len(parts) == 0 {
		return nil, ErrNothingToChart
	}

	values := make([]float64, len(parts))
	names := make([]string, len(parts))
	for i, c := range parts {
		values[i] = c.Value
		names[i] = c.Name
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: "Monthly income " + salary.FormatMoney(res.Totals.GrandTotalTHB, salary.THB),
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf, nil
}
