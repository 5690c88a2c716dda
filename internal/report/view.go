package report

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/crewpay/internal/salary"
)

// View is the JSON shape of a Result. Money and hours are fixed two-decimal strings so
// clients never see binary float artefacts.
type View struct {
	Lines     []LineView    `json:"lines"`
	Totals    TotalsView    `json:"totals"`
	Breakdown BreakdownView `json:"breakdown"`
}

// LineView is one breakdown line.
type LineView struct {
	Category string `json:"category"`
	Detail   string `json:"detail"`
	Amount   string `json:"amount"`
	Value    string `json:"value"`
	Unit     string `json:"unit"`
}

// TotalsView holds the headline figures.
type TotalsView struct {
	GrandTotalTHB   string `json:"grand_total_thb"`
	PerDiemTHB      string `json:"per_diem_thb"`
	HoldingAmount   string `json:"holding_amount"`
	HoldingCurrency string `json:"holding_currency"`
}

// BreakdownView holds the intermediate hours and amounts.
type BreakdownView struct {
	TotalBlockHours      string `json:"total_block_hours"`
	NormalHours          string `json:"normal_hours"`
	OTHours              string `json:"ot_hours"`
	SuperOTHours         string `json:"super_ot_hours"`
	IncomeNormal         string `json:"income_normal"`
	IncomeOT             string `json:"income_ot"`
	IncomeSuperOT        string `json:"income_super_ot"`
	TotalBlockHourIncome string `json:"total_block_hour_income"`
	P1Total              string `json:"p1_total_hours"`
	P2Total              string `json:"p2_total_hours"`
	PerDiemBaseUSD       string `json:"per_diem_base_usd"`
	TransportIncome      string `json:"transport_income"`
	BaseSalary           string `json:"base_salary"`
	PositionAllowance    string `json:"position_allowance"`
}

// NewView converts res into its JSON shape.
func NewView(res salary.Result) View {
	lines := make([]LineView, 0, len(res.Lines))
	for _, l := range res.Lines {
		lines = append(lines, LineView{
			Category: l.Category,
			Detail:   l.Detail,
			Amount:   l.Amount,
			Value:    fixed(l.Value),
			Unit:     string(l.Unit),
		})
	}

	b := res.Breakdown
	return View{
		Lines: lines,
		Totals: TotalsView{
			GrandTotalTHB:   fixed(res.Totals.GrandTotalTHB),
			PerDiemTHB:      fixed(res.Totals.PerDiemTHB),
			HoldingAmount:   fixed(res.Totals.HoldingAmount),
			HoldingCurrency: string(res.Totals.HoldingCurrency),
		},
		Breakdown: BreakdownView{
			TotalBlockHours:      fixed(b.TotalBlockHours),
			NormalHours:          fixed(b.NormalHours),
			OTHours:              fixed(b.OTHours),
			SuperOTHours:         fixed(b.SuperOTHours),
			IncomeNormal:         fixed(b.IncomeNormal),
			IncomeOT:             fixed(b.IncomeOT),
			IncomeSuperOT:        fixed(b.IncomeSuperOT),
			TotalBlockHourIncome: fixed(b.TotalBlockHourIncome),
			P1Total:              fixed(b.P1Total),
			P2Total:              fixed(b.P2Total),
			PerDiemBaseUSD:       fixed(b.PerDiemBase),
			TransportIncome:      fixed(b.TransportIncome),
			BaseSalary:           fixed(b.BaseSalary),
			PositionAllowance:    fixed(b.PositionAllowance),
		},
	}
}

func fixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}
