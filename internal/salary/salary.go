// Package salary computes aircrew monthly income from a RateConfig: tiered block-hour pay,
// per diem withdrawn and exchanged into THB, and flat items.
package salary

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	// NormalHoursCap is the number of block hours paid at the normal rate.
	NormalHoursCap = 70.0
	// OTHoursCap is the number of block hours after NormalHoursCap paid at the OT rate.
	OTHoursCap = 10.0
)

// Line item categories, in breakdown order.
const (
	CategoryNormal            = "Block Hour (Normal 0-70h)"
	CategoryOT                = "Block Hour (OT 71-80h)"
	CategorySuperOT           = "Block Hour (Super OT >80h)"
	CategoryPerDiemBase       = "Per Diem Base (USD)"
	CategoryWithdrawal        = "Step 1: Withdrawal"
	CategoryExchange          = "Step 2: Exchange (THB)"
	CategoryBaseSalary        = "Base Salary"
	CategoryPositionAllowance = "Position Allowance"
	CategoryTransportation    = "Transportation"
)

// LineCount is the number of line items every Result carries.
const LineCount = 9

// Breakdown contains all intermediate values of the calculation.
type Breakdown struct {
	TotalBlockHours float64
	NormalHours     float64
	OTHours         float64
	SuperOTHours    float64

	IncomeNormal         float64
	IncomeOT             float64
	IncomeSuperOT        float64
	TotalBlockHourIncome float64

	P1Total float64
	P2Total float64
	// PerDiemBase is denominated in USD. The multipliers are assumed to produce USD; if they
	// ever stand for another currency the no-conversion withdrawal branch is wrong.
	PerDiemBase float64

	HoldingAmount   float64
	HoldingCurrency Currency
	PerDiemTHB      float64

	TransportIncome   float64
	BaseSalary        float64
	PositionAllowance float64
}

// Totals contains the headline figures.
type Totals struct {
	GrandTotalTHB   float64
	PerDiemTHB      float64
	HoldingAmount   float64
	HoldingCurrency Currency
}

// LineItem is one row of the breakdown.
type LineItem struct {
	Category string
	Detail   string
	Amount   string
	Value    float64
	Unit     Currency
}

// Result groups the full calculation output.
type Result struct {
	Breakdown Breakdown
	Totals    Totals
	Lines     []LineItem
}

// Calculate computes the breakdown for cfg. It has no side effects and the same cfg always
// yields the same Result. Minutes outside [0,59] or negative counts are a caller error; see
// RateConfig.Validate.
func Calculate(cfg RateConfig) Result {
	var b Breakdown

	b.TotalBlockHours = hoursAndMinutes(cfg.BHHours, cfg.BHMins)
	b.NormalHours, b.OTHours, b.SuperOTHours = splitBlockHours(b.TotalBlockHours)
	b.IncomeNormal = b.NormalHours * cfg.NormalRate
	b.IncomeOT = b.OTHours * cfg.OTRate
	b.IncomeSuperOT = b.SuperOTHours * cfg.SuperOTRate
	b.TotalBlockHourIncome = b.IncomeNormal + b.IncomeOT + b.IncomeSuperOT

	b.P1Total = hoursAndMinutes(cfg.P1Hours, cfg.P1Mins)
	b.P2Total = hoursAndMinutes(cfg.P2Hours, cfg.P2Mins)
	b.PerDiemBase = cfg.PerDiemEuroMult*b.P1Total + cfg.PerDiemOtherMult*b.P2Total

	w := withdraw(cfg, b.PerDiemBase)
	b.HoldingAmount = w.amount
	b.HoldingCurrency = w.currency
	x := exchange(cfg, w)
	b.PerDiemTHB = x.amount

	b.TransportIncome = float64(cfg.TransportTrips) * cfg.TransportRate
	b.BaseSalary = cfg.BaseSalary
	b.PositionAllowance = cfg.PositionAllowance

	grand := b.TotalBlockHourIncome + b.PerDiemTHB + b.BaseSalary + b.PositionAllowance + b.TransportIncome

	return Result{
		Breakdown: b,
		Totals: Totals{
			GrandTotalTHB:   grand,
			PerDiemTHB:      b.PerDiemTHB,
			HoldingAmount:   b.HoldingAmount,
			HoldingCurrency: b.HoldingCurrency,
		},
		Lines: lines(cfg, b, w.trace, x.trace),
	}
}

func hoursAndMinutes(hours, mins int) float64 {
	return float64(hours) + float64(mins)/60.0
}

// splitBlockHours partitions total into normal [0,70], OT (70,80] and super-OT (80,inf).
func splitBlockHours(total float64) (normal, ot, superOT float64) {
	normal = math.Min(total, NormalHoursCap)
	ot = math.Max(math.Min(total-NormalHoursCap, OTHoursCap), 0)
	superOT = math.Max(total-(NormalHoursCap+OTHoursCap), 0)
	return normal, ot, superOT
}

type conversion struct {
	amount   float64
	currency Currency
	trace    string
}

// withdraw models taking the USD per diem out of an ATM in the configured currency.
func withdraw(cfg RateConfig, base float64) conversion {
	switch cfg.WithdrawalCurrency {
	case TWD:
		amount := base * cfg.CathayRate
		return conversion{
			amount:   amount,
			currency: TWD,
			trace:    fmt.Sprintf("%s USD * %s (Cathay) = %s TWD", formatAmount(base), formatRate(cfg.CathayRate), formatAmount(amount)),
		}
	default:
		return conversion{
			amount:   base,
			currency: USD,
			trace:    fmt.Sprintf("%s USD (No conversion)", formatAmount(base)),
		}
	}
}

// exchange converts the withdrawn amount into THB at the rate for the holding currency.
func exchange(cfg RateConfig, held conversion) conversion {
	var rate float64
	switch held.currency {
	case TWD:
		rate = cfg.SuperrichRateTWD
	default:
		rate = cfg.SuperrichRateUSD
	}

	amount := held.amount * rate
	return conversion{
		amount:   amount,
		currency: THB,
		trace: fmt.Sprintf("%s %s * %s (SuperRich) = %s THB",
			formatAmount(held.amount), held.currency, formatRate(rate), formatAmount(amount)),
	}
}

func lines(cfg RateConfig, b Breakdown, withdrawalTrace, exchangeTrace string) []LineItem {
	return []LineItem{
		item(CategoryNormal, hoursAtRate(b.NormalHours, cfg.NormalRate), b.IncomeNormal, THB),
		item(CategoryOT, hoursAtRate(b.OTHours, cfg.OTRate), b.IncomeOT, THB),
		item(CategorySuperOT, hoursAtRate(b.SuperOTHours, cfg.SuperOTRate), b.IncomeSuperOT, THB),
		item(CategoryPerDiemBase,
			fmt.Sprintf("%.2f hrs * %s + %.2f hrs * %s",
				b.P1Total, formatRate(cfg.PerDiemEuroMult), b.P2Total, formatRate(cfg.PerDiemOtherMult)),
			b.PerDiemBase, USD),
		item(CategoryWithdrawal, withdrawalTrace, b.HoldingAmount, b.HoldingCurrency),
		item(CategoryExchange, exchangeTrace, b.PerDiemTHB, THB),
		item(CategoryBaseSalary, "Flat Rate", b.BaseSalary, THB),
		item(CategoryPositionAllowance, "Flat Rate", b.PositionAllowance, THB),
		item(CategoryTransportation,
			fmt.Sprintf("%d trips @ %s THB", cfg.TransportTrips, formatRate(cfg.TransportRate)),
			b.TransportIncome, THB),
	}
}

func item(category, detail string, value float64, unit Currency) LineItem {
	return LineItem{
		Category: category,
		Detail:   detail,
		Amount:   FormatMoney(value, unit),
		Value:    value,
		Unit:     unit,
	}
}

func hoursAtRate(hours, rate float64) string {
	return fmt.Sprintf("%.2f hrs @ %s THB", hours, formatRate(rate))
}

// FormatMoney renders value with thousands separators, two decimals and its unit.
func FormatMoney(value float64, unit Currency) string {
	return formatAmount(value) + " " + string(unit)
}

// formatAmount rounds half away from zero to two places and groups thousands with commas.
func formatAmount(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	fixed := decimal.NewFromFloat(value).StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + fixed
	}
	return sign + humanize.Comma(n) + "." + frac
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}
