package salary

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Currency identifies the unit an amount is denominated in.
type Currency string

const (
	USD Currency = "USD"
	TWD Currency = "TWD"
	THB Currency = "THB"
)

// ErrInvalidCurrency is returned when a withdrawal currency is neither USD nor TWD.
var ErrInvalidCurrency = errors.New("withdrawal currency must be USD or TWD")

// ParseWithdrawalCurrency accepts exactly the two currencies per diem can be withdrawn in.
func ParseWithdrawalCurrency(raw string) (Currency, error) {
	switch normalizeCurrency(raw) {
	case USD:
		return USD, nil
	case TWD:
		return TWD, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, raw)
	}
}

// UnmarshalText trims and upper-cases the code.
func (c *Currency) UnmarshalText(text []byte) error {
	*c = normalizeCurrency(string(text))
	return nil
}

func normalizeCurrency(raw string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(raw)))
}

// IsWithdrawal reports whether c is a valid withdrawal currency.
func (c Currency) IsWithdrawal() bool {
	return c == USD || c == TWD
}

// RateConfig is the complete input state for one calculation: configured rates plus the raw
// time and quantity inputs for the period.
type RateConfig struct {
	// ExchangeRate is kept as a configured rate but no formula consumes it.
	ExchangeRate float64 `json:"exchange_rate"`

	NormalRate  float64 `json:"normal_rate"`
	OTRate      float64 `json:"ot_rate"`
	SuperOTRate float64 `json:"super_ot_rate"`

	PerDiemEuroMult  float64 `json:"per_diem_euro_mult"`
	PerDiemOtherMult float64 `json:"per_diem_other_mult"`

	WithdrawalCurrency Currency `json:"withdrawal_currency"`
	CathayRate         float64  `json:"cathay_rate"`
	SuperrichRateUSD   float64  `json:"superrich_rate_usd"`
	SuperrichRateTWD   float64  `json:"superrich_rate_twd"`

	TransportRate  float64 `json:"transport_rate"`
	TransportTrips int     `json:"transport_trips"`

	BHHours int `json:"bh_hours"`
	BHMins  int `json:"bh_mins"`
	P1Hours int `json:"p1_hours"`
	P1Mins  int `json:"p1_mins"`
	P2Hours int `json:"p2_hours"`
	P2Mins  int `json:"p2_mins"`

	BaseSalary        float64 `json:"base_salary"`
	PositionAllowance float64 `json:"position_allowance"`
}

// DefaultRateConfig returns the values a freshly created profile starts with.
func DefaultRateConfig() RateConfig {
	return RateConfig{
		ExchangeRate:       1.0,
		NormalRate:         120,
		OTRate:             300,
		SuperOTRate:        420,
		PerDiemEuroMult:    4.0,
		PerDiemOtherMult:   3.5,
		WithdrawalCurrency: USD,
		CathayRate:         31.6,
		SuperrichRateUSD:   34.0,
		SuperrichRateTWD:   1.05,
		TransportRate:      700,
		TransportTrips:     6,
		BHHours:            89,
		BHMins:             38,
		P1Hours:            175,
		P1Mins:             43,
		P2Hours:            158,
		P2Mins:             37,
		BaseSalary:         16000,
		PositionAllowance:  1000,
	}
}

// DecodeRateConfig decodes a stored config on top of the defaults, so fields missing from the
// document keep their default values and unknown fields are ignored.
func DecodeRateConfig(data []byte) (RateConfig, error) {
	cfg := DefaultRateConfig()
	if len(data) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultRateConfig(), fmt.Errorf("decode rate config: %w", err)
	}
	if !cfg.WithdrawalCurrency.IsWithdrawal() {
		return DefaultRateConfig(), fmt.Errorf("decode rate config: %w: %q", ErrInvalidCurrency, cfg.WithdrawalCurrency)
	}
	return cfg, nil
}

// FieldError describes one out-of-range input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + " " + e.Message
}

// ValidationError lists every field of a RateConfig that violates its range.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return "invalid rate config: " + strings.Join(msgs, "; ")
}

// Validate checks the numeric-range constraints input collection must enforce before Calculate
// is called. It returns a *ValidationError or nil.
func (c RateConfig) Validate() error {
	var fields []FieldError

	rates := []struct {
		name  string
		value float64
	}{
		{"exchange_rate", c.ExchangeRate},
		{"normal_rate", c.NormalRate},
		{"ot_rate", c.OTRate},
		{"super_ot_rate", c.SuperOTRate},
		{"per_diem_euro_mult", c.PerDiemEuroMult},
		{"per_diem_other_mult", c.PerDiemOtherMult},
		{"cathay_rate", c.CathayRate},
		{"superrich_rate_usd", c.SuperrichRateUSD},
		{"superrich_rate_twd", c.SuperrichRateTWD},
		{"transport_rate", c.TransportRate},
		{"base_salary", c.BaseSalary},
		{"position_allowance", c.PositionAllowance},
	}
	for _, r := range rates {
		switch {
		case math.IsNaN(r.value) || math.IsInf(r.value, 0):
			fields = append(fields, FieldError{r.name, "must be a finite number"})
		case r.value < 0:
			fields = append(fields, FieldError{r.name, "must be greater than or equal to 0"})
		}
	}

	counts := []struct {
		name  string
		value int
	}{
		{"transport_trips", c.TransportTrips},
		{"bh_hours", c.BHHours},
		{"p1_hours", c.P1Hours},
		{"p2_hours", c.P2Hours},
	}
	for _, n := range counts {
		if n.value < 0 {
			fields = append(fields, FieldError{n.name, "must be greater than or equal to 0"})
		}
	}

	minutes := []struct {
		name  string
		value int
	}{
		{"bh_mins", c.BHMins},
		{"p1_mins", c.P1Mins},
		{"p2_mins", c.P2Mins},
	}
	for _, m := range minutes {
		if m.value < 0 || m.value > 59 {
			fields = append(fields, FieldError{m.name, "must be between 0 and 59"})
		}
	}

	if !c.WithdrawalCurrency.IsWithdrawal() {
		fields = append(fields, FieldError{"withdrawal_currency", "must be USD or TWD"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
