package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Conversion is the outcome of converting Amount from one currency to another.
type Conversion struct {
	From   string
	To     string
	Amount decimal.Decimal
	Rate   float64
	Result decimal.Decimal
}

// ConvertAmount multiplies amount by rate and rounds to cents, half away from zero.
func ConvertAmount(rate float64, amount decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(rate).Mul(amount).Round(2)
}

// Message describes the applied rate, e.g. "At 0.85 EUR per USD".
func (c Conversion) Message() string {
	return fmt.Sprintf("At %s %s per %s", decimal.NewFromFloat(c.Rate).String(), c.To, c.From)
}
