package types

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money renders a decimal amount as a fixed two-place JSON string ("500.00").
type Money struct {
	decimal.Decimal
}

// NewMoney rounds d half away from zero to cents.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

// MoneyPtr converts an optional amount.
func MoneyPtr(d *decimal.Decimal) *Money {
	if d == nil {
		return nil
	}
	m := NewMoney(*d)
	return &m
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.StringFixed(2))
}

// UnmarshalJSON accepts both "12.50" and 12.5.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var (
		d   decimal.Decimal
		err error
	)
	switch v := raw.(type) {
	case string:
		d, err = decimal.NewFromString(v)
	case float64:
		d = decimal.NewFromFloat(v)
	default:
		return fmt.Errorf("money: unsupported json value %s", string(data))
	}
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	m.Decimal = d
	return nil
}
