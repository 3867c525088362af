package oddsmath

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MalformedPriceError reports a quoted price that cannot be read as American odds.
type MalformedPriceError struct {
	Raw    string
	Reason string
}

func (e *MalformedPriceError) Error() string {
	return fmt.Sprintf("malformed price %q: %s", e.Raw, e.Reason)
}

// NewMalformedPriceError creates a new malformed price error
func NewMalformedPriceError(raw, reason string) *MalformedPriceError {
	return &MalformedPriceError{Raw: raw, Reason: reason}
}

// MaxAmericanMagnitude bounds a readable American price.
const MaxAmericanMagnitude = 100000

var (
	hundred      = decimal.NewFromInt(100)
	maxMagnitude = decimal.NewFromInt(MaxAmericanMagnitude)
)

// ParseAmerican reads a quoted American price such as "+150", "-110", "150",
// "150.0" or "EVEN".
func ParseAmerican(raw string) (int, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0, NewMalformedPriceError(raw, "empty")
	}
	switch strings.ToUpper(text) {
	case "EVEN", "EV", "EVS":
		return 100, nil
	}
	text = strings.TrimPrefix(text, "+")

	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, NewMalformedPriceError(raw, "not a number")
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, NewMalformedPriceError(raw, "fractional American price")
	}
	if d.Abs().LessThan(hundred) {
		return 0, NewMalformedPriceError(raw, "magnitude below 100")
	}
	if d.Abs().GreaterThan(maxMagnitude) {
		return 0, NewMalformedPriceError(raw, fmt.Sprintf("magnitude above %d", MaxAmericanMagnitude))
	}
	return int(d.IntPart()), nil
}

// ParlayDecimal multiplies the decimal odds of each American price exactly.
func ParlayDecimal(prices []int) (decimal.Decimal, error) {
	product := decimal.NewFromInt(1)
	for _, price := range prices {
		var leg decimal.Decimal
		switch {
		case price >= 100:
			leg = decimal.NewFromInt(int64(price)).Div(hundred).Add(decimal.NewFromInt(1))
		case price <= -100:
			leg = hundred.Div(decimal.NewFromInt(int64(-price))).Add(decimal.NewFromInt(1))
		default:
			return decimal.Zero, NewMalformedPriceError(fmt.Sprint(price), "magnitude below 100")
		}
		product = product.Mul(leg)
	}
	return product, nil
}
