package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrInvalidPrice is returned when a locale formatted price cannot be parsed.
var ErrInvalidPrice = errors.New("invalid price")

// Locale is the fixed display locale of the storefront.
var Locale = language.BrazilianPortuguese

// CurrencySymbol prefixes formatted prices in the view.
const CurrencySymbol = "R$"

const decimalSeparator = ","

// ParseLocalePrice converts a pt-BR price string such as "1.509,99" into minor
// units. The first "." is dropped as the thousands separator and the first ","
// becomes the decimal point; anything that is not then a plain decimal with
// at most two fraction digits is rejected.
func ParseLocalePrice(raw string) (Money, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty value: %w", ErrInvalidPrice)
	}
	s = strings.Replace(s, ".", "", 1)
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, ErrInvalidPrice)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative value %q: %w", raw, ErrInvalidPrice)
	}
	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("more than two fraction digits in %q: %w", raw, ErrInvalidPrice)
	}
	if minor.GreaterThan(decimal.NewFromInt(MaxUnitPrice)) {
		return 0, fmt.Errorf("%q above maximum price: %w", raw, ErrInvalidPrice)
	}
	return minor.IntPart(), nil
}

// Format renders minor units using the storefront locale, e.g. 150999 => "1.509,99".
// The integer part is grouped by the locale printer and the centavos are
// appended as digits, so no value goes through a float.
func Format(m Money) string {
	units, cents := m/100, m%100
	sign := ""
	if m < 0 {
		sign = "-"
		units, cents = -units, -cents
	}
	p := message.NewPrinter(Locale)
	return fmt.Sprintf("%s%s%s%02d", sign, p.Sprint(number.Decimal(units)), decimalSeparator, cents)
}

// FormatWithSymbol renders m prefixed with the currency symbol.
func FormatWithSymbol(m Money) string {
	return CurrencySymbol + " " + Format(m)
}

// Installment splits total into n equal payments rounded to the centavo.
func Installment(total Money, n int) Money {
	if n <= 0 {
		return 0
	}
	return decimal.NewFromInt(total).
		Div(decimal.NewFromInt(int64(n))).
		Round(0).
		IntPart()
}
