package pricing

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ConvertToLocale renders a minor-unit amount as a localized currency string.
// The function is pure: the same (amount, currency, locale) input always
// yields the same output. Unknown currency codes fall back to a plain
// "CODE 12.34" rendering so the function stays total.
func ConvertToLocale(amount int64, currencyCode, locale string) string {
	if amount < 0 {
		amount = 0
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return fmt.Sprintf("%s %.2f", strings.ToUpper(strings.TrimSpace(currencyCode)), float64(amount)/100)
	}
	scale, _ := currency.Cash.Rounding(unit)
	major := float64(amount) / math.Pow10(scale)
	printer := message.NewPrinter(language.Make(locale))
	return printer.Sprint(currency.Symbol(unit.Amount(major)))
}

// PercentageDiff returns the whole percentage the calculated amount sits
// below the original. It is 0 when the original is absent or non-positive and
// when the calculated amount is not lower; the display layer treats both as
// "no discount".
func PercentageDiff(original, calculated int64) int {
	if original <= 0 || calculated >= original {
		return 0
	}
	return int(math.Round(float64(original-calculated) / float64(original) * 100))
}

// View is display-ready pricing for an amount, optionally paired with the
// pre-discount original.
type View struct {
	CalculatedAmount int64  `json:"calculatedAmount"`
	CalculatedPrice  string `json:"calculatedPrice"`
	OriginalAmount   *int64 `json:"originalAmount,omitempty"`
	OriginalPrice    string `json:"originalPrice,omitempty"`
	CurrencyCode     string `json:"currencyCode"`
	PercentageDiff   int    `json:"percentageDiff"`
}

// NewView assembles a View for the given amounts, currency, and locale.
func NewView(calculated int64, original *int64, currencyCode, locale string) View {
	v := View{
		CalculatedAmount: calculated,
		CalculatedPrice:  ConvertToLocale(calculated, currencyCode, locale),
		CurrencyCode:     currencyCode,
	}
	if original != nil {
		v.OriginalAmount = original
		v.OriginalPrice = ConvertToLocale(*original, currencyCode, locale)
		v.PercentageDiff = PercentageDiff(*original, calculated)
	}
	return v
}
