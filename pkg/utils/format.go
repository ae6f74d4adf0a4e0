// Package utils provides display helpers shared by the CLI and API.
package utils

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatFiat formats amount in the given fiat, e.g. "$ 63,210.55".
// Sub-unit prices keep up to six decimals. Unknown codes fall back to
// the upper-cased code as the symbol.
func FormatFiat(amount float64, code string) string {
	sym, scale := fiatSymbol(code)
	if a := math.Abs(amount); a > 0 && a < 1 {
		scale = 6
	}
	return sym + " " + printer.Sprintf("%.*f", scale, amount)
}

// FormatFiatCompact formats large amounts with K/M/B/T suffixes,
// e.g. "$ 2.41T". Used for market cap and volume.
func FormatFiatCompact(amount float64, code string) string {
	sym, _ := fiatSymbol(code)
	negative := amount < 0
	a := math.Abs(amount)

	var s string
	switch {
	case a >= 1e12:
		s = formatWithDecimals(a/1e12) + "T"
	case a >= 1e9:
		s = formatWithDecimals(a/1e9) + "B"
	case a >= 1e6:
		s = formatWithDecimals(a/1e6) + "M"
	case a >= 1e3:
		s = formatWithDecimals(a/1e3) + "K"
	default:
		s = fmt.Sprintf("%.2f", a)
	}
	if negative {
		s = "-" + s
	}
	return sym + " " + s
}

func fiatSymbol(code string) (string, int) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return strings.ToUpper(code), 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return printer.Sprint(currency.NarrowSymbol(unit)), scale
}

// formatWithDecimals drops trailing zeros, keeping at most 2 decimals.
func formatWithDecimals(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// FormatPct formats a percentage change with sign, e.g. "+2.45%".
func FormatPct(pct float64) string {
	return fmt.Sprintf("%+.2f%%", pct)
}

// FormatPctPtr is FormatPct for optional values; nil renders as "n/a".
func FormatPctPtr(pct *float64) string {
	if pct == nil {
		return "n/a"
	}
	return FormatPct(*pct)
}
