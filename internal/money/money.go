// Package money formats amounts and effort for display. Values are only rounded here,
// never in the pricing core.
package money

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const symbol = "£"

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Format renders a whole-pound amount, e.g. £1,023.
func Format(amount float64) string {
	return format(amount, 0)
}

// FormatExact renders an amount in pounds and pence, e.g. £1,022.73.
func FormatExact(amount float64) string {
	return format(amount, 2)
}

func format(amount float64, places int32) string {
	d := decimal.NewFromFloat(amount).Round(places)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(symbol)
	b.WriteString(humanize.Comma(d.IntPart()))
	if places > 0 {
		fixed := d.StringFixed(places)
		b.WriteString(fixed[strings.IndexByte(fixed, '.'):])
	}
	return b.String()
}

// FormatPercent renders a fraction as a whole percentage: 0.3 becomes "30%".
func FormatPercent(fraction float64) string {
	return decimal.NewFromFloat(fraction).Mul(decimal.NewFromInt(100)).Round(0).String() + "%"
}

// FormatMargin renders a percentage with one decimal place: 20 becomes "20.0%".
func FormatMargin(pct float64) string {
	return decimal.NewFromFloat(pct).StringFixed(1) + "%"
}

// FormatDays renders a day or hour count: blank for zero, whole numbers as is, otherwise
// one decimal place.
func FormatDays(v float64) string {
	if v == 0 {
		return ""
	}
	d := decimal.NewFromFloat(v)
	if d.IsInteger() {
		return d.String()
	}
	return d.StringFixed(1)
}

// FormatDayRange renders a typical effort range such as "1-2 days".
func FormatDayRange(lo, hi *float64) string {
	switch {
	case lo == nil && hi == nil:
		return "Variable"
	case lo == nil:
		return "up to " + plural(*hi)
	case hi == nil:
		return "from " + plural(*lo)
	case *lo == *hi:
		return plural(*lo)
	}
	return decimal.NewFromFloat(*lo).String() + "-" + decimal.NewFromFloat(*hi).String() + " days"
}

func plural(days float64) string {
	s := decimal.NewFromFloat(days).String()
	if days == 1 {
		return s + " day"
	}
	return s + " days"
}

var roleAbbreviations = map[string]string{
	"Founder/Technical Director": "Founder",
	"Senior Developer":           "Sr Dev",
	"Project Manager":            "PM",
	"Senior Designer":            "Sr Design",
	"Mid-Level Designer":         "Mid Design",
	"Account Manager":            "AM",
	"Mid-Level Developer":        "Mid Dev",
}

// AbbreviateRole shortens a role title for compact column headers.
func AbbreviateRole(title string) string {
	if short, ok := roleAbbreviations[title]; ok {
		return short
	}
	if first, _, found := strings.Cut(title, " "); found {
		return first
	}
	return title
}
