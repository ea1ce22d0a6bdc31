package store

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var groupPrinter = message.NewPrinter(language.English)

// FormatPrice renders a price with its unit. Millions and thousands are
// scaled to one decimal, sub-unit prices get three decimals, everything else
// is a thousands-grouped integer.
func FormatPrice(value float64, unit string) string {
	var text string
	switch {
	case value >= 1_000_000:
		text = decimal.NewFromFloat(value/1_000_000).StringFixed(1) + "M"
	case value >= 1_000:
		text = decimal.NewFromFloat(value/1_000).StringFixed(1) + "K"
	case value < 1:
		text = decimal.NewFromFloat(value).StringFixed(3)
	default:
		text = groupPrinter.Sprintf("%d", int64(math.Round(value)))
	}
	if unit == "" {
		return text
	}
	return text + " " + unit
}

// FormatPercentChange renders a signed percentage. Only strictly positive
// values get a "+" prefix.
func FormatPercentChange(value float64) string {
	text := strconv.FormatFloat(value, 'f', -1, 64)
	if value == 0 {
		text = "0"
	}
	if value > 0 {
		text = "+" + text
	}
	return text + "%"
}
