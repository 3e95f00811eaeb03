// Package format renders amounts for human-readable output.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Yen returns a whole-yen string with a currency sign and thousands
// separators (e.g., "-¥1,234,567").
func Yen(amount float64) string {
	formatted := Number(math.Abs(amount))
	if math.Round(amount) < 0 {
		return "-¥" + formatted
	}
	return "¥" + formatted
}

// Number returns amount rounded to whole units with thousands separators
// (e.g., "-1,234,567").
func Number(amount float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d", int64(math.Round(amount)))
}

// Percent renders a decimal ratio as a percentage with two places.
func Percent(ratio float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%.2f%%", ratio*100)
}
