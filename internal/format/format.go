// Package format renders money, distances and durations the way the
// dashboard shows them to Chilean staff.
package format

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var clPrinter = message.NewPrinter(language.MustParse("es-CL"))

// CLP formats an amount of Chilean pesos, e.g. 14900 -> "$14.900".
func CLP(amount int64) string {
	if amount < 0 {
		return "-$" + clPrinter.Sprintf("%d", -amount)
	}
	return "$" + clPrinter.Sprintf("%d", amount)
}

// Km formats meters as kilometers with one decimal.
func Km(meters float64) string {
	return fmt.Sprintf("%.1f km", meters/1000)
}

// Duration formats seconds as minutes, or hours and minutes past the hour.
func Duration(seconds float64) string {
	m := int(math.Round(seconds / 60))
	if m < 60 {
		return fmt.Sprintf("%d min", m)
	}
	h, r := m/60, m%60
	if r == 0 {
		return fmt.Sprintf("%d h", h)
	}
	return fmt.Sprintf("%d h %d min", h, r)
}

// Countdown formats remaining seconds as mm:ss.
func Countdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
