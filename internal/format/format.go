package format

import (
	"html"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var yenPrinter = message.NewPrinter(language.Japanese)

// Price formats a yen amount without fraction digits.
// Example: Price(12345.4) => "¥12,345"
func Price(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	n := int64(math.Round(amount))
	if n < 0 {
		return "-¥" + yenPrinter.Sprintf("%d", -n)
	}
	return "¥" + yenPrinter.Sprintf("%d", n)
}

// Truncate shortens text to at most max runes, replacing the tail with "...".
func Truncate(text string, max int) string {
	runes := []rune(text)
	if text == "" || len(runes) <= max {
		return text
	}
	cut := max - 3
	if cut < 0 {
		cut = 0
	}
	return string(runes[:cut]) + "..."
}

// EscapeHTML escapes the five HTML special characters.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// Date formats time in a locale-friendly short form.
func Date(t time.Time, lang string) string {
	switch strings.ToLower(lang) {
	case "ja":
		return t.Format("2006-01-02 15:04")
	default:
		return t.Format("Jan 2, 2006 15:04")
	}
}

// UnixMilli converts a millisecond timestamp back to local time.
func UnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).In(time.Local)
}
