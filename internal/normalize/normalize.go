// Package normalize turns raw statement cells and period labels into numbers and fiscal years.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	parenthesized = regexp.MustCompile(`\((.*)\)`)
	yearToken     = regexp.MustCompile(`(20\d{2})`)

	cellReplacer = strings.NewReplacer(
		",", "",
		"—", "", // em dash
		"–", "", // en dash
		"$", "",
	)
)

// CleanNumeric parses SEC-formatted cell text: "1,234" → 1234, "(123)" → -123,
// currency symbols and dashes removed. Unparseable or non-finite input yields NaN.
func CleanNumeric(raw string) float64 {
	s := parenthesized.ReplaceAllString(raw, "-$1")
	s = strings.TrimSpace(cellReplacer.Replace(s))
	if s == "" {
		return math.NaN()
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// ColumnToYear maps a period label to a fiscal year.
// Date parsing is tried first; otherwise the first 20xx token is used.
func ColumnToYear(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0, false
	}

	if t, err := dateparse.ParseIn(label, time.UTC); err == nil {
		if y := t.Year(); y >= 1900 && y <= 2100 {
			return y, true
		}
	}

	if m := yearToken.FindStringSubmatch(label); m != nil {
		y, err := strconv.Atoi(m[1])
		if err == nil {
			return y, true
		}
	}
	return 0, false
}

// IsMissing reports whether v represents an absent value
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}
