package detection

import (
	"strconv"
	"strings"
	"time"
)

// monthAbbreviations maps lower-case three-letter month names to months
var monthAbbreviations = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseMonth accepts a numeric month ("03", "3") or a three-letter
// abbreviation in any case ("Mar", "MAR").
func ParseMonth(s string) (time.Month, bool) {
	s = strings.TrimSpace(s)
	if m, ok := monthAbbreviations[strings.ToLower(s)]; ok {
		return m, true
	}
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 12 {
		return 0, false
	}
	return time.Month(n), true
}

// MonthAbbrev returns the three-letter English abbreviation, e.g. "Mar"
func MonthAbbrev(m time.Month) string {
	return m.String()[:3]
}
