package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	CanonicalLayout = "2006-01-02"
	DisplayLayout   = "02/01/2006"
)

var (
	formCodePattern    = regexp.MustCompile(`^\(?\s*\d{1,2}\s*[-/]\s*\d{2}\s*\)?$`)
	trailingParens     = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	ordinalSuffix      = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	ofWord             = regexp.MustCompile(`(?i)\bof\b`)
	isoDate            = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})(?:[T ].*)?$`)
	numericDate        = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{2}|\d{4})$`)
	dayMonthNameYear   = regexp.MustCompile(`^(\d{1,2})[\s\-.,/]+([A-Za-z]+)\.?[\s\-.,/]+(\d{2}|\d{4})$`)
	monthNameDayYear   = regexp.MustCompile(`^([A-Za-z]+)\.?[\s\-.]+(\d{1,2})(?:\s*,\s*|[\s\-.]+)(\d{4})$`)
	collapseWhitespace = regexp.MustCompile(`\s+`)
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// Normalize parses free-form certificate date text. Numeric dates are read
// day-first unless only the month-first reading is valid. Form codes such as
// "(07-23)" are rejected.
func Normalize(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" || formCodePattern.MatchString(s) {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return midnight(t.Year(), t.Month(), t.Day())
	}

	s = trailingParens.ReplaceAllString(s, "")
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = ofWord.ReplaceAllString(s, " ")
	s = collapseWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
	if s == "" {
		return time.Time{}, false
	}

	if m := isoDate.FindStringSubmatch(s); m != nil {
		return fromParts(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}

	if m := numericDate.FindStringSubmatch(s); m != nil {
		first, second, year := atoi(m[1]), atoi(m[2]), expandYear(m[3])
		if first <= 12 && second > 12 {
			return fromParts(year, first, second)
		}
		return fromParts(year, second, first)
	}

	if m := dayMonthNameYear.FindStringSubmatch(s); m != nil {
		month, ok := lookupMonth(m[2])
		if !ok {
			return time.Time{}, false
		}
		return fromParts(expandYear(m[3]), int(month), atoi(m[1]))
	}

	if m := monthNameDayYear.FindStringSubmatch(s); m != nil {
		month, ok := lookupMonth(m[1])
		if !ok {
			return time.Time{}, false
		}
		return fromParts(atoi(m[3]), int(month), atoi(m[2]))
	}

	return time.Time{}, false
}

// NormalizePtr is Normalize for optional fields.
func NormalizePtr(text string) *time.Time {
	t, ok := Normalize(text)
	if !ok {
		return nil
	}
	return &t
}

// IsFormCode reports whether text is a report form code like "(07-23)".
func IsFormCode(text string) bool {
	return formCodePattern.MatchString(strings.TrimSpace(text))
}

func Format(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(CanonicalLayout)
}

func Display(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DisplayLayout)
}

// SameDay compares calendar dates and treats two nils as unequal.
func SameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// AddMonths shifts t by n months, clamping to the last day of the target month.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	year := y + floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)
	if last := daysIn(year, month); d > last {
		d = last
	}
	return time.Date(year, month, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lookupMonth(name string) (time.Month, bool) {
	m, ok := months[strings.ToLower(strings.TrimSuffix(name, "."))]
	return m, ok
}

func fromParts(year, month, day int) (time.Time, bool) {
	if year < 1900 || year > 2200 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	if day > daysIn(year, time.Month(month)) {
		return time.Time{}, false
	}
	return midnight(year, time.Month(month), day)
}

func midnight(year int, month time.Month, day int) (time.Time, bool) {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func expandYear(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		if y >= 70 {
			return 1900 + y
		}
		return 2000 + y
	}
	return y
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
