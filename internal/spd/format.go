package spd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spdqr/internal/record"
)

// DateLayout is the SPD date format (YYYYMMDD).
const DateLayout = "20060102"

var issueDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseAmount converts a resolved payment_amount to a decimal. Strings may use
// a decimal comma ("1 234,50", "1.234,50") or a decimal point with comma
// grouping ("1,234.50"). When both separators appear the last one is the
// decimal separator. A lone comma followed by exactly three digits ("1,234")
// could be either and is rejected.
func ParseAmount(v any) (decimal.Decimal, error) {
	if d, ok := record.Decimal(v); ok {
		return d, nil
	}

	s, ok := v.(string)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(strings.TrimSpace(s))
	normalized, err := normalizeSeparators(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, v, err)
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, v)
	}
	return d, nil
}

// normalizeSeparators rewrites s to use '.' as the only decimal separator and
// no grouping.
func normalizeSeparators(s string) (string, error) {
	dot := strings.LastIndexByte(s, '.')
	comma := strings.LastIndexByte(s, ',')

	switch {
	case dot >= 0 && comma >= 0:
		sep, group := dot, byte(',')
		if comma > dot {
			sep, group = comma, '.'
		}
		whole, frac := s[:sep], s[sep+1:]
		if !isGrouped(whole, group) {
			return "", fmt.Errorf("misplaced %q grouping", group)
		}
		return strings.ReplaceAll(whole, string(group), "") + "." + frac, nil

	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			if !isGrouped(s, ',') {
				return "", errors.New("misplaced ',' grouping")
			}
			return strings.ReplaceAll(s, ",", ""), nil
		}
		if len(s)-comma-1 == 3 && isGrouped(s, ',') {
			return "", errors.New("ambiguous ',' separator")
		}
		return s[:comma] + "." + s[comma+1:], nil

	case dot >= 0 && strings.Count(s, ".") > 1:
		if !isGrouped(s, '.') {
			return "", errors.New("misplaced '.' grouping")
		}
		return strings.ReplaceAll(s, ".", ""), nil
	}
	return s, nil
}

// isGrouped reports whether s is an optionally signed integer split by sep
// into thousands: a leading group of 1-3 digits not starting with 0, then
// groups of exactly 3.
func isGrouped(s string, sep byte) bool {
	s = strings.TrimLeft(s, "+-")
	groups := strings.Split(s, string(sep))
	if len(groups) < 2 {
		return false
	}
	for i, g := range groups {
		if !allDigits(g) {
			return false
		}
		if i == 0 {
			if len(g) == 0 || len(g) > 3 || g[0] == '0' {
				return false
			}
			continue
		}
		if len(g) != 3 {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatAmount renders d with exactly two decimals, '.' as separator and no
// grouping. Halves round away from zero.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// DueDate adds dueIn calendar days to the issue date and formats the result
// as YYYYMMDD.
func DueDate(issueDate, dueIn any) (string, bool) {
	issued, ok := parseDate(issueDate)
	if !ok {
		return "", false
	}
	days, ok := parseDays(dueIn)
	if !ok {
		return "", false
	}
	return issued.AddDate(0, 0, days).Format(DateLayout), true
}

// parseDate keeps only the calendar date; the time and zone are dropped.
func parseDate(v any) (time.Time, bool) {
	var t time.Time
	switch d := v.(type) {
	case time.Time:
		t = d
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		t = *d
	case string:
		s := strings.TrimSpace(d)
		parsed := false
		for _, layout := range issueDateLayouts {
			if p, err := time.Parse(layout, s); err == nil {
				t, parsed = p, true
				break
			}
		}
		if !parsed {
			return time.Time{}, false
		}
	default:
		return time.Time{}, false
	}
	if t.IsZero() {
		return time.Time{}, false
	}
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), true
}

func parseDays(v any) (int, bool) {
	if d, ok := record.Decimal(v); ok {
		if !d.IsInteger() {
			return 0, false
		}
		return int(d.IntPart()), true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// truncateEscaped cuts s so that its escaped form is at most n characters.
// An escaped delimiter counts in full and is never split.
func truncateEscaped(s string, n int) string {
	width := 0
	for i, r := range s {
		w := 1
		if r == '*' {
			w = len(escapedDelimiter)
		}
		if width+w > n {
			return s[:i]
		}
		width += w
	}
	return s
}
