package bot

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"coworkingbot/internal/models"
)

var (
	ErrDateFormat = errors.New("date must be DD.MM.YYYY")
	ErrDateInPast = errors.New("date is in the past")
)

const minNameRunes = 2

// NormalizePhone accepts Russian mobile numbers written as 7XXXXXXXXXX,
// 8XXXXXXXXXX, +7XXXXXXXXXX or 9XXXXXXXXX (spaces, dashes and brackets allowed)
// and returns the canonical 7XXXXXXXXXX form.
func NormalizePhone(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if strings.Count(s, "+") > 1 {
		return "", false
	}
	plus := strings.HasPrefix(s, "+")

	var digits strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' || r == '(' || r == ')' || r == '-' || unicode.IsSpace(r):
		default:
			return "", false
		}
	}
	d := digits.String()

	switch {
	case plus:
		if len(d) == 11 && d[0] == '7' {
			return d, true
		}
	case len(d) == 11 && (d[0] == '7' || d[0] == '8'):
		return "7" + d[1:], true
	case len(d) == 10 && d[0] == '9':
		return "7" + d, true
	}
	return "", false
}

// ValidatePhone reports whether raw normalizes to a Russian mobile number.
func ValidatePhone(raw string) bool {
	_, ok := NormalizePhone(raw)
	return ok
}

// ParseBookingDate parses DD.MM.YYYY in loc and rejects calendar days before
// today. Time of day is ignored on both sides.
func ParseBookingDate(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, ErrDateFormat
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if d.Before(today) {
		return time.Time{}, ErrDateInPast
	}
	return d, nil
}

// ValidateName trims s and requires at least two characters.
func ValidateName(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if utf8.RuneCountInString(name) < minNameRunes {
		return "", false
	}
	return name, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
