package caja

import (
	"fmt"
	"time"
)

// LayoutFecha is the wire format of business dates.
const LayoutFecha = "2006-01-02"

// ParseFecha parses a YYYY-MM-DD date in loc.
func ParseFecha(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(LayoutFecha, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("formato de fecha inválido, use YYYY-MM-DD: %w", err)
	}
	return t, nil
}

func FormatFecha(t time.Time) string {
	return t.Format(LayoutFecha)
}

// Hoy truncates now to the start of the day in loc.
func Hoy(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
}

// MismoDia reports whether a and b fall on the same calendar date.
func MismoDia(a, b time.Time) bool {
	return FormatFecha(a) == FormatFecha(b)
}
