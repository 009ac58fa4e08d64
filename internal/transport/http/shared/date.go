package shared

import (
	"bytes"
	"strings"
	"time"
)

// ParseDate accepts RFC3339 or YYYY-MM-DD and returns the UTC calendar day.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return truncateDay(parsed), nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date is a calendar day in JSON payloads. A null or empty value leaves it zero.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(raw []byte) error {
	if bytes.Equal(raw, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	parsed, err := ParseDate(strings.Trim(string(raw), `"`))
	if err != nil {
		return err
	}
	d.Time = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

// Ptr returns nil for a zero date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
