// internal/models/weekdays.go
package models

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// WeekdaySet is a set of weekdays stored as a comma-separated list of
// time.Weekday values (0 = Sunday).
type WeekdaySet []time.Weekday

func (s WeekdaySet) Contains(day time.Weekday) bool {
	for _, d := range s {
		if d == day {
			return true
		}
	}
	return false
}

func (s WeekdaySet) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

// Normalize returns the set sorted with duplicates removed.
func (s WeekdaySet) Normalize() WeekdaySet {
	seen := make(map[time.Weekday]struct{}, len(s))
	out := make(WeekdaySet, 0, len(s))
	for _, d := range s {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s WeekdaySet) Value() (driver.Value, error) {
	return s.String(), nil
}

func (s *WeekdaySet) Scan(src any) error {
	var raw string
	switch typed := src.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		raw = typed
	case []byte:
		raw = string(typed)
	default:
		return fmt.Errorf("cannot scan %T into WeekdaySet", src)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		*s = nil
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(WeekdaySet, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || value < 0 || value > 6 {
			return fmt.Errorf("invalid weekday %q", part)
		}
		out = append(out, time.Weekday(value))
	}
	*s = out
	return nil
}
