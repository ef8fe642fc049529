// internal/clock/clock.go
package clock

import (
	"fmt"
	"time"
)

// DefaultTimezone is the club's civil timezone. Every date and slot in the
// system is interpreted in this zone, so DST transitions are handled by the
// zone database rather than fixed offsets.
const DefaultTimezone = "Europe/Berlin"

// Clock supplies the current wall time in the club's timezone. The time
// source is injectable so validators and engines can be tested at a fixed
// instant.
type Clock struct {
	loc   *time.Location
	nowFn func() time.Time
}

// New loads the named timezone and returns a Clock reading the system time.
func New(timezone string) (*Clock, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc, nowFn: time.Now}, nil
}

// NewFixed returns a Clock frozen at the given instant, for tests.
func NewFixed(at time.Time) *Clock {
	loc := at.Location()
	return &Clock{loc: loc, nowFn: func() time.Time { return at }}
}

// Now returns the current wall time in the club's timezone.
func (c *Clock) Now() time.Time {
	return c.nowFn().In(c.loc)
}

// Location returns the club's timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Ensure normalizes an optional input time to the club's timezone. A zero
// value means "now". Times carrying another zone are converted; this treats
// naive civil inputs as already local, which callers get by parsing with
// ParseInLocation against c.Location().
func (c *Clock) Ensure(t time.Time) time.Time {
	if t.IsZero() {
		return c.Now()
	}
	return t.In(c.loc)
}

// Date returns midnight of t's civil date in the club's timezone.
func (c *Clock) Date(t time.Time) time.Time {
	local := t.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
}

// SlotAt returns the wall-clock time for hour o'clock on the civil date of
// day.
func (c *Clock) SlotAt(day time.Time, hour int) time.Time {
	local := day.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, c.loc)
}
