// internal/booking/activity.go
package booking

import (
	"fmt"
	"time"

	"github.com/clubcourts/courtbook/internal/models"
)

// ActivityFunc decides whether a reservation still counts as an active
// booking session at the instant now. It is a pure function so the strategy
// can be tested, and swapped, independent of the store.
type ActivityFunc func(reservation models.Reservation, now time.Time) (bool, error)

// ComputeActivity is the primary activity rule: a reservation is active
// while its end time lies strictly in the future. A reservation ending
// exactly at now is no longer active. With full wall-clock timestamps this
// single comparison covers both the date and the time-of-day cases.
func ComputeActivity(reservation models.Reservation, now time.Time) (bool, error) {
	if reservation.EndTime.IsZero() {
		return false, fmt.Errorf("reservation %d has no end time", reservation.ID)
	}
	if now.IsZero() {
		return false, fmt.Errorf("activity check without a current time")
	}
	return reservation.EndTime.After(now), nil
}

// ComputeActivityDateOnly is the degraded fallback used when the primary
// rule fails: it compares civil dates only, keeping today's elapsed
// reservations active until midnight. Coarser than ComputeActivity but never
// sensitive to time-of-day arithmetic.
func ComputeActivityDateOnly(reservation models.Reservation, now time.Time) (bool, error) {
	if reservation.EndTime.IsZero() {
		return false, fmt.Errorf("reservation %d has no end time", reservation.ID)
	}
	if now.IsZero() {
		return false, fmt.Errorf("activity check without a current time")
	}
	end := reservation.EndTime.In(now.Location())
	endDate := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, now.Location())
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !endDate.Before(nowDate), nil
}
