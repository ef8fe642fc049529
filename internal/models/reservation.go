// internal/models/reservation.go
package models

import (
	"database/sql"
	"time"
)

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationSuspended ReservationStatus = "suspended"
)

// SlotDuration is the length of every booking slot. end_time is always
// start_time plus exactly this duration.
const SlotDuration = time.Hour

// Reservation is a member's claim on one court for one hour slot. StartTime
// and EndTime are wall-clock times in the club's timezone; the civil date is
// derived from StartTime.
type Reservation struct {
	ID            int64             `db:"id" json:"id"`
	CourtID       int64             `db:"court_id" json:"courtId"`
	StartTime     time.Time         `db:"start_time" json:"startTime"`
	EndTime       time.Time         `db:"end_time" json:"endTime"`
	BookedForID   int64             `db:"booked_for_id" json:"bookedForId"`
	BookedByID    int64             `db:"booked_by_id" json:"bookedById"`
	Status        ReservationStatus `db:"status" json:"status"`
	IsShortNotice bool              `db:"is_short_notice" json:"isShortNotice"`
	CancelReason  sql.NullString    `db:"cancel_reason" json:"cancelReason,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"createdAt"`
}

// Date returns the reservation's civil date at midnight in loc.
func (r Reservation) Date(loc *time.Location) time.Time {
	local := r.StartTime.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// IsProxy reports whether the reservation was made on someone else's behalf.
func (r Reservation) IsProxy() bool {
	return r.BookedForID != r.BookedByID
}
