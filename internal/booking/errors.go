// internal/booking/errors.go
package booking

import (
	"errors"
	"fmt"

	"github.com/clubcourts/courtbook/internal/models"
)

// Kind identifies one validation failure. Every kind maps to exactly one
// user-facing message; infrastructure detail never leaks past UserMessage.
type Kind string

const (
	KindPastBooking               Kind = "past_booking"
	KindSlotMisaligned            Kind = "slot_misaligned"
	KindRegularQuotaExceeded      Kind = "regular_quota_exceeded"
	KindShortNoticeQuotaExceeded  Kind = "short_notice_quota_exceeded"
	KindSlotConflict              Kind = "slot_conflict"
	KindSlotBlocked               Kind = "slot_blocked"
	KindCancellationWindowClosed  Kind = "cancellation_window_closed"
	KindCancellationAfterStart    Kind = "cancellation_after_start"
	KindShortNoticeNotCancellable Kind = "short_notice_not_cancellable"
	KindMemberNotEligible         Kind = "member_not_eligible"
	KindNotFound                  Kind = "not_found"
	KindInfrastructure            Kind = "infrastructure_error"
)

var userMessages = map[Kind]string{
	KindPastBooking:               "This time slot has already passed.",
	KindSlotMisaligned:            "Bookings start on the hour within the club's booking window.",
	KindRegularQuotaExceeded:      "You already hold the maximum number of active bookings.",
	KindShortNoticeQuotaExceeded:  "You already hold a short-notice booking.",
	KindSlotConflict:              "This court is already booked for the selected slot.",
	KindSlotBlocked:               "This court is blocked for the selected slot.",
	KindCancellationWindowClosed:  "Bookings can no longer be cancelled this close to the start.",
	KindCancellationAfterStart:    "Bookings cannot be cancelled once the slot has started.",
	KindShortNoticeNotCancellable: "Short-notice bookings cannot be cancelled.",
	KindMemberNotEligible:         "Your membership does not currently allow bookings.",
	KindNotFound:                  "The requested record was not found.",
	KindInfrastructure:            "Something went wrong. Please try again.",
}

// Error is the typed result every validation rule reports through. Conflicts
// carries the caller's own clashing active sessions where that helps the
// caller suggest alternatives.
type Error struct {
	Kind      Kind
	Conflicts []models.Reservation
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("booking: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("booking: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the localized message for this error's kind.
func (e *Error) UserMessage() string {
	if msg, ok := userMessages[e.Kind]; ok {
		return msg
	}
	return userMessages[KindInfrastructure]
}

// NewError builds a plain error of the given kind.
func NewError(kind Kind) *Error {
	return &Error{Kind: kind}
}

// WrapInfrastructure wraps a store or computation failure.
func WrapInfrastructure(err error) *Error {
	return &Error{Kind: KindInfrastructure, Err: err}
}

// KindOf extracts the Kind from err, or KindInfrastructure for anything that
// is not a booking error.
func KindOf(err error) Kind {
	var bookingErr *Error
	if errors.As(err, &bookingErr) {
		return bookingErr.Kind
	}
	return KindInfrastructure
}

// IsKind reports whether err is a booking error of the given kind.
func IsKind(err error, kind Kind) bool {
	var bookingErr *Error
	return errors.As(err, &bookingErr) && bookingErr.Kind == kind
}
