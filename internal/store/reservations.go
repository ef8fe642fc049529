// internal/store/reservations.go
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clubcourts/courtbook/internal/models"
)

type CreateReservationParams struct {
	CourtID       int64
	StartTime     time.Time
	EndTime       time.Time
	BookedForID   int64
	BookedByID    int64
	IsShortNotice bool
}

// CreateReservation inserts an active reservation and returns it. A unique
// violation on the active-slot index means a concurrent caller won the slot;
// detect it with IsUniqueViolation.
func CreateReservation(ctx context.Context, q Querier, params CreateReservationParams) (models.Reservation, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO reservations (court_id, start_time, end_time, booked_for_id, booked_by_id, status, is_short_notice)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		params.CourtID,
		params.StartTime.UTC(),
		params.EndTime.UTC(),
		params.BookedForID,
		params.BookedByID,
		models.ReservationActive,
		params.IsShortNotice,
	)
	if err != nil {
		return models.Reservation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Reservation{}, err
	}
	return GetReservation(ctx, q, id)
}

func GetReservation(ctx context.Context, q Querier, id int64) (models.Reservation, error) {
	var reservation models.Reservation
	err := sqlx.GetContext(ctx, q, &reservation,
		`SELECT * FROM reservations WHERE id = ?`, id)
	return reservation, err
}

// UpdateReservationSlot moves a reservation to a new court and time window.
func UpdateReservationSlot(ctx context.Context, q Querier, id, courtID int64, startTime, endTime time.Time) error {
	result, err := q.ExecContext(ctx, `
		UPDATE reservations SET court_id = ?, start_time = ?, end_time = ?
		WHERE id = ?`,
		courtID, startTime.UTC(), endTime.UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// SetReservationStatus transitions a reservation, recording the reason for
// cancellations. Reasons are kept when re-activating so an audit trail of the
// last suspension survives.
func SetReservationStatus(ctx context.Context, q Querier, id int64, status models.ReservationStatus, reason string) error {
	var reasonValue any
	if reason != "" {
		reasonValue = reason
	}
	result, err := q.ExecContext(ctx, `
		UPDATE reservations SET status = ?, cancel_reason = COALESCE(?, cancel_reason)
		WHERE id = ?`,
		status, reasonValue, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ListActiveReservationsForMember returns the member's reservations that are
// still marked active in the store, newest slot first. The wall-clock
// activity cut happens in the validator, not here.
func ListActiveReservationsForMember(ctx context.Context, q Querier, memberID int64) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := sqlx.SelectContext(ctx, q, &reservations, `
		SELECT * FROM reservations
		WHERE booked_for_id = ? AND status = ?
		ORDER BY start_time DESC`,
		memberID, models.ReservationActive)
	return reservations, err
}

// GetActiveReservationAtSlot returns the active reservation occupying the
// given court and slot start, if any.
func GetActiveReservationAtSlot(ctx context.Context, q Querier, courtID int64, slotStart time.Time) (models.Reservation, error) {
	var reservation models.Reservation
	err := sqlx.GetContext(ctx, q, &reservation, `
		SELECT * FROM reservations
		WHERE court_id = ? AND start_time = ? AND status = ?`,
		courtID, slotStart.UTC(), models.ReservationActive)
	return reservation, err
}

// ListReservationsInWindow returns reservations with the given status whose
// start_time falls within [start, end) on one court.
func ListReservationsInWindow(ctx context.Context, q Querier, courtID int64, start, end time.Time, status models.ReservationStatus) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := sqlx.SelectContext(ctx, q, &reservations, `
		SELECT * FROM reservations
		WHERE court_id = ? AND start_time >= ? AND start_time < ? AND status = ?
		ORDER BY start_time`,
		courtID, start.UTC(), end.UTC(), status)
	return reservations, err
}

// ListReservationsBetween returns all active and suspended reservations
// starting within [start, end), across all courts.
func ListReservationsBetween(ctx context.Context, q Querier, start, end time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := sqlx.SelectContext(ctx, q, &reservations, `
		SELECT * FROM reservations
		WHERE start_time >= ? AND start_time < ? AND status IN (?, ?)
		ORDER BY court_id, start_time`,
		start.UTC(), end.UTC(), models.ReservationActive, models.ReservationSuspended)
	return reservations, err
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
