// internal/availability/availability.go
package availability

import (
	"context"
	"time"

	"github.com/clubcourts/courtbook/internal/booking"
	"github.com/clubcourts/courtbook/internal/clock"
	"github.com/clubcourts/courtbook/internal/models"
	"github.com/clubcourts/courtbook/internal/store"
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusReserved    Status = "reserved"
	StatusShortNotice Status = "short_notice"
	StatusBlocked     Status = "blocked"
)

// Slot is the derived state of one (court, hour) cell for one date. A block
// always wins over a reservation; a temporary block layered over the slot
// keeps the suspended reservation attached so authorized callers can reveal
// it.
type Slot struct {
	CourtID   int64
	Hour      int
	Start     time.Time
	Status    Status
	Block     *models.Block
	Booking   *models.Reservation
	Suspended *models.Reservation
}

// CourtDay is one court's row of slots across the bookable window.
type CourtDay struct {
	Court models.Court
	Slots []Slot
}

// Query derives per-slot statuses for a date. It is read-only: an elapsed
// reservation simply reverts its slot to available without any stored-state
// change.
type Query struct {
	clk       *clock.Clock
	validator *booking.Validator
}

func NewQuery(clk *clock.Clock, validator *booking.Validator) *Query {
	return &Query{clk: clk, validator: validator}
}

// Occupied returns the full grid for the civil date of day, one CourtDay per
// court in fleet order.
func (q *Query) Occupied(ctx context.Context, querier store.Querier, day time.Time) ([]CourtDay, error) {
	now := q.clk.Now()
	rules := q.validator.Rules()

	dayStart := q.clk.SlotAt(day, 0)
	dayEnd := dayStart.AddDate(0, 0, 1)

	courts, err := store.ListCourts(ctx, querier)
	if err != nil {
		return nil, err
	}
	reservations, err := store.ListReservationsBetween(ctx, querier, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	blocks, err := store.ListBlocksBetween(ctx, querier, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	type slotKey struct {
		courtID int64
		hour    int
	}
	bookingsBySlot := make(map[slotKey]models.Reservation, len(reservations))
	suspendedBySlot := make(map[slotKey]models.Reservation)
	for _, reservation := range reservations {
		key := slotKey{reservation.CourtID, reservation.StartTime.In(q.clk.Location()).Hour()}
		if reservation.Status == models.ReservationSuspended {
			suspendedBySlot[key] = reservation
		} else {
			bookingsBySlot[key] = reservation
		}
	}

	grid := make([]CourtDay, 0, len(courts))
	for _, court := range courts {
		row := CourtDay{Court: court, Slots: make([]Slot, 0, rules.EndHour-rules.StartHour)}
		for hour := rules.StartHour; hour < rules.EndHour; hour++ {
			slotStart := q.clk.SlotAt(day, hour)
			slot := Slot{
				CourtID: court.ID,
				Hour:    hour,
				Start:   slotStart,
				Status:  StatusAvailable,
			}

			key := slotKey{court.ID, hour}
			if reservation, ok := bookingsBySlot[key]; ok {
				if q.validator.IsActive(ctx, reservation, now, false) {
					booked := reservation
					slot.Booking = &booked
					slot.Status = StatusReserved
					if reservation.IsShortNotice {
						slot.Status = StatusShortNotice
					}
				}
			}
			if suspended, ok := suspendedBySlot[key]; ok {
				hidden := suspended
				slot.Suspended = &hidden
			}

			// Blocks win over reservations; among overlapping blocks
			// the temporary one is surfaced since it is the layer an
			// operator would remove first.
			if covering := coveringBlock(blocks, court.ID, slotStart); covering != nil {
				slot.Block = covering
				slot.Status = StatusBlocked
			}

			row.Slots = append(row.Slots, slot)
		}
		grid = append(grid, row)
	}
	return grid, nil
}

func coveringBlock(blocks []models.Block, courtID int64, slotStart time.Time) *models.Block {
	var found *models.Block
	for i := range blocks {
		block := blocks[i]
		if block.CourtID != courtID || !block.Covers(slotStart) {
			continue
		}
		if block.Temporary {
			return &blocks[i]
		}
		if found == nil {
			found = &blocks[i]
		}
	}
	return found
}
