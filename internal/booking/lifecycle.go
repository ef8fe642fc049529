// internal/booking/lifecycle.go
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/clubcourts/courtbook/internal/audit"
	"github.com/clubcourts/courtbook/internal/clock"
	"github.com/clubcourts/courtbook/internal/db"
	"github.com/clubcourts/courtbook/internal/members"
	"github.com/clubcourts/courtbook/internal/models"
	"github.com/clubcourts/courtbook/internal/notify"
	"github.com/clubcourts/courtbook/internal/store"
)

// Service owns the reservation lifecycle: it gates every create and cancel
// through the validator pipelines and emits lifecycle events. Blocks and
// series belong to the block engine, not here.
type Service struct {
	db          *db.DB
	clk         *clock.Clock
	validator   *Validator
	eligibility members.Eligibility
	gateway     notify.Gateway
	sink        audit.Sink
}

func NewService(database *db.DB, clk *clock.Clock, validator *Validator, eligibility members.Eligibility, gateway notify.Gateway, sink audit.Sink) *Service {
	if gateway == nil {
		gateway = notify.LogGateway{}
	}
	if sink == nil {
		sink = audit.LogSink{}
	}
	return &Service{
		db:          database,
		clk:         clk,
		validator:   validator,
		eligibility: eligibility,
		gateway:     gateway,
		sink:        sink,
	}
}

func (s *Service) Validator() *Validator {
	return s.validator
}

type CreateParams struct {
	CourtID     int64
	SlotStart   time.Time
	BookedForID int64
	BookedByID  int64
}

// Create books a slot. The validator pipeline is a fast pre-filter; the
// partial unique index on active reservations is the authoritative guard, so
// a constraint violation at insert time comes back as the same conflict kind
// a pipeline failure would produce.
func (s *Service) Create(ctx context.Context, params CreateParams) (models.Reservation, error) {
	now := s.clk.Now()
	slotStart := s.clk.Ensure(params.SlotStart)

	court, err := store.GetCourt(ctx, s.db, params.CourtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Reservation{}, NewError(KindNotFound)
		}
		return models.Reservation{}, WrapInfrastructure(err)
	}
	if !court.Bookable() {
		return models.Reservation{}, NewError(KindSlotBlocked)
	}

	if s.eligibility != nil {
		allowed, err := s.eligibility.CanReserve(ctx, params.BookedForID)
		if err != nil {
			if errors.Is(err, members.ErrMemberNotFound) {
				return models.Reservation{}, NewError(KindNotFound)
			}
			return models.Reservation{}, WrapInfrastructure(err)
		}
		if !allowed {
			return models.Reservation{}, NewError(KindMemberNotEligible)
		}
	}

	var created models.Reservation
	err = s.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		decision, err := s.validator.ValidateCreate(ctx, tx, CreateRequest{
			CourtID:     params.CourtID,
			SlotStart:   slotStart,
			BookedForID: params.BookedForID,
			BookedByID:  params.BookedByID,
		}, now)
		if err != nil {
			return err
		}

		created, err = store.CreateReservation(ctx, tx, store.CreateReservationParams{
			CourtID:       params.CourtID,
			StartTime:     decision.SlotStart,
			EndTime:       decision.SlotEnd,
			BookedForID:   params.BookedForID,
			BookedByID:    params.BookedByID,
			IsShortNotice: decision.IsShortNotice,
		})
		if err != nil {
			if store.IsUniqueViolation(err) {
				// Lost the insert race. Report it like the pipeline
				// conflict, active sessions attached.
				conflict := &Error{Kind: KindSlotConflict, Err: err}
				if sessions, listErr := store.ListActiveReservationsForMember(ctx, tx, params.BookedForID); listErr == nil {
					regular, short := s.validator.partitionActiveSessions(ctx, sessions, now)
					conflict.Conflicts = append(regular, short...)
				}
				return conflict
			}
			return WrapInfrastructure(err)
		}
		return nil
	})
	if err != nil {
		return models.Reservation{}, err
	}

	s.gateway.NotifyCreated(ctx, created)
	s.sink.Record(ctx, audit.Entry{
		Operation: audit.OpCreate,
		Entity:    "reservation",
		EntityIDs: []int64{created.ID},
		ActorID:   params.BookedByID,
		After:     created,
	})
	return created, nil
}

// Cancel runs the member cancellation pipeline and, on success, marks the
// reservation cancelled with the given reason.
func (s *Service) Cancel(ctx context.Context, reservationID, actorID int64, reason string) (models.Reservation, error) {
	now := s.clk.Now()

	var cancelled models.Reservation
	err := s.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		reservation, err := store.GetReservation(ctx, tx, reservationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NewError(KindNotFound)
			}
			return WrapInfrastructure(err)
		}
		if reservation.Status != models.ReservationActive {
			return NewError(KindNotFound)
		}

		if err := s.validator.ValidateCancel(reservation, now); err != nil {
			return err
		}

		if err := store.SetReservationStatus(ctx, tx, reservationID, models.ReservationCancelled, reason); err != nil {
			return WrapInfrastructure(err)
		}
		cancelled, err = store.GetReservation(ctx, tx, reservationID)
		if err != nil {
			return WrapInfrastructure(err)
		}
		return nil
	})
	if err != nil {
		return models.Reservation{}, err
	}

	s.gateway.NotifyCancelled(ctx, cancelled, reason)
	s.sink.Record(ctx, audit.Entry{
		Operation: audit.OpUpdate,
		Entity:    "reservation",
		EntityIDs: []int64{cancelled.ID},
		ActorID:   actorID,
		After:     cancelled,
	})
	return cancelled, nil
}

// AdminCancel cancels a reservation by administrative override, bypassing
// the member cancellation window. The member is notified with the override
// reason.
func (s *Service) AdminCancel(ctx context.Context, reservationID, actorID int64, reason string) (models.Reservation, error) {
	var cancelled models.Reservation
	err := s.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		reservation, err := store.GetReservation(ctx, tx, reservationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NewError(KindNotFound)
			}
			return WrapInfrastructure(err)
		}
		if reservation.Status == models.ReservationCancelled {
			return NewError(KindNotFound)
		}

		if err := store.SetReservationStatus(ctx, tx, reservationID, models.ReservationCancelled, reason); err != nil {
			return WrapInfrastructure(err)
		}
		cancelled, err = store.GetReservation(ctx, tx, reservationID)
		if err != nil {
			return WrapInfrastructure(err)
		}
		return nil
	})
	if err != nil {
		return models.Reservation{}, err
	}

	s.gateway.NotifyAdminOverride(ctx, cancelled, reason)
	s.sink.Record(ctx, audit.Entry{
		Operation: audit.OpUpdate,
		Entity:    "reservation",
		EntityIDs: []int64{cancelled.ID},
		ActorID:   actorID,
		After:     cancelled,
	})
	return cancelled, nil
}

type UpdateParams struct {
	CourtID   *int64
	SlotStart *time.Time
}

// Update moves an active reservation to a different court or slot. The slot
// rules of the create pipeline run against the new position (quotas are
// skipped: moving a session does not change the member's session count).
func (s *Service) Update(ctx context.Context, reservationID, actorID int64, params UpdateParams) (models.Reservation, error) {
	now := s.clk.Now()

	var before, updated models.Reservation
	err := s.db.RunInTx(ctx, func(tx *sqlx.Tx) error {
		reservation, err := store.GetReservation(ctx, tx, reservationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NewError(KindNotFound)
			}
			return WrapInfrastructure(err)
		}
		if reservation.Status != models.ReservationActive {
			return NewError(KindNotFound)
		}
		before = reservation

		courtID := reservation.CourtID
		if params.CourtID != nil {
			courtID = *params.CourtID
		}
		slotStart := reservation.StartTime
		if params.SlotStart != nil {
			slotStart = s.clk.Ensure(*params.SlotStart)
		}
		if courtID == reservation.CourtID && slotStart.Equal(reservation.StartTime) {
			updated = reservation
			return nil
		}

		if params.CourtID != nil {
			court, err := store.GetCourt(ctx, tx, courtID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return NewError(KindNotFound)
				}
				return WrapInfrastructure(err)
			}
			if !court.Bookable() {
				return NewError(KindSlotBlocked)
			}
		}

		if err := s.validateSlotMove(ctx, tx, reservation, courtID, slotStart, now); err != nil {
			return err
		}

		if err := store.UpdateReservationSlot(ctx, tx, reservationID, courtID, slotStart, slotStart.Add(models.SlotDuration)); err != nil {
			if store.IsUniqueViolation(err) {
				conflict := &Error{Kind: KindSlotConflict, Err: err}
				if sessions, listErr := store.ListActiveReservationsForMember(ctx, tx, reservation.BookedForID); listErr == nil {
					regular, short := s.validator.partitionActiveSessions(ctx, sessions, now)
					conflict.Conflicts = append(regular, short...)
				}
				return conflict
			}
			return WrapInfrastructure(err)
		}
		updated, err = store.GetReservation(ctx, tx, reservationID)
		if err != nil {
			return WrapInfrastructure(err)
		}
		return nil
	})
	if err != nil {
		return models.Reservation{}, err
	}

	if updated.StartTime.Equal(before.StartTime) && updated.CourtID == before.CourtID {
		return updated, nil
	}

	s.gateway.NotifyModified(ctx, updated)
	s.sink.Record(ctx, audit.Entry{
		Operation: audit.OpUpdate,
		Entity:    "reservation",
		EntityIDs: []int64{updated.ID},
		ActorID:   actorID,
		Before:    before,
		After:     updated,
	})
	return updated, nil
}

// validateSlotMove re-runs the slot-scoped create rules for a move: not in
// the past, aligned, free of other active reservations, not blocked.
func (s *Service) validateSlotMove(ctx context.Context, tx *sqlx.Tx, reservation models.Reservation, courtID int64, slotStart, now time.Time) error {
	slotEnd := slotStart.Add(models.SlotDuration)
	if _, err := s.validator.ClassifyShortNotice(slotStart, slotEnd, now); err != nil {
		return err
	}
	if err := s.validator.checkAlignment(slotStart); err != nil {
		return err
	}

	occupant, err := store.GetActiveReservationAtSlot(ctx, tx, courtID, slotStart)
	switch {
	case err == nil:
		if occupant.ID != reservation.ID && s.validator.IsActive(ctx, occupant, now, false) {
			return NewError(KindSlotConflict)
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return WrapInfrastructure(err)
	}

	blocks, err := store.ListBlocksCoveringSlot(ctx, tx, courtID, slotStart)
	if err != nil {
		return WrapInfrastructure(err)
	}
	if len(blocks) > 0 {
		return NewError(KindSlotBlocked)
	}
	return nil
}

// CascadeCancel cancels an active reservation on behalf of a block. It
// exists for the block engine and skips the member cancellation pipeline.
func (s *Service) CascadeCancel(ctx context.Context, tx *sqlx.Tx, reservation models.Reservation, reason string) error {
	if err := store.SetReservationStatus(ctx, tx, reservation.ID, models.ReservationCancelled, reason); err != nil {
		return fmt.Errorf("cascade cancel reservation %d: %w", reservation.ID, err)
	}
	return nil
}

// NotifyCascade emits the notifications for one cascade-cancelled
// reservation once its transaction has committed.
func (s *Service) NotifyCascade(ctx context.Context, reservation models.Reservation, reason string) {
	reservation.Status = models.ReservationCancelled
	s.gateway.NotifyCancelled(ctx, reservation, reason)
	log.Ctx(ctx).Info().
		Int64("reservation_id", reservation.ID).
		Str("reason", reason).
		Msg("Reservation cascade-cancelled by block")
}
