// internal/booking/validator.go
package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clubcourts/courtbook/internal/models"
	"github.com/clubcourts/courtbook/internal/store"
)

// Rules carries the club's booking policy. It is constructor-injected so
// tests and deployments can vary it without package-level toggles.
type Rules struct {
	// Slots start on the hour inside [StartHour, EndHour); the last
	// bookable start is EndHour-1.
	StartHour int
	EndHour   int

	// MaxActiveReservations caps simultaneously active regular sessions
	// per member; MaxShortNoticeSessions caps active short-notice ones.
	MaxActiveReservations  int
	MaxShortNoticeSessions int

	// ShortNoticeLead is the window before a slot's start inside which a
	// booking counts as short notice and a cancellation is refused.
	ShortNoticeLead time.Duration
}

// DefaultRules mirrors the club's standing policy.
func DefaultRules() Rules {
	return Rules{
		StartHour:              6,
		EndHour:                22,
		MaxActiveReservations:  2,
		MaxShortNoticeSessions: 1,
		ShortNoticeLead:        15 * time.Minute,
	}
}

// Validator runs the ordered rule pipelines gating reservation creation and
// cancellation. Activity determination is two-tier: the primary strategy,
// then the date-only fallback, and if both fail the create path fails open
// while the cancel path fails closed.
type Validator struct {
	rules    Rules
	activity ActivityFunc
	fallback ActivityFunc
}

// ValidatorOption customizes a Validator; used by tests to inject failing
// strategies.
type ValidatorOption func(*Validator)

func WithActivityFunc(fn ActivityFunc) ValidatorOption {
	return func(v *Validator) { v.activity = fn }
}

func WithFallbackActivityFunc(fn ActivityFunc) ValidatorOption {
	return func(v *Validator) { v.fallback = fn }
}

func NewValidator(rules Rules, opts ...ValidatorOption) *Validator {
	v := &Validator{
		rules:    rules,
		activity: ComputeActivity,
		fallback: ComputeActivityDateOnly,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) Rules() Rules {
	return v.rules
}

// IsActive resolves the activity of a reservation at now through the
// two-tier strategy. When both tiers fail the result defaults to failOpen's
// value and the anomaly is logged for audit.
func (v *Validator) IsActive(ctx context.Context, reservation models.Reservation, now time.Time, failOpenValue bool) bool {
	active, err := v.activity(reservation, now)
	if err == nil {
		return active
	}
	primaryErr := err

	active, err = v.fallback(reservation, now)
	if err == nil {
		log.Ctx(ctx).Warn().
			Err(primaryErr).
			Int64("reservation_id", reservation.ID).
			Time("now", now).
			Msg("Activity computation degraded to date-only comparison")
		return active
	}

	log.Ctx(ctx).Error().
		AnErr("primary", primaryErr).
		AnErr("fallback", err).
		Int64("reservation_id", reservation.ID).
		Time("now", now).
		Bool("assumed_active", failOpenValue).
		Msg("Activity computation failed on both tiers")
	return failOpenValue
}

// ClassifyShortNotice reports whether a prospective [start, end) slot is a
// short-notice booking at now: ongoing, or starting within the lead window.
// A slot that has fully elapsed is rejected with KindPastBooking.
func (v *Validator) ClassifyShortNotice(start, end, now time.Time) (bool, error) {
	if !end.After(now) {
		return false, NewError(KindPastBooking)
	}
	if !start.After(now) {
		return true, nil
	}
	return start.Sub(now) <= v.rules.ShortNoticeLead, nil
}

// CreateRequest is a prospective reservation entering the create pipeline.
type CreateRequest struct {
	CourtID     int64
	SlotStart   time.Time
	BookedForID int64
	BookedByID  int64
}

// CreateDecision is the outcome of a passed create pipeline.
type CreateDecision struct {
	SlotStart     time.Time
	SlotEnd       time.Time
	IsShortNotice bool
}

// ValidateCreate runs the create pipeline in order, short-circuiting on the
// first failing rule. Store failures surface as KindInfrastructure; activity
// computation failures fail open per policy.
func (v *Validator) ValidateCreate(ctx context.Context, q store.Querier, req CreateRequest, now time.Time) (CreateDecision, error) {
	slotStart := req.SlotStart
	slotEnd := slotStart.Add(models.SlotDuration)

	// Rule 1: not in the past. Regular bookings must not have started;
	// short-notice bookings get grace until the slot ends, which
	// ClassifyShortNotice enforces by rejecting elapsed slots.
	shortNotice, err := v.ClassifyShortNotice(slotStart, slotEnd, now)
	if err != nil {
		return CreateDecision{}, err
	}

	// Rule 2: slot alignment inside the bookable window.
	if err := v.checkAlignment(slotStart); err != nil {
		return CreateDecision{}, err
	}

	sessions, err := store.ListActiveReservationsForMember(ctx, q, req.BookedForID)
	if err != nil {
		return CreateDecision{}, WrapInfrastructure(err)
	}
	regular, short := v.partitionActiveSessions(ctx, sessions, now)

	// Rule 3: regular quota. Short-notice bookings are exempt.
	if !shortNotice && len(regular) >= v.rules.MaxActiveReservations {
		return CreateDecision{}, &Error{Kind: KindRegularQuotaExceeded, Conflicts: regular}
	}

	// Rule 4: short-notice quota, only for short-notice bookings.
	if shortNotice && len(short) >= v.rules.MaxShortNoticeSessions {
		return CreateDecision{}, &Error{Kind: KindShortNoticeQuotaExceeded, Conflicts: short}
	}

	// Rule 5: no currently-active reservation on the same slot. An expired
	// conflicting reservation does not block rebooking.
	occupant, err := store.GetActiveReservationAtSlot(ctx, q, req.CourtID, slotStart)
	switch {
	case err == nil:
		if v.IsActive(ctx, occupant, now, false) {
			conflicts := append(regular, short...)
			return CreateDecision{}, &Error{Kind: KindSlotConflict, Conflicts: conflicts}
		}
	case errors.Is(err, sql.ErrNoRows):
		// Slot free.
	default:
		return CreateDecision{}, WrapInfrastructure(err)
	}

	// Rule 6: no block covering the slot.
	blocks, err := store.ListBlocksCoveringSlot(ctx, q, req.CourtID, slotStart)
	if err != nil {
		return CreateDecision{}, WrapInfrastructure(err)
	}
	if len(blocks) > 0 {
		return CreateDecision{}, NewError(KindSlotBlocked)
	}

	return CreateDecision{SlotStart: slotStart, SlotEnd: slotEnd, IsShortNotice: shortNotice}, nil
}

// ValidateCancel runs the cancel pipeline. With an unusable current time the
// cancel path fails closed: refusing a cancellation is the safer default.
func (v *Validator) ValidateCancel(reservation models.Reservation, now time.Time) error {
	if reservation.IsShortNotice {
		return NewError(KindShortNoticeNotCancellable)
	}
	if now.IsZero() || reservation.StartTime.IsZero() {
		return WrapInfrastructure(errors.New("cancel check without usable times"))
	}
	if !now.Before(reservation.StartTime) {
		return NewError(KindCancellationAfterStart)
	}
	if reservation.StartTime.Sub(now) <= v.rules.ShortNoticeLead {
		return NewError(KindCancellationWindowClosed)
	}
	return nil
}

func (v *Validator) checkAlignment(slotStart time.Time) error {
	if slotStart.Minute() != 0 || slotStart.Second() != 0 || slotStart.Nanosecond() != 0 {
		return NewError(KindSlotMisaligned)
	}
	hour := slotStart.Hour()
	if hour < v.rules.StartHour || hour > v.rules.EndHour-1 {
		return NewError(KindSlotMisaligned)
	}
	return nil
}

// partitionActiveSessions splits the member's stored-active reservations
// into currently-active regular and short-notice sessions. Suspended
// reservations never reach here and so never count against quotas.
func (v *Validator) partitionActiveSessions(ctx context.Context, sessions []models.Reservation, now time.Time) (regular, short []models.Reservation) {
	for _, session := range sessions {
		if !v.IsActive(ctx, session, now, false) {
			continue
		}
		if session.IsShortNotice {
			short = append(short, session)
		} else {
			regular = append(regular, session)
		}
	}
	return regular, short
}
