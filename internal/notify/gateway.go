// internal/notify/gateway.go
package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/clubcourts/courtbook/internal/models"
)

// Gateway receives reservation lifecycle events. Implementations must
// tolerate failure: the engines call it fire-and-forget and log, never abort
// the triggering operation.
type Gateway interface {
	NotifyCreated(ctx context.Context, reservation models.Reservation)
	NotifyModified(ctx context.Context, reservation models.Reservation)
	NotifyCancelled(ctx context.Context, reservation models.Reservation, reason string)
	NotifyAdminOverride(ctx context.Context, reservation models.Reservation, reason string)
	NotifyReminder(ctx context.Context, reservation models.Reservation)
}

// LogGateway is the default gateway: it records every event in the log and
// delivers nothing. Deployments wire the mail gateway in front of it.
type LogGateway struct{}

func (LogGateway) NotifyCreated(ctx context.Context, reservation models.Reservation) {
	log.Ctx(ctx).Info().
		Int64("reservation_id", reservation.ID).
		Int64("booked_for_id", reservation.BookedForID).
		Time("start_time", reservation.StartTime).
		Msg("Booking created")
}

func (LogGateway) NotifyModified(ctx context.Context, reservation models.Reservation) {
	log.Ctx(ctx).Info().
		Int64("reservation_id", reservation.ID).
		Time("start_time", reservation.StartTime).
		Msg("Booking modified")
}

func (LogGateway) NotifyCancelled(ctx context.Context, reservation models.Reservation, reason string) {
	log.Ctx(ctx).Info().
		Int64("reservation_id", reservation.ID).
		Str("reason", reason).
		Msg("Booking cancelled")
}

func (LogGateway) NotifyAdminOverride(ctx context.Context, reservation models.Reservation, reason string) {
	log.Ctx(ctx).Info().
		Int64("reservation_id", reservation.ID).
		Str("reason", reason).
		Msg("Booking cancelled by administrative override")
}

func (LogGateway) NotifyReminder(ctx context.Context, reservation models.Reservation) {
	log.Ctx(ctx).Info().
		Int64("reservation_id", reservation.ID).
		Time("start_time", reservation.StartTime).
		Msg("Booking reminder")
}
