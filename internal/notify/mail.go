// internal/notify/mail.go
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clubcourts/courtbook/internal/db"
	"github.com/clubcourts/courtbook/internal/models"
	"github.com/clubcourts/courtbook/internal/store"
)

const mailSendTimeout = 5 * time.Second

// MailGateway delivers lifecycle events by email to both the booking member
// and, for proxy bookings, the member who booked for them. Delivery is
// fire-and-forget: failures are logged and never abort the triggering
// operation.
type MailGateway struct {
	db     *db.DB
	sender EmailSender
}

func NewMailGateway(database *db.DB, sender EmailSender) *MailGateway {
	return &MailGateway{db: database, sender: sender}
}

func (g *MailGateway) NotifyCreated(ctx context.Context, reservation models.Reservation) {
	subject := "Court booking confirmed"
	body := fmt.Sprintf(
		"Your booking of court for %s has been confirmed.\n\nSlot: %s",
		reservation.StartTime.Format("Monday, Jan 2, 2006"),
		formatSlot(reservation),
	)
	g.deliver(ctx, reservation, subject, body)
}

func (g *MailGateway) NotifyModified(ctx context.Context, reservation models.Reservation) {
	subject := "Court booking changed"
	body := fmt.Sprintf(
		"Your booking has been moved.\n\nNew slot: %s",
		formatSlot(reservation),
	)
	g.deliver(ctx, reservation, subject, body)
}

func (g *MailGateway) NotifyCancelled(ctx context.Context, reservation models.Reservation, reason string) {
	subject := "Court booking cancelled"
	body := fmt.Sprintf(
		"Your booking for %s has been cancelled.\n\nReason: %s",
		formatSlot(reservation),
		reason,
	)
	g.deliver(ctx, reservation, subject, body)
}

func (g *MailGateway) NotifyAdminOverride(ctx context.Context, reservation models.Reservation, reason string) {
	subject := "Court booking cancelled by the club"
	body := fmt.Sprintf(
		"The club has cancelled your booking for %s.\n\nReason: %s",
		formatSlot(reservation),
		reason,
	)
	g.deliver(ctx, reservation, subject, body)
}

func (g *MailGateway) NotifyReminder(ctx context.Context, reservation models.Reservation) {
	subject := "Court booking tomorrow"
	body := fmt.Sprintf(
		"A reminder about your upcoming booking.\n\nSlot: %s",
		formatSlot(reservation),
	)
	g.deliver(ctx, reservation, subject, body)
}

// deliver sends to every distinct party on the reservation that has an
// email address on file.
func (g *MailGateway) deliver(ctx context.Context, reservation models.Reservation, subject, body string) {
	if g.sender == nil {
		return
	}

	recipients := make(map[int64]struct{}, 2)
	recipients[reservation.BookedForID] = struct{}{}
	recipients[reservation.BookedByID] = struct{}{}

	for memberID := range recipients {
		member, err := store.GetMember(ctx, g.db, memberID)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Int64("member_id", memberID).Msg("Failed to load member for notification email")
			continue
		}
		if !member.Email.Valid {
			continue
		}
		recipient := strings.TrimSpace(member.Email.String)
		if recipient == "" {
			continue
		}

		go func() {
			sendCtx, cancel := context.WithTimeout(context.Background(), mailSendTimeout)
			defer cancel()
			if err := g.sender.Send(sendCtx, recipient, subject, body); err != nil {
				log.Error().Err(err).Str("recipient", recipient).Msg("Failed to send notification email")
			}
		}()
	}
}

func formatSlot(reservation models.Reservation) string {
	return fmt.Sprintf("%s, %s - %s",
		reservation.StartTime.Format("Monday, Jan 2, 2006"),
		reservation.StartTime.Format("15:04"),
		reservation.EndTime.Format("15:04"),
	)
}
