// internal/scheduler/reminders.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/clubcourts/courtbook/internal/clock"
	"github.com/clubcourts/courtbook/internal/db"
	"github.com/clubcourts/courtbook/internal/models"
	"github.com/clubcourts/courtbook/internal/notify"
	"github.com/clubcourts/courtbook/internal/store"
)

// RegisterReminderJob schedules an evening sweep that reminds members of
// their bookings for the next day.
func RegisterReminderJob(s *Service, database *db.DB, clk *clock.Clock, gateway notify.Gateway) error {
	if database == nil {
		return fmt.Errorf("reminder job requires database")
	}
	if gateway == nil {
		gateway = notify.LogGateway{}
	}

	jobName := "booking_reminders"
	cronExpr := "0 18 * * *"
	jobLogger := log.With().
		Str("component", "booking_reminder_job").
		Str("job_name", jobName).
		Logger()

	_, err := s.AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		tomorrow := clk.Date(clk.Now()).AddDate(0, 0, 1)
		reservations, err := store.ListReservationsBetween(ctx, database, tomorrow, tomorrow.AddDate(0, 0, 1))
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to load reservations for reminders")
			return
		}

		sent := 0
		for _, reservation := range reservations {
			if reservation.Status != models.ReservationActive {
				continue
			}
			gateway.NotifyReminder(ctx, reservation)
			sent++
		}
		jobLogger.Info().Int("reminders", sent).Msg("Booking reminders dispatched")
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add reminder job: %w", err)
	}

	jobLogger.Info().Msg("Reminder job registered")
	return nil
}
