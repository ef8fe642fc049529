// internal/scheduler/fees.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/clubcourts/courtbook/internal/db"
	"github.com/clubcourts/courtbook/internal/store"
)

// RegisterFeeResetJob schedules the yearly reset of every member's
// fee-payment flag, early on January 1st. Members regain booking rights by
// paying the new season's fee or until the configured deadline passes.
func RegisterFeeResetJob(s *Service, database *db.DB) error {
	if database == nil {
		return fmt.Errorf("fee reset job requires database")
	}

	jobName := "fee_payment_reset"
	cronExpr := "0 3 1 1 *"
	jobLogger := log.With().
		Str("component", "fee_payment_reset_job").
		Str("job_name", jobName).
		Logger()

	_, err := s.AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		reset, err := store.ResetAllFeeFlags(ctx, database)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to reset fee payment flags")
			return
		}
		jobLogger.Info().Int64("members_reset", reset).Msg("Fee payment flags reset for the new season")
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add fee reset job: %w", err)
	}

	jobLogger.Info().Msg("Fee reset job registered")
	return nil
}
