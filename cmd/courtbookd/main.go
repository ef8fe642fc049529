// cmd/courtbookd/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/clubcourts/courtbook/internal/clock"
	"github.com/clubcourts/courtbook/internal/config"
	"github.com/clubcourts/courtbook/internal/db"
	"github.com/clubcourts/courtbook/internal/notify"
	"github.com/clubcourts/courtbook/internal/scheduler"
)

// courtbookd runs the club's background maintenance: it applies pending
// schema migrations on startup and then drives the scheduled jobs (booking
// reminders, yearly fee reset). The booking and block engines themselves are
// consumed as libraries by whatever front end the club deploys.
func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	clk, err := clock.New(cfg.App.Timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load club timezone")
	}

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	var gateway notify.Gateway = notify.LogGateway{}
	if cfg.Mail.AccessKeyID != "" && cfg.Mail.Region != "" {
		sesClient, err := notify.NewSESClient(cfg.Mail.AccessKeyID, cfg.Mail.SecretAccessKey, cfg.Mail.Region, cfg.Mail.Sender)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize SES client")
		}
		gateway = notify.NewMailGateway(database, sesClient)
		log.Info().Str("region", cfg.Mail.Region).Msg("Mail gateway enabled")
	} else {
		log.Warn().Msg("Mail gateway not configured, notifications go to the log only")
	}

	sched, err := scheduler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if err := scheduler.RegisterFeeResetJob(sched, database); err != nil {
		log.Fatal().Err(err).Msg("Failed to register fee reset job")
	}
	if err := scheduler.RegisterReminderJob(sched, database, clk, gateway); err != nil {
		log.Fatal().Err(err).Msg("Failed to register reminder job")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("app", cfg.App.Name).
			Str("timezone", clk.Location().String()).
			Msg("Starting background jobs")
		sched.Start()
		<-ctx.Done()
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		return sched.Stop()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Terminated with error")
		os.Exit(1)
	}
}

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
