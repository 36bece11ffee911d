package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/cloud"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/config"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/credentials"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/dashboard"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/database"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/energy"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/feed"
	httpHandlers "github.com/ANIKETSHETTY47/phase-energy-monitor/internal/http"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/observability/metrics"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/report"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/threshold"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, config.DatabaseDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	users, err := credentials.NewStore(ctx, db, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("credential store init failed")
	}

	client, err := feed.New(config.FeedBaseURL(), config.Channels(),
		feed.WithAPIKey(config.FeedAPIKey()),
		feed.WithTimeout(config.FeedTimeout()),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("feed client init failed")
	}

	bands := threshold.New()
	if err := bands.SetBandsText(config.ThresholdBands()); err != nil {
		log.Fatal().Err(err).Msg("threshold config invalid")
	}

	app := dashboard.New(client, bands, dashboard.Options{
		Phase:            config.DefaultPhase(),
		FieldLimit:       config.FieldHistoryLimit(),
		SetPointLimit:    config.SetPointHistoryLimit(),
		RealtimeLookback: config.RealtimeLookback(),
		ReportLastN:      config.ReportLastN(),
		Energy:           energy.Options{ResetTolerance: config.EnergyResetTolerance()},
		MovingAverage:    config.MovingAverageWindow(),
		Tariff:           report.Tariff{Rate: config.TariffRate(), Tier: config.TariffTier()},
	})

	deps := httpHandlers.Deps{
		App:      app,
		Users:    users,
		Sessions: credentials.NewSessions(config.SessionTTL()),
		Timeout:  config.FeedTimeout() + 5*time.Second,
	}
	if config.UseCloudServices() {
		s3c, err := cloud.NewS3Client(ctx, config.AWSRegion(), config.S3Bucket())
		if err != nil {
			log.Fatal().Err(err).Msg("s3 client init failed")
		}
		deps.Uploader = s3c
		log.Info().Str("bucket", config.S3Bucket()).Msg("report archiving enabled")
	}

	server := httpHandlers.NewServer()
	httpHandlers.Register(server, deps)

	go func() {
		<-ctx.Done()
		_ = server.ShutdownWithTimeout(5 * time.Second)
	}()

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Str("phase", string(app.Phase())).Msg("api listening")
	if err := server.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server exit")
	}
}
