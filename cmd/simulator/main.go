package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/config"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/simulator"
)

// simulator serves fake phase channels so the api and live processes can run offline.
// Point FEED_BASE_URL at SIMULATOR_ADDR to use it.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := simulator.New(config.Channels(), simulator.Options{
		Seed:       time.Now().UnixNano(),
		Interval:   config.SimulatorInterval(),
		NullRate:   config.SimulatorNullRate(),
		ResetEvery: config.SimulatorResetEvery(),
	})

	now := time.Now()
	if backfill := config.SimulatorBackfill(); backfill > 0 {
		n := sim.Backfill(now.Add(-backfill), now)
		log.Info().Int("entries", n).Dur("span", backfill).Msg("history backfilled")
	}

	go func() {
		ticker := time.NewTicker(sim.Interval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case at := <-ticker.C:
				sim.Step(at)
			}
		}
	}()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	simulator.Register(app, sim)

	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	log.Info().Str("addr", config.SimulatorAddr()).Msg("simulator listening")
	if err := app.Listen(config.SimulatorAddr()); err != nil {
		log.Fatal().Err(err).Msg("server exit")
	}
}
