package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/cloud"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/config"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/dashboard"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/energy"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/feed"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/observability/metrics"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/sink"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/threshold"
)

// live polls every phase and pushes classified snapshots to websocket clients, the log,
// MQTT and, when cloud services are on, SNS threshold alerts.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := feed.New(config.FeedBaseURL(), config.Channels(),
		feed.WithAPIKey(config.FeedAPIKey()),
		feed.WithTimeout(config.FeedTimeout()),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("feed client init failed")
	}

	hub := sink.NewHub()
	go hub.Run(ctx)
	sinks := sink.Multi{hub, sink.NewLogSink()}

	if broker := config.MQTTBroker(); broker != "" {
		mq, mc, err := sink.DialMQTT(broker, "phase-monitor-"+uuid.NewString()[:8], config.MQTTTopicPrefix())
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt connect")
		}
		defer mc.Disconnect(250)
		sinks = append(sinks, mq)
		log.Info().Str("broker", broker).Msg("mqtt sink enabled")
	}

	// one classifier for all phases so a band applies wherever it is breached
	bands := threshold.New()
	if err := bands.SetBandsText(config.ThresholdBands()); err != nil {
		log.Fatal().Err(err).Msg("threshold config invalid")
	}
	log.Info().Int("bands", len(config.ThresholdBands())).Msg("threshold bands loaded")
	if config.UseCloudServices() && config.SNSTopicArn() != "" {
		snsc, err := cloud.NewSNSClient(ctx, config.AWSRegion(), config.SNSTopicArn())
		if err != nil {
			log.Fatal().Err(err).Msg("sns client init failed")
		}
		sinks = append(sinks, sink.NewAlertSink(snsc, bands, config.AlertCooldown()))
		log.Info().Msg("threshold alerts enabled")
	}

	for _, p := range domain.Phases() {
		app := dashboard.New(client, bands, dashboard.Options{
			Phase:            p,
			FieldLimit:       config.FieldHistoryLimit(),
			RealtimeLookback: config.RealtimeLookback(),
			Energy:           energy.Options{ResetTolerance: config.EnergyResetTolerance()},
		})
		poller := &dashboard.Poller{App: app, Sink: sinks, Interval: config.PollInterval(), History: true}
		go poller.Run(ctx)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "clients": hub.Clients()})
	})

	srv := &http.Server{Addr: config.LiveAddr(), Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", srv.Addr).Int("phases", len(domain.Phases())).Msg("live stream listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server exit")
	}
}
