package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/threshold"
)

func Load() error {
	// API Configuration
	viper.SetDefault("API_ADDR", ":8080")
	viper.SetDefault("LIVE_ADDR", ":3000")
	viper.SetDefault("SESSION_TTL", "12h")

	// Telemetry source
	viper.SetDefault("FEED_BASE_URL", "https://api.thingspeak.com")
	viper.SetDefault("FEED_API_KEY", "")
	viper.SetDefault("FEED_TIMEOUT", "10s")
	viper.SetDefault("PHASE1_CHANNEL", "2859613")
	viper.SetDefault("PHASE2_CHANNEL", "2859618")
	viper.SetDefault("PHASE3_CHANNEL", "2859621")
	viper.SetDefault("DEFAULT_PHASE", string(domain.Phase1))

	// Dashboard behaviour
	viper.SetDefault("FIELD_HISTORY_LIMIT", 10)
	viper.SetDefault("SETPOINT_HISTORY_LIMIT", 50)
	viper.SetDefault("REALTIME_LOOKBACK", 10)
	viper.SetDefault("REPORT_LAST_N", 100)
	viper.SetDefault("POLL_INTERVAL", "15s")
	viper.SetDefault("ENERGY_RESET_TOLERANCE", 0.0)
	viper.SetDefault("MOVING_AVERAGE_WINDOW", 5)
	viper.SetDefault("TARIFF_RATE", 0.20)
	viper.SetDefault("TARIFF_TIER", "offpeak")

	// Feed simulator
	viper.SetDefault("SIMULATOR_ADDR", ":8090")
	viper.SetDefault("SIMULATOR_INTERVAL", "15s")
	viper.SetDefault("SIMULATOR_BACKFILL", "24h")
	viper.SetDefault("SIMULATOR_NULL_RATE", 0.02)
	viper.SetDefault("SIMULATOR_RESET_EVERY", 0)

	// Credential store (local, not real security)
	viper.SetDefault("DB_DSN", "file:credentials.db?_pragma=busy_timeout(5000)")

	// Display sinks
	viper.SetDefault("MQTT_BROKER", "")
	viper.SetDefault("MQTT_TOPIC_PREFIX", "energy/phases")
	viper.SetDefault("ALERT_COOLDOWN", "10m")

	// Threshold bands are read per parameter from THRESHOLD_<PARAMETER>_MIN/_MAX,
	// e.g. THRESHOLD_VOLTAGE_MAX=250 or THRESHOLD_REALPOWER_MIN=0.

	// AWS Configuration
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_S3_BUCKET", "energy-grid-reports")
	viper.SetDefault("AWS_SNS_TOPIC_ARN", "")
	viper.SetDefault("USE_CLOUD_SERVICES", "false") // Toggle for local vs cloud

	viper.AutomaticEnv()
	return nil
}

func APIAddr() string           { return viper.GetString("API_ADDR") }
func LiveAddr() string          { return viper.GetString("LIVE_ADDR") }
func SessionTTL() time.Duration { return viper.GetDuration("SESSION_TTL") }

func FeedBaseURL() string           { return strings.TrimRight(viper.GetString("FEED_BASE_URL"), "/") }
func FeedAPIKey() string            { return viper.GetString("FEED_API_KEY") }
func FeedTimeout() time.Duration    { return viper.GetDuration("FEED_TIMEOUT") }
func FieldHistoryLimit() int        { return viper.GetInt("FIELD_HISTORY_LIMIT") }
func SetPointHistoryLimit() int     { return viper.GetInt("SETPOINT_HISTORY_LIMIT") }
func RealtimeLookback() int         { return viper.GetInt("REALTIME_LOOKBACK") }
func ReportLastN() int              { return viper.GetInt("REPORT_LAST_N") }
func PollInterval() time.Duration   { return viper.GetDuration("POLL_INTERVAL") }
func EnergyResetTolerance() float64 { return viper.GetFloat64("ENERGY_RESET_TOLERANCE") }
func MovingAverageWindow() int      { return viper.GetInt("MOVING_AVERAGE_WINDOW") }
func TariffRate() float64           { return viper.GetFloat64("TARIFF_RATE") }
func TariffTier() string            { return viper.GetString("TARIFF_TIER") }

// DefaultPhase falls back to phase1 when the configured value is not a phase.
func DefaultPhase() domain.Phase {
	p, err := domain.ParsePhase(viper.GetString("DEFAULT_PHASE"))
	if err != nil {
		return domain.Phase1
	}
	return p
}

// Channels maps each phase to its configured channel id.
func Channels() map[domain.Phase]string {
	return map[domain.Phase]string{
		domain.Phase1: viper.GetString("PHASE1_CHANNEL"),
		domain.Phase2: viper.GetString("PHASE2_CHANNEL"),
		domain.Phase3: viper.GetString("PHASE3_CHANNEL"),
	}
}

func SimulatorAddr() string            { return viper.GetString("SIMULATOR_ADDR") }
func SimulatorInterval() time.Duration { return viper.GetDuration("SIMULATOR_INTERVAL") }
func SimulatorBackfill() time.Duration { return viper.GetDuration("SIMULATOR_BACKFILL") }
func SimulatorNullRate() float64       { return viper.GetFloat64("SIMULATOR_NULL_RATE") }
func SimulatorResetEvery() int         { return viper.GetInt("SIMULATOR_RESET_EVERY") }

func DatabaseDSN() string          { return viper.GetString("DB_DSN") }
func MQTTBroker() string           { return viper.GetString("MQTT_BROKER") }
func MQTTTopicPrefix() string      { return viper.GetString("MQTT_TOPIC_PREFIX") }
func AlertCooldown() time.Duration { return viper.GetDuration("ALERT_COOLDOWN") }
func AWSRegion() string            { return viper.GetString("AWS_REGION") }
func S3Bucket() string             { return viper.GetString("AWS_S3_BUCKET") }
func SNSTopicArn() string          { return viper.GetString("AWS_SNS_TOPIC_ARN") }
func UseCloudServices() bool       { return viper.GetBool("USE_CLOUD_SERVICES") }

// ThresholdBands returns the configured bands, keyed by parameter. Parameters with
// neither bound set are left out so they keep whatever band they already have.
func ThresholdBands() map[string]threshold.BandText {
	out := make(map[string]threshold.BandText)
	for _, p := range domain.Parameters() {
		prefix := "THRESHOLD_" + strings.ToUpper(p)
		b := threshold.BandText{
			Min: viper.GetString(prefix + "_MIN"),
			Max: viper.GetString(prefix + "_MAX"),
		}
		if b.Min != "" || b.Max != "" {
			out[p] = b
		}
	}
	return out
}
