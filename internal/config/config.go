package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the voicechat-service configuration.
type Config struct {
	AppEnv string // APP_ENV
	Port   string // PORT

	AMQPURL      string // AMQP_URL, empty disables publishing
	AMQPExchange string // AMQP_EXCHANGE

	OTLPEndpoint string // OTEL_EXPORTER_OTLP_ENDPOINT

	GeoAPIURL string // GEO_API_URL, empty disables country lookup

	CallbackExpiry    time.Duration // CALLBACK_EXPIRY
	CallbackRetention time.Duration // CALLBACK_RETENTION
	SessionRetention  time.Duration // SESSION_RETENTION
	GameRetention     time.Duration // GAME_RETENTION
	SweepInterval     time.Duration // SWEEP_INTERVAL
	StatsInterval     time.Duration // STATS_INTERVAL
}

// Load reads configuration from the environment (.env if present).
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8086"),
		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "voicechat_events"),
		OTLPEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		GeoAPIURL:         getEnv("GEO_API_URL", ""),
		CallbackExpiry:    getDuration("CALLBACK_EXPIRY", 5*time.Minute),
		CallbackRetention: getDuration("CALLBACK_RETENTION", time.Minute),
		SessionRetention:  getDuration("SESSION_RETENTION", time.Hour),
		GameRetention:     getDuration("GAME_RETENTION", time.Hour),
		SweepInterval:     getDuration("SWEEP_INTERVAL", 30*time.Second),
		StatsInterval:     getDuration("STATS_INTERVAL", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
