package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultFeedURL is the GDACS 7-day RSS feed.
const DefaultFeedURL = "https://www.gdacs.org/xml/rss_7d.xml"

// Config holds all service settings, populated from environment variables.
type Config struct {
	FeedURL        string
	FeedTimeout    time.Duration
	PollInterval   time.Duration
	RealTimeWindow time.Duration

	DatabasePath string

	KafkaBrokers    []string
	KafkaAlertTopic string
	KafkaEmailTopic string

	// Notification dispatch.
	NotifyEnabled    bool
	NotifyDelay      time.Duration
	NotifyMaxPerPass int
	NotifyTimeout    time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	feedTimeout, err := parsePositiveDuration("FEED_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parsePositiveDuration("POLL_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}
	realTimeWindow, err := parsePositiveDuration("REALTIME_WINDOW", "24h")
	if err != nil {
		return nil, err
	}
	notifyTimeout, err := parsePositiveDuration("NOTIFY_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	notifyDelay, err := time.ParseDuration(sharedcfg.EnvOrDefault("NOTIFY_DELAY", "5s"))
	if err != nil || notifyDelay < 0 {
		return nil, errors.New("invalid NOTIFY_DELAY")
	}

	maxPerPass, err := strconv.Atoi(sharedcfg.EnvOrDefault("NOTIFY_MAX_PER_PASS", "5"))
	if err != nil || maxPerPass < 0 {
		return nil, errors.New("invalid NOTIFY_MAX_PER_PASS")
	}

	notifyEnabled := true
	if v := os.Getenv("NOTIFY_ENABLED"); v != "" {
		notifyEnabled = v == "true"
	}

	cfg := &Config{
		FeedURL:        sharedcfg.EnvOrDefault("FEED_URL", DefaultFeedURL),
		FeedTimeout:    feedTimeout,
		PollInterval:   pollInterval,
		RealTimeWindow: realTimeWindow,

		DatabasePath: sharedcfg.EnvOrDefault("DATABASE_PATH", "disasters.db"),

		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic: sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "disaster-alerts"),
		KafkaEmailTopic: sharedcfg.EnvOrDefault("KAFKA_EMAIL_TOPIC", "disaster-email-requests"),

		NotifyEnabled:    notifyEnabled,
		NotifyDelay:      notifyDelay,
		NotifyMaxPerPass: maxPerPass,
		NotifyTimeout:    notifyTimeout,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.FeedURL == "" {
		return nil, errors.New("FEED_URL is required")
	}
	if cfg.DatabasePath == "" {
		return nil, errors.New("DATABASE_PATH is required")
	}
	if cfg.NotifyEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when NOTIFY_ENABLED is true")
		}
		if cfg.KafkaAlertTopic == "" {
			return nil, errors.New("KAFKA_ALERT_TOPIC is required when NOTIFY_ENABLED is true")
		}
		if cfg.KafkaEmailTopic == "" {
			return nil, errors.New("KAFKA_EMAIL_TOPIC is required when NOTIFY_ENABLED is true")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
