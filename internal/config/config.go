package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr     string
	PostgresDSN  string // empty: in-memory store
	RedisAddr    string // empty: no venue cache, no email de-dup
	KafkaBrokers []string
	ServiceName  string
	LogLevel     string

	VenuesFile string
	SiteURL    string

	FlushInterval       time.Duration
	SlotGranularity     time.Duration
	ReservationDuration time.Duration

	EmailWorkers      int
	EmailQueue        int
	EmailTemplatesDir string
	SMTP              SMTP

	AuditGroup   string
	AuditWorkers int
}

type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func Load() Config {
	return Config{
		HTTPAddr:     getenv("HTTP_ADDR", ":8081"),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		ServiceName:  getenv("SERVICE_NAME", "reservation-api"),
		LogLevel:     getenv("LOG_LEVEL", "info"),

		VenuesFile: getenv("VENUES_FILE", "venues.yaml"),
		SiteURL:    os.Getenv("SITE_URL"),

		FlushInterval:       getduration("FLUSH_INTERVAL", 2*time.Second),
		SlotGranularity:     getduration("SLOT_GRANULARITY", 30*time.Minute),
		ReservationDuration: getduration("RESERVATION_DURATION", time.Hour),

		EmailWorkers:      getint("EMAIL_WORKERS", 4),
		EmailQueue:        getint("EMAIL_QUEUE", 256),
		EmailTemplatesDir: os.Getenv("EMAIL_TEMPLATES_DIR"),
		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getenv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},

		AuditGroup:   getenv("AUDIT_GROUP", "reservation-audit"),
		AuditWorkers: getint("AUDIT_WORKERS", 2),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
		return n
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil && d > 0 {
		return d
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
