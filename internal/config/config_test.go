package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"POSTGRES_DSN", "REDIS_ADDR", "KAFKA_BROKERS", "FLUSH_INTERVAL", "EMAIL_WORKERS", "SMTP_HOST"} {
		t.Setenv(k, "")
	}
	c := Load()
	assert.Equal(t, ":8081", c.HTTPAddr)
	assert.Empty(t, c.PostgresDSN)
	assert.Empty(t, c.KafkaBrokers)
	assert.Equal(t, 2*time.Second, c.FlushInterval)
	assert.Equal(t, 30*time.Minute, c.SlotGranularity)
	assert.Equal(t, time.Hour, c.ReservationDuration)
	assert.Equal(t, 4, c.EmailWorkers)
	assert.Equal(t, 256, c.EmailQueue)
	assert.Empty(t, c.SMTP.Host)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("FLUSH_INTERVAL", "500ms")
	t.Setenv("EMAIL_WORKERS", "-3")
	t.Setenv("SLOT_GRANULARITY", "15m")
	t.Setenv("SITE_URL", "https://reserve.example")

	c := Load()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.KafkaBrokers)
	assert.Equal(t, 500*time.Millisecond, c.FlushInterval)
	assert.Equal(t, 4, c.EmailWorkers, "invalid values fall back to defaults")
	assert.Equal(t, 15*time.Minute, c.SlotGranularity)
	assert.Equal(t, "https://reserve.example", c.SiteURL)
}
