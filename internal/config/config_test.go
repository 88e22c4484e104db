package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "disfruleg-pos", cfg.App.Name)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disfruleg", cfg.Database.Name)
	assert.Equal(t, 5, cfg.Auth.MaxFailedAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockDuration)
	assert.Equal(t, "receipts", cfg.Receipt.Dir)
	assert.Equal(t, 12*time.Hour, cfg.JWT.ExpiryHours)
	assert.Equal(t, "none", cfg.Printer.Type)
	assert.Equal(t, 5*time.Second, cfg.Printer.Timeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("AUTH_LOCK_MINUTES", "30")
	t.Setenv("BUSINESS_NAME", "Disfruleg Centro")

	cfg := Load()

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 30*time.Minute, cfg.Auth.LockDuration)
	assert.Equal(t, "Disfruleg Centro", cfg.Receipt.BusinessName)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
}

func TestLocationFallback(t *testing.T) {
	app := AppConfig{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, app.Location())
}
