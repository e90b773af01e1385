package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, float64(10), cfg.Server.RateLimitPerSec)
	assert.Equal(t, 5, cfg.Server.RateLimitBurst)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 2*time.Second, cfg.Database.OpTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Booking.SweepInterval)
	assert.Equal(t, 0, cfg.Booking.MaxActivePerUser)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Push.Enabled())
}

func TestLoad_Booking(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
database:
  driver: sqlite
  dsn: "file::memory:"
  op_timeout_ms: 500
booking:
  timezone: UTC
  windows: ["08:00-10:00", "10:00-12:00"]
  max_active_per_user: 2
  sweep_interval_seconds: 60
  block_cancels_bookings: true
  machines:
    - id: M1
      name: Washer 1
`))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Database.OpTimeout)
	assert.Equal(t, []string{"08:00-10:00", "10:00-12:00"}, cfg.Booking.Windows)
	assert.Equal(t, 2, cfg.Booking.MaxActivePerUser)
	assert.Equal(t, time.Minute, cfg.Booking.SweepInterval)
	assert.True(t, cfg.Booking.BlockCancelsBookings)
	assert.Equal(t, []MachineSeed{{ID: "M1", Name: "Washer 1"}}, cfg.Booking.Machines)

	loc, err := cfg.Booking.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBookingConfig_Location(t *testing.T) {
	_, err := BookingConfig{Timezone: "Not/AZone"}.Location()
	assert.Error(t, err)

	loc, err := BookingConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}
