package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOSPITAL_JWT_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Scheduling.HorizonDays)
	assert.Equal(t, 24*time.Hour, cfg.Scheduling.CancellationWindow)
	assert.Equal(t, 3, cfg.Scheduling.IdentifierRetries)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)

	loc, err := cfg.Scheduling.TimeZone()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadConfigFileAndSecrets(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	yaml := []byte(`
database:
  host: db.internal
  password: from-file
jwt:
  secret: file-secret
scheduling:
  horizon_days: 14
  cancellation_window: 12h
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("HOSPITAL_DB_PASSWORD", "from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, 14, cfg.Scheduling.HorizonDays)
	assert.Equal(t, 12*time.Hour, cfg.Scheduling.CancellationWindow)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
}

func TestValidate(t *testing.T) {
	cfg := Config{
		JWT:        JWTConfig{Secret: "x"},
		Scheduling: SchedulingConfig{HorizonDays: 7, Location: "Mars/Olympus"},
	}
	assert.Error(t, cfg.Validate())

	cfg.Scheduling.Location = "UTC"
	assert.NoError(t, cfg.Validate())

	cfg.JWT.Secret = ""
	assert.Error(t, cfg.Validate())
}
