package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DEV", "1")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Database.StoreTimeout)
	assert.Equal(t, 14, cfg.App.TrialDays)
	assert.Equal(t, "logos", cfg.Storage.Bucket)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.Admin.Emails)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DEV", "true")
	t.Setenv("PORT", "9999")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_STORE_TIMEOUT", "750ms")
	t.Setenv("ADMIN_EMAILS", "ops@example.com,boss@example.com")
	t.Setenv("TRACK_BURST", "3")
	t.Setenv("TRACK_TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.1")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 750*time.Millisecond, cfg.Database.StoreTimeout)
	assert.Equal(t, []string{"ops@example.com", "boss@example.com"}, cfg.Admin.Emails)
	assert.Equal(t, 3, cfg.Tracking.Burst)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.Tracking.TrustedProxies)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TRIAL_DAYS=30\nDEV=1\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("TRIAL_DAYS")
		os.Unsetenv("DEV")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.App.TrialDays)
}

func TestLoad_RejectsDevSecretInProduction(t *testing.T) {
	t.Setenv("DEV", "0")
	t.Setenv("SESSION_SECRET", "")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: "postgres"},
			App:      AppConfig{Dev: false},
			Auth:     AuthConfig{Secret: "s3cret"},
			Tracking: TrackingConfig{RatePerSecond: 1, Burst: 1},
		}
	}
	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Database.Driver = "mysql"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Auth.Secret = DevSessionSecret
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Tracking.Burst = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Tracking.TrustedProxies = []string{"10.0.0.0/8", "not-a-cidr"}
	require.Error(t, cfg.Validate())
}

func TestTrackingConfig_TrustedProxyNets(t *testing.T) {
	tc := TrackingConfig{TrustedProxies: []string{"10.0.0.0/8", " 192.0.2.1 ", "", "2001:db8::/32"}}
	nets, err := tc.TrustedProxyNets()
	require.NoError(t, err)
	require.Len(t, nets, 3)
	assert.Equal(t, "10.0.0.0/8", nets[0].String())
	assert.Equal(t, "192.0.2.1/32", nets[1].String())
	assert.Equal(t, "2001:db8::/32", nets[2].String())

	nets, err = TrackingConfig{}.TrustedProxyNets()
	require.NoError(t, err)
	assert.Empty(t, nets)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "repairs", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=repairs sslmode=disable", d.DSN())
	assert.Equal(t, "postgres://u:p@db:5433/repairs?sslmode=disable", d.URL())
}
