package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/scrapster/internal/config"
	"codeberg.org/mutker/scrapster/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scrapster.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
interval = "5s"
log_level = "debug"
backlog = 16
read_timeout = "250ms"
skip_bootstrap = true
monitor = true
gpu = true

[sensors]
enabled = true
pwm_pin = "GPIO13"
tach_pin = "GPIO24"
pwm_frequency = 25000
duty = 60.0
pulses_per_revolution = 4
`)
	t.Setenv("SCRAPSTER_CONFIG", path)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Interval, "Expected Interval 5s")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 16, cfg.Backlog)
	assert.Equal(t, 250*time.Millisecond, cfg.ReadTimeout)
	assert.True(t, cfg.SkipBootstrap)
	assert.True(t, cfg.Monitor)
	assert.True(t, cfg.GPU)
	assert.True(t, cfg.Sensors.Enabled)
	assert.Equal(t, "GPIO13", cfg.Sensors.PWMPin)
	assert.Equal(t, "GPIO24", cfg.Sensors.TachPin)
	assert.Equal(t, 25000, cfg.Sensors.PWMFrequency)
	assert.InDelta(t, 60.0, cfg.Sensors.Duty, 1e-9)
	assert.Equal(t, 4, cfg.Sensors.PulsesPerRevolution)
	assert.Equal(t, config.DefaultAmbientDevice, cfg.Sensors.AmbientDevice)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SCRAPSTER_CONFIG", "")

	cfg, err := config.Load(nil, config.WithConfigFile(writeConfig(t, "")))
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultInterval, cfg.Interval)
	assert.Equal(t, string(config.DefaultLogLevel), cfg.LogLevel)
	assert.Equal(t, 8, cfg.Backlog)
	assert.Equal(t, config.DefaultReadTimeout, cfg.ReadTimeout)
	assert.False(t, cfg.SkipBootstrap)
	assert.False(t, cfg.Monitor)
	assert.False(t, cfg.JSON)
	assert.False(t, cfg.Once)
	assert.Equal(t, filepath.Join(os.TempDir(), "scrapster.pid"), cfg.PIDFile)
	assert.False(t, cfg.GPU)
	assert.False(t, cfg.Sensors.Enabled)
	assert.Equal(t, config.DefaultPWMPin, cfg.Sensors.PWMPin)
	assert.Equal(t, config.DefaultTachPin, cfg.Sensors.TachPin)
	assert.Equal(t, 2, cfg.Sensors.PulsesPerRevolution)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	t.Setenv("SCRAPSTER_CONFIG", writeConfig(t, `
This is not a valid TOML file
`))

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestInvalidLogLevel(t *testing.T) {
	t.Setenv("SCRAPSTER_CONFIG", writeConfig(t, `log_level = "invalid"`))

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
	assert.Contains(t, err.Error(), "invalid_log_level")
}

func TestFlagsOverrideFileAndEnv(t *testing.T) {
	t.Setenv("SCRAPSTER_CONFIG", writeConfig(t, `
interval = "5s"
log_level = "error"
`))
	t.Setenv("SCRAPSTER_LOG_LEVEL", "warning")

	cfg, err := config.Load([]string{"--interval", "250ms", "--sensors", "--once"})
	require.NoError(t, err)
	assert.True(t, cfg.Once)

	assert.Equal(t, 250*time.Millisecond, cfg.Interval, "flag wins over file")
	assert.Equal(t, "warning", cfg.LogLevel, "env wins over file")
	assert.True(t, cfg.Sensors.Enabled)
}

func TestNestedEnv(t *testing.T) {
	t.Setenv("SCRAPSTER_CONFIG", writeConfig(t, ""))
	t.Setenv("SCRAPSTER_SENSORS_PULSES_PER_REVOLUTION", "3")

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Sensors.PulsesPerRevolution)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Interval:    time.Second,
			LogLevel:    "info",
			Backlog:     8,
			ReadTimeout: time.Second,
			Sensors: config.Sensors{
				Enabled:             true,
				PWMPin:              "GPIO12",
				TachPin:             "GPIO18",
				PWMFrequency:        1000,
				Duty:                100,
				PulsesPerRevolution: 2,
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		code   errors.ErrorCode
	}{
		{"zero interval", func(c *config.Config) { c.Interval = 0 }, errors.ErrInvalidInterval},
		{"negative interval", func(c *config.Config) { c.Interval = -time.Second }, errors.ErrInvalidInterval},
		{"zero backlog", func(c *config.Config) { c.Backlog = 0 }, errors.ErrInvalidBacklog},
		{"zero read timeout", func(c *config.Config) { c.ReadTimeout = 0 }, errors.ErrInvalidReadTimeout},
		{"zero pulses", func(c *config.Config) { c.Sensors.PulsesPerRevolution = 0 }, errors.ErrInvalidSensorConfig},
		{"duty above 100", func(c *config.Config) { c.Sensors.Duty = 120 }, errors.ErrInvalidSensorConfig},
		{"missing tach pin", func(c *config.Config) { c.Sensors.TachPin = "" }, errors.ErrInvalidSensorConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}

	cfg := valid()
	cfg.Sensors = config.Sensors{}
	assert.NoError(t, cfg.Validate(), "sensor fields are ignored while disabled")
}
