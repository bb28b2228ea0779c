package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/scrapster/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultInterval            = time.Second
	DefaultLogLevel            = LogLevelInfo
	DefaultBacklog             = 8
	DefaultReadTimeout         = 500 * time.Millisecond
	DefaultPWMPin              = "GPIO12"
	DefaultTachPin             = "GPIO18"
	DefaultPWMFrequency        = 1000
	DefaultDuty                = 100.0
	DefaultPulsesPerRevolution = 2
	DefaultAmbientDevice       = "/sys/bus/iio/devices/iio:device*"

	defaultEnvPrefix  = "SCRAPSTER"
	defaultConfigName = "scrapster"
	defaultConfigDir  = "/etc"
)

// DefaultPIDFile lives in the temporary directory so unprivileged runs
// can write it.
var DefaultPIDFile = filepath.Join(os.TempDir(), "scrapster.pid")

type Config struct {
	Interval      time.Duration `mapstructure:"interval"`
	LogLevel      string        `mapstructure:"log_level"`
	Backlog       int           `mapstructure:"backlog"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	SkipBootstrap bool          `mapstructure:"skip_bootstrap"`
	Monitor       bool          `mapstructure:"monitor"`
	JSON          bool          `mapstructure:"json"`
	Once          bool          `mapstructure:"once"`
	PIDFile       string        `mapstructure:"pid_file"`
	GPU           bool          `mapstructure:"gpu"`
	Sensors       Sensors       `mapstructure:"sensors"`
}

// Sensors configures the optional fan/ambient hardware.
type Sensors struct {
	Enabled             bool    `mapstructure:"enabled"`
	PWMPin              string  `mapstructure:"pwm_pin"`
	TachPin             string  `mapstructure:"tach_pin"`
	PWMFrequency        int     `mapstructure:"pwm_frequency"`
	Duty                float64 `mapstructure:"duty"`
	PulsesPerRevolution int     `mapstructure:"pulses_per_revolution"`
	AmbientDevice       string  `mapstructure:"ambient_device"`
}

// Load reads configuration from defaults, the TOML config file,
// environment variables and args, in increasing precedence. args
// excludes the program name.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.NewFactory()

	o := &options{envPrefix: defaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	if err := bindFlags(v, fs); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	path := o.configPath
	if flagPath, _ := fs.GetString("config"); flagPath != "" {
		path = flagPath
	}
	if path == "" {
		path = os.Getenv(o.envPrefix + "_CONFIG")
	}

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("log_level", string(DefaultLogLevel))
	v.SetDefault("backlog", DefaultBacklog)
	v.SetDefault("read_timeout", DefaultReadTimeout)
	v.SetDefault("skip_bootstrap", false)
	v.SetDefault("monitor", false)
	v.SetDefault("json", false)
	v.SetDefault("once", false)
	v.SetDefault("pid_file", DefaultPIDFile)
	v.SetDefault("gpu", false)
	v.SetDefault("sensors.enabled", false)
	v.SetDefault("sensors.pwm_pin", DefaultPWMPin)
	v.SetDefault("sensors.tach_pin", DefaultTachPin)
	v.SetDefault("sensors.pwm_frequency", DefaultPWMFrequency)
	v.SetDefault("sensors.duty", DefaultDuty)
	v.SetDefault("sensors.pulses_per_revolution", DefaultPulsesPerRevolution)
	v.SetDefault("sensors.ambient_device", DefaultAmbientDevice)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("scrapster", pflag.ContinueOnError)
	fs.String("config", "", "Path to the configuration file")
	fs.Duration("interval", DefaultInterval, "Sampling interval")
	fs.String("log-level", string(DefaultLogLevel), "Log level (debug, info, warning, error)")
	fs.Int("backlog", DefaultBacklog, "Snapshots retained per slow subscriber")
	fs.Duration("read-timeout", DefaultReadTimeout, "Upper bound for a single source read")
	fs.Bool("skip-bootstrap", false, "Do not publish the first (since-boot) snapshot")
	fs.Bool("monitor", false, "Log every snapshot")
	fs.Bool("json", false, "Write every snapshot to stdout as a JSON line")
	fs.Bool("once", false, "Print one snapshot covering a single interval as JSON and exit")
	fs.String("pid-file", DefaultPIDFile, "PID file path, empty to disable")
	fs.Bool("gpu", false, "Read NVIDIA GPU sensors")
	fs.Bool("sensors", false, "Enable fan and ambient sensors")

	return fs
}

var flagKeys = map[string]string{
	"interval":       "interval",
	"log-level":      "log_level",
	"backlog":        "backlog",
	"read-timeout":   "read_timeout",
	"skip-bootstrap": "skip_bootstrap",
	"monitor":        "monitor",
	"json":           "json",
	"once":           "once",
	"pid-file":       "pid_file",
	"gpu":            "gpu",
	"sensors":        "sensors.enabled",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return err
		}
	}

	return nil
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.NewFactory()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
		return nil
	}

	v.SetConfigName(defaultConfigName)
	v.SetConfigType("toml")
	v.AddConfigPath(defaultConfigDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	errFactory := errors.NewFactory()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval.String())
	}
	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.Backlog < 1 {
		return errFactory.WithData(errors.ErrInvalidBacklog, c.Backlog)
	}
	if c.ReadTimeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidReadTimeout, c.ReadTimeout.String())
	}

	if c.Sensors.Enabled {
		switch {
		case c.Sensors.PulsesPerRevolution < 1:
			return errFactory.WithData(errors.ErrInvalidSensorConfig, "pulses_per_revolution must be at least 1")
		case c.Sensors.Duty < 0 || c.Sensors.Duty > 100:
			return errFactory.WithData(errors.ErrInvalidSensorConfig, "duty must be within 0-100")
		case c.Sensors.PWMFrequency <= 0:
			return errFactory.WithData(errors.ErrInvalidSensorConfig, "pwm_frequency must be positive")
		case c.Sensors.PWMPin == "" || c.Sensors.TachPin == "":
			return errFactory.WithData(errors.ErrInvalidSensorConfig, "pwm_pin and tach_pin are required")
		}
	}

	return nil
}
