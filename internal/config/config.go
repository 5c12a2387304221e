package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/window-alarm/internal/logger"
)

// Pins names the GPIO lines used by the clock. Empty names disable the device.
type Pins struct {
	// Red is the LED lit while armed outside the window.
	Red string `yaml:"red"`
	// Green is the LED lit while armed inside the window and blinking while ringing.
	Green string `yaml:"green"`
	// Buzzer sounds while the alarm is ringing.
	Buzzer string `yaml:"buzzer"`
	// Button acknowledges a ringing alarm on its falling edge.
	Button string `yaml:"button"`
}

// Config holds the parameters shared by the alarm binaries.
type Config struct {
	// ListenAddress is the gRPC control address served by alarm-clock and dialed by alarmctl.
	ListenAddress string `yaml:"listen_addr"`
	// MetricsAddress is the optional HTTP address exposing Prometheus metrics.
	MetricsAddress string `yaml:"metrics_addr"`
	// StorageFile is the path of the emulated EEPROM image.
	StorageFile string `yaml:"storage_file"`
	// StorageBase is the offset of the alarm record inside the image.
	StorageBase int `yaml:"storage_base"`
	// StorageSize is the size of the image in bytes.
	StorageSize int `yaml:"storage_size"`
	// Timezone is the IANA location used to read the wall clock.
	Timezone string `yaml:"timezone"`
	// RefreshInterval is the period of the clock loop and the LED blink phase.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// Timeout is the duration for RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level of emitted log messages.
	LogLevel string `yaml:"log_level"`
	// LogFormat is either console or json.
	LogFormat string `yaml:"log_format"`
	// Pins configures the GPIO devices.
	Pins Pins `yaml:"pins"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "window-alarm-settings.yaml"

	// DefaultStorageFilename is the default filename of the storage image.
	DefaultStorageFilename = "window-alarm-eeprom.bin"

	// DefaultStorageSize matches a 1 KiB microcontroller EEPROM.
	DefaultStorageSize = 1024

	// DefaultListenAddress is the default control address.
	DefaultListenAddress = "127.0.0.1:50061"

	// DefaultRefreshInterval is the LED blink period.
	DefaultRefreshInterval = 200 * time.Millisecond

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// recordSize is the footprint of the alarm record in the storage image.
	recordSize = 7
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errStorageOutOfRange is returned when the record does not fit into the image.
	errStorageOutOfRange = errors.New("alarm record does not fit into storage")
	// errUnknownLogLevel is returned for an unparsable log level.
	errUnknownLogLevel = errors.New("unknown log level")
	// errUnknownLogFormat is returned for an unparsable log format.
	errUnknownLogFormat = errors.New("unknown log format")
)

// Default returns a configuration with every default filled in.
func Default() *Config {
	cfg := new(Config)

	//nolint:errcheck // Defaults always validate.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ListenAddress == "" {
		settings.ListenAddress = DefaultListenAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if settings.MetricsAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.MetricsAddress); err != nil {
			return fmt.Errorf("invalid metrics address: %w", err)
		}
	}

	if settings.StorageFile == "" {
		settings.StorageFile = DefaultStorageFilename
	}

	if settings.StorageSize <= 0 {
		settings.StorageSize = DefaultStorageSize
	}

	if settings.StorageBase < 0 || settings.StorageBase+recordSize > settings.StorageSize {
		return fmt.Errorf("%w: base %d, size %d", errStorageOutOfRange, settings.StorageBase, settings.StorageSize)
	}

	if _, err := time.LoadLocation(settings.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	if settings.RefreshInterval <= 0 {
		settings.RefreshInterval = DefaultRefreshInterval
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	if _, ok := logger.ParseFormat(settings.LogFormat); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogFormat, settings.LogFormat)
	}

	return nil
}

// Location returns the configured timezone; an empty name means UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}

	return loc
}
