package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks format validations and defaults for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))

	// Defaults.
	settings := new(Config)
	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultListenAddress, settings.ListenAddress)
	require.Equal(t, DefaultStorageFilename, settings.StorageFile)
	require.Equal(t, DefaultStorageSize, settings.StorageSize)
	require.Equal(t, DefaultRefreshInterval, settings.RefreshInterval)
	require.Equal(t, DefaultTimeout, settings.Timeout)

	// Bad address.
	settings = &Config{ListenAddress: "bad:address"}
	require.Error(t, Validate(settings))

	// Record does not fit.
	settings = &Config{StorageSize: 16, StorageBase: 10}
	require.ErrorIs(t, Validate(settings), errStorageOutOfRange)

	// Unknown timezone.
	settings = &Config{Timezone: "Mars/Olympus_Mons"}
	require.Error(t, Validate(settings))

	// Unknown log level.
	settings = &Config{LogLevel: "chatty"}
	require.ErrorIs(t, Validate(settings), errUnknownLogLevel)

	settings = &Config{LogFormat: "xml"}
	require.ErrorIs(t, Validate(settings), errUnknownLogFormat)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	settings := &Config{
		ListenAddress:   "127.0.0.1:50070",
		MetricsAddress:  "127.0.0.1:9100",
		StorageFile:     "/var/lib/window-alarm/eeprom.bin",
		StorageBase:     16,
		Timezone:        "UTC",
		RefreshInterval: 250 * time.Millisecond,
		LogLevel:        "debug",
		LogFormat:       "json",
		Pins: Pins{
			Red:    "GPIO17",
			Green:  "GPIO27",
			Buzzer: "GPIO22",
			Button: "GPIO23",
		},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoadOrDefault falls back to defaults for a missing file only.
func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("listen_addr: [\n"), DefaultFilePermissions))

	_, err = LoadOrDefault(broken)
	require.Error(t, err)
}

// TestLocation returns UTC for an empty timezone.
func TestLocation(t *testing.T) {
	t.Parallel()

	require.Equal(t, time.UTC, Default().Location())
}
