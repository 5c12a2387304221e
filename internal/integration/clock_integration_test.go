package integration

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/window-alarm/internal/config"
	domain "github.com/oshokin/window-alarm/internal/domain/alarm"
	"github.com/oshokin/window-alarm/internal/service/clock"
	"github.com/oshokin/window-alarm/internal/service/common"
	"github.com/oshokin/window-alarm/internal/service/control"
)

// storageBase places the record away from the start of the image.
const storageBase = 16

// reservePort returns a free local TCP address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// writeConfig stores a test configuration and returns its path.
func writeConfig(t *testing.T, dir string, cfg *config.Config) string {
	t.Helper()

	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, config.Save(path, cfg))

	return path
}

// startClock runs the alarm clock until the returned stop function is called.
func startClock(t *testing.T, cfgPath string) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- clock.Run(ctx, &clock.Options{
			ConfigPath:        cfgPath,
			SkipInstanceCheck: true,
		})
	}()

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

// dial connects to the clock and waits until it answers.
func dial(t *testing.T, addr string) *common.Client {
	t.Helper()

	c, err := common.Dial(context.Background(), addr, common.WithCallTimeout(time.Second))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := c.GetAlarm(context.Background())

		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	return c
}

// TestClock_ConfigureAndPersist configures a fresh clock over the control API,
// restarts it and checks the settings survive in the storage image.
func TestClock_ConfigureAndPersist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	addr := reservePort(t)
	storagePath := filepath.Join(dir, "eeprom.bin")

	cfgPath := writeConfig(t, dir, &config.Config{
		ListenAddress: addr,
		StorageFile:   storagePath,
		StorageBase:   storageBase,
		Timeout:       time.Second,
	})

	stop := startClock(t, cfgPath)
	c := dial(t, addr)

	ctx := context.Background()

	// A blank image is repaired to defaults.
	got, err := c.GetAlarm(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultConfig(), got.Config)
	require.Equal(t, domain.StatusOff, got.Status)

	_, err = c.SetWindow(ctx, 1320, 360)
	require.NoError(t, err)

	_, err = c.SetInterval(ctx, 20)
	require.NoError(t, err)

	got, err = c.SetEnabled(ctx, true)
	require.NoError(t, err)
	require.Equal(t, domain.StatusArmed, got.Status)
	require.True(t, got.Config.Window.Contains(got.NextFireMinute))

	require.NoError(t, c.Close())
	stop()

	image, err := os.ReadFile(storagePath)
	require.NoError(t, err)
	require.Equal(t,
		[]byte{0x01, 0x28, 0x05, 0x68, 0x01, 0x14, 0x00},
		image[storageBase:storageBase+7],
	)

	// Second run reads the persisted record back.
	stop = startClock(t, cfgPath)
	defer stop()

	c = dial(t, addr)

	defer func() {
		_ = c.Close()
	}()

	got, err = c.GetAlarm(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.Config{
		Enabled:  true,
		Window:   domain.Window{Start: 1320, End: 360},
		Interval: 20,
	}, got.Config)
	require.Equal(t, domain.StatusArmed, got.Status)

	// Oversized intervals are clamped.
	got, err = c.SetInterval(ctx, 500)
	require.NoError(t, err)
	require.Equal(t, domain.MaxInterval, got.Config.Interval)
}

// TestClock_ControlAndMetrics drives the clock through alarmctl operations
// and scrapes its metrics endpoint.
func TestClock_ControlAndMetrics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	addr := reservePort(t)
	metricsAddr := reservePort(t)

	cfgPath := writeConfig(t, dir, &config.Config{
		ListenAddress:  addr,
		MetricsAddress: metricsAddr,
		StorageFile:    filepath.Join(dir, "eeprom.bin"),
		Timeout:        time.Second,
	})

	stop := startClock(t, cfgPath)
	defer stop()

	c := dial(t, addr)
	require.NoError(t, c.Close())

	ctx := context.Background()
	opts := &control.Options{ConfigPath: cfgPath}

	window, err := control.Window("08:00", "08:00")
	require.NoError(t, err)

	for _, action := range []control.Action{control.Switch(true), window, control.Interval(15)} {
		require.NoError(t, control.Run(ctx, opts, action))
	}

	var out bytes.Buffer

	opts.Out = &out
	require.NoError(t, control.Run(ctx, opts, control.Status()))
	require.Equal(t,
		"alarm on, status armed, window 08:00-08:00, every 15 min, window is empty\n",
		out.String(),
	)

	out.Reset()
	require.NoError(t, control.Run(ctx, opts, control.Acknowledge()))
	require.Contains(t, out.String(), "status armed")

	var body string

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + metricsAddr + "/metrics") //nolint:noctx // Test scrape.
		if err != nil {
			return false
		}

		defer func() {
			_ = resp.Body.Close()
		}()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}

		body = string(data)

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	require.Contains(t, body, `window_alarm_repairs_total{field="enabled"} 1`)
	require.Contains(t, body, "window_alarm_status")
}
