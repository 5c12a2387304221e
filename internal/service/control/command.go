package control

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/window-alarm/internal/config"
	domain "github.com/oshokin/window-alarm/internal/domain/alarm"
	"github.com/oshokin/window-alarm/internal/logger"
	"github.com/oshokin/window-alarm/internal/service/common"
)

// Options configures how alarmctl reaches the clock.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides the control address from config when specified.
	ServerAddress string
	// Out receives the printed state; os.Stdout when nil.
	Out io.Writer
}

// Action is one control call.
type Action func(ctx context.Context, client *common.Client) (domain.Snapshot, error)

// Status reads the state without changing it.
func Status() Action {
	return func(ctx context.Context, client *common.Client) (domain.Snapshot, error) {
		return client.GetAlarm(ctx)
	}
}

// Switch turns the alarm on or off.
func Switch(enabled bool) Action {
	return func(ctx context.Context, client *common.Client) (domain.Snapshot, error) {
		return client.SetEnabled(ctx, enabled)
	}
}

// Window sets the window bounds given as HH:MM.
func Window(start, end string) (Action, error) {
	startMinute, err := domain.ParseMinute(start)
	if err != nil {
		return nil, fmt.Errorf("window start: %w", err)
	}

	endMinute, err := domain.ParseMinute(end)
	if err != nil {
		return nil, fmt.Errorf("window end: %w", err)
	}

	return func(ctx context.Context, client *common.Client) (domain.Snapshot, error) {
		return client.SetWindow(ctx, startMinute, endMinute)
	}, nil
}

// Interval sets the firing interval in minutes.
func Interval(minutes uint32) Action {
	return func(ctx context.Context, client *common.Client) (domain.Snapshot, error) {
		return client.SetInterval(ctx, minutes)
	}
}

// Acknowledge silences a ringing alarm.
func Acknowledge() Action {
	return func(ctx context.Context, client *common.Client) (domain.Snapshot, error) {
		return client.Acknowledge(ctx)
	}
}

// Run connects to the clock, performs action and prints the resulting state.
func Run(ctx context.Context, opts *Options, action Action) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarmctl")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ListenAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Calling alarm clock", "server_address", serverAddress)

	snapshot, err := action(ctx, client)
	if err != nil {
		return err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	_, err = fmt.Fprintln(out, Format(snapshot))

	return err
}

// Format renders the state as one human-readable line.
func Format(snapshot domain.Snapshot) string {
	switchState := "off"
	if snapshot.Config.Enabled {
		switchState = "on"
	}

	line := fmt.Sprintf("alarm %s, status %s, window %s, every %d min",
		switchState,
		snapshot.Status,
		snapshot.Config.Window,
		snapshot.Config.Interval,
	)

	if snapshot.Config.Window.IsEmpty() {
		return line + ", window is empty"
	}

	if snapshot.Status == domain.StatusOff {
		return line
	}

	return line + ", next at " + domain.FormatMinute(snapshot.NextFireMinute)
}
