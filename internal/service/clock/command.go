package clock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"

	api "github.com/oshokin/window-alarm/internal/api/grpc/alarm"
	"github.com/oshokin/window-alarm/internal/config"
	"github.com/oshokin/window-alarm/internal/hardware"
	"github.com/oshokin/window-alarm/internal/logger"
	"github.com/oshokin/window-alarm/internal/metrics"
	"github.com/oshokin/window-alarm/internal/repository/settings"
	"github.com/oshokin/window-alarm/internal/service/instance"
	"github.com/oshokin/window-alarm/internal/service/scheduler"
	"github.com/oshokin/window-alarm/internal/version"
)

// metricsReadHeaderTimeout bounds slow metric scrapes.
const metricsReadHeaderTimeout = 5 * time.Second

// Options controls the alarm-clock process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// StorageFile provides an optional override of the storage image path.
	StorageFile string
	// SkipInstanceCheck allows several clocks on one machine, e.g. in tests.
	SkipInstanceCheck bool
}

// Run starts the clock loop and the control server and blocks until ctx is canceled.
//
//nolint:funlen // Process wiring reads best in one place.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-clock")

	// Load configuration first; a missing file means defaults.
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if opts.ListenAddress != "" {
		cfg.ListenAddress = opts.ListenAddress
	}

	if opts.StorageFile != "" {
		cfg.StorageFile = opts.StorageFile
	}

	if err = logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	if !opts.SkipInstanceCheck {
		if err = instance.EnsureSingle(); err != nil {
			return err
		}
	}

	storage, err := settings.OpenFileStorage(cfg.StorageFile, cfg.StorageSize)
	if err != nil {
		return err
	}

	defer func() {
		_ = storage.Close()
	}()

	sched, err := scheduler.New(logger.WithKV(ctx, "storage", storage.Path()), storage, cfg.StorageBase)
	if err != nil {
		return fmt.Errorf("initialise scheduler: %w", err)
	}

	devices, err := hardware.Open(ctx, cfg.Pins)
	if err != nil {
		return err
	}

	recorder, err := metrics.New()
	if err != nil {
		return err
	}

	location := cfg.Location()
	svc := NewService(ctx, sched, Peripherals{
		Indicator: devices.Indicator,
		Buzzer:    devices.Buzzer,
		Button:    devices.Button,
	}, recorder, func() time.Time {
		return time.Now().In(location)
	})

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddress, err)
	}

	grpcServer := grpc.NewServer()
	api.RegisterAlarmServiceServer(grpcServer, api.NewServer(svc))

	var metricsServer *http.Server
	if cfg.MetricsAddress != "" {
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           recorder.Handler(),
			ReadHeaderTimeout: metricsReadHeaderTimeout,
		}

		go func() {
			if err := metrics.Serve(metricsServer); err != nil {
				logger.ErrorKV(ctx, "Metrics server stopped", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopDone := make(chan error, 1)

	go func() {
		loopDone <- svc.Run(ctx, cfg.RefreshInterval)
	}()

	logger.InfoKV(ctx, "Alarm clock running", append(version.LogFields(),
		"listen_address", cfg.ListenAddress,
		"metrics_address", cfg.MetricsAddress,
		"storage_file", storage.Path(),
		"timezone", location.String(),
	)...)

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down control server")
		grpcServer.GracefulStop()

		if metricsServer != nil {
			_ = metricsServer.Close()
		}

		close(done)
	}()

	serveErr := grpcServer.Serve(lis)
	if serveErr != nil && errors.Is(serveErr, grpc.ErrServerStopped) {
		serveErr = nil
	}

	cancel()
	<-done

	if err = <-loopDone; err != nil {
		logger.ErrorKV(ctx, "Failed to switch peripherals off", "error", err)
	}

	if serveErr != nil {
		return fmt.Errorf("serve gRPC: %w", serveErr)
	}

	logger.Info(ctx, "Alarm clock stopped")

	return nil
}
