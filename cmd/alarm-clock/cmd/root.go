package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/window-alarm/internal/config"
	"github.com/oshokin/window-alarm/internal/service/clock"
	"github.com/oshokin/window-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// storageFile path of the EEPROM image holding the alarm settings.
	storageFile string
	// skipInstanceCheck allows a second clock to run next to the first one.
	skipInstanceCheck bool

	// rootCmd represents the base command for running the alarm clock.
	rootCmd = &cobra.Command{
		Use:   "alarm-clock [listen-address]",
		Short: "Run the windowed repeating alarm clock.",
		Long: `Starts the alarm clock that rings repeatedly inside a daily time window.

The clock reads its switch, window and interval from the EEPROM image,
repairs invalid values and keeps ringing every interval minutes while the
current time is inside the window. A button press or an alarmctl call
silences the current ring until the next one.

Listen address of the control API can be provided as argument to override config (e.g., :50061).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return clock.Run(ctx, &clock.Options{
				ConfigPath:        configPath,
				ListenAddress:     listenAddress,
				StorageFile:       storageFile,
				SkipInstanceCheck: skipInstanceCheck,
			})
		},
	}
)

// Execute runs the alarm-clock CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&storageFile, "storage-file", "s", "", "path to the EEPROM image, overrides config")

	// Hidden flag for running several clocks on one machine.
	rootCmd.Flags().BoolVar(&skipInstanceCheck, "skip-instance-check", false, "do not look for other running clocks")

	err := rootCmd.Flags().MarkHidden("skip-instance-check")
	if err != nil {
		panic(err)
	}
}
