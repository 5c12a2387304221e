package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/window-alarm/internal/config"
	"github.com/oshokin/window-alarm/internal/service/control"
	"github.com/oshokin/window-alarm/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the control address from config.
	serverAddress string

	// rootCmd prints the alarm state when called without a subcommand.
	rootCmd = &cobra.Command{
		Use:   "alarmctl",
		Short: "Inspect and configure the alarm clock.",
		Long: `Talks to a running alarm-clock over its control API.

Without a subcommand prints the current state: switch, status, window,
interval and the next firing time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, control.Status())
		},
	}

	onCmd = &cobra.Command{
		Use:   "on",
		Short: "Switch the alarm on.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, control.Switch(true))
		},
	}

	offCmd = &cobra.Command{
		Use:   "off",
		Short: "Switch the alarm off.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, control.Switch(false))
		},
	}

	windowCmd = &cobra.Command{
		Use:   "window <start HH:MM> <end HH:MM>",
		Short: "Set the alarm window.",
		Long: `Sets the daily window in which the alarm rings.

The end is exclusive. An end earlier than the start makes the window cross
midnight, equal bounds disable ringing entirely.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := control.Window(args[0], args[1])
			if err != nil {
				return err
			}

			return run(cmd, action)
		},
	}

	intervalCmd = &cobra.Command{
		Use:   "interval <minutes>",
		Short: "Set minutes between firings.",
		Long:  "Sets the number of minutes between firings inside the window. Values above 180 are clamped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("interval: %w", err)
			}

			return run(cmd, control.Interval(uint32(minutes)))
		},
	}

	ackCmd = &cobra.Command{
		Use:     "ack",
		Aliases: []string{"acknowledge"},
		Short:   "Silence the ringing alarm until the next firing.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, control.Acknowledge())
		},
	}
)

func run(cmd *cobra.Command, action control.Action) error {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return control.Run(ctx, &control.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
		Out:           cmd.OutOrStdout(),
	}, action)
}

// Execute runs the alarmctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "a", "", "control address of the clock, overrides config")

	rootCmd.AddCommand(onCmd, offCmd, windowCmd, intervalCmd, ackCmd)
}
