package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gentlesite/gentle-phone-transfer/internal/config"
	"github.com/gentlesite/gentle-phone-transfer/internal/constants"
	"github.com/gentlesite/gentle-phone-transfer/internal/heartbeat"
	"github.com/gentlesite/gentle-phone-transfer/internal/logging"
	"github.com/gentlesite/gentle-phone-transfer/internal/pairing"
)

// newHeartbeatCmd creates the 'heartbeat' command. Without a subcommand it
// sends a single heartbeat.
func newHeartbeatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heartbeat",
		Short: "Tell the paired site this computer is ready",
		Long: `Send a single heartbeat to the paired site.

Prints "alive" when the site accepted it and "not reported" when this
computer is not paired or the site rejected it. Network failures are errors.

Use 'heartbeat run' to keep reporting in the foreground.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(loadSettings(), GetLogger())
			if err != nil {
				return err
			}

			ok, err := svc.Heartbeat(GetContext())
			if err != nil {
				return err
			}

			if ok {
				fmt.Fprintln(cmd.OutOrStdout(), "alive")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "not reported")
			}
			return nil
		},
	}

	cmd.AddCommand(newHeartbeatRunCmd())
	return cmd
}

// newHeartbeatRunCmd creates the 'heartbeat run' command.
func newHeartbeatRunCmd() *cobra.Command {
	var (
		interval string
		logFile  string
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send heartbeats periodically until stopped",
		Long: `Run the heartbeat loop in the foreground. One heartbeat is sent
immediately, then one per interval. Runs never overlap and missed beats are
not replayed.

Logs go to the console and to a rotating log file.
Press Ctrl+C to stop.

Examples:
  # Use the interval from settings.ini (default 5m)
  gentle-phone-transfer heartbeat run

  # Report every minute, logging to a custom file
  gentle-phone-transfer heartbeat run --interval 1m --log-file /tmp/heartbeat.log`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := loadSettings()

			every := settings.HeartbeatInterval()
			if interval != "" {
				d, err := time.ParseDuration(interval)
				if err != nil {
					return fmt.Errorf("invalid interval %q: %w", interval, err)
				}
				every = d
			}
			if err := validateInterval(every); err != nil {
				return err
			}

			if logFile != "" {
				if err := os.MkdirAll(filepath.Dir(logFile), 0700); err != nil {
					return fmt.Errorf("failed to create log directory: %w", err)
				}
			}

			daemonLogger := logging.NewDaemonLogger(logFile, !quiet)
			defer daemonLogger.Close()

			svc, err := newService(settings, daemonLogger)
			if err != nil {
				return err
			}

			return runHeartbeats(cmd, svc, every, settings, daemonLogger, logFile)
		},
	}

	cmd.Flags().StringVar(&interval, "interval", "", "Time between heartbeats, e.g. 30s, 5m, 1h (default from settings)")
	cmd.Flags().StringVar(&logFile, "log-file", config.DefaultLogFile(), "Rotating log file (empty = console only)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not log to the console")

	return cmd
}

// runHeartbeats runs the runner until the CLI context is cancelled.
func runHeartbeats(cmd *cobra.Command, svc *pairing.Service, every time.Duration, settings *config.Settings, logger *logging.Logger, logFile string) error {
	out := cmd.OutOrStdout()
	status := svc.Status()

	fmt.Fprintln(out, "======================================================================")
	fmt.Fprintln(out, "  GENTLE PHONE TRANSFER HEARTBEAT")
	fmt.Fprintln(out, "======================================================================")
	if status.Paired && status.Site != nil {
		fmt.Fprintf(out, "Site: %s\n", *status.Site)
	} else {
		fmt.Fprintln(out, "Site: not paired (heartbeats are skipped until pairing)")
	}
	fmt.Fprintf(out, "Interval: %s\n", every)
	if logFile != "" {
		fmt.Fprintf(out, "Log File: %s\n", logFile)
	}
	fmt.Fprintln(out, "----------------------------------------------------------------------")
	fmt.Fprintln(out, "Press Ctrl+C to stop")
	fmt.Fprintln(out)

	ctx := GetContext()
	runner := heartbeat.NewRunner(svc, every, newNotifier(settings, logger), logger)
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start heartbeat runner: %w", err)
	}

	<-ctx.Done()

	if err := runner.Stop(); err != nil {
		return err
	}

	if last, ok := runner.LastResult(); ok {
		logger.Info().
			Int("beats", runner.Beats()).
			Bool("alive", last.Alive).
			Time("last", last.At).
			Msg("Heartbeat loop finished")
	}
	return nil
}

func validateInterval(d time.Duration) error {
	if d < constants.MinHeartbeatInterval {
		return fmt.Errorf("interval must be at least %s", constants.MinHeartbeatInterval)
	}
	if d > constants.MaxHeartbeatInterval {
		return fmt.Errorf("interval must be at most %s", constants.MaxHeartbeatInterval)
	}
	return nil
}
