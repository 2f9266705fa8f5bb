// Package cli provides the command-line interface for gentle-phone-transfer.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gentlesite/gentle-phone-transfer/internal/config"
	ihttp "github.com/gentlesite/gentle-phone-transfer/internal/http"
	"github.com/gentlesite/gentle-phone-transfer/internal/logging"
	"github.com/gentlesite/gentle-phone-transfer/internal/notify"
	"github.com/gentlesite/gentle-phone-transfer/internal/pairing"
	"github.com/gentlesite/gentle-phone-transfer/internal/version"
)

// DebugEnvVar enables debug logging when set to any non-empty value.
const DebugEnvVar = "GPT_DEBUG"

var (
	// Global flags
	settingsPath string
	verbose      bool
	debug        bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// newService builds the pairing service for a command. Replaced in tests.
var newService = func(settings *config.Settings, logger *logging.Logger) (*pairing.Service, error) {
	return pairing.NewDefaultService(settings, logger)
}

// newNotifier builds the desktop notifier from settings. Replaced in tests.
var newNotifier = func(settings *config.Settings, logger *logging.Logger) *notify.Notifier {
	return notify.NewNotifier(&notify.Config{
		Enabled:              settings.Notifications.Enabled,
		ShowHeartbeatChanges: true,
	}, logger)
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gentle-phone-transfer",
		Short: "Pair this computer with a Gentle site and report that it is ready",
		Long: `Gentle Phone Transfer ` + version.Version + ` - Built: ` + version.BuildTime + `
Pairs this computer with a WordPress site running the Gentle phone transfer
plugin using a one-time pairing code, then reports liveness so the site knows
the computer is ready to receive transfers.

Local state lives in ~/.gentlesite:
  gentle-phone-transfer.json  pairing record (site, device id, token)
  settings.ini                network, heartbeat and notification settings
  logs/                       heartbeat daemon logs`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultCLILogger()
			if verbose || debug || os.Getenv(DebugEnvVar) != "" {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Settings file path (default ~/.gentlesite/settings.ini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for gentle-phone-transfer.

QUICK START:

  zsh:
    gentle-phone-transfer completion zsh > "${fpath[1]}/_gentle-phone-transfer"

  bash:
    source <(gentle-phone-transfer completion bash)

  fish:
    gentle-phone-transfer completion fish > ~/.config/fish/completions/gentle-phone-transfer.fish

  PowerShell:
    gentle-phone-transfer completion powershell | Out-String | Invoke-Expression`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			default:
				return rootCmd.GenPowerShellCompletion(out)
			}
		},
	}
	rootCmd.AddCommand(completionCmd)

	// Disable default completion command (we're adding our own above)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			// nil once the channel is closed
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, stopping...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newPairCmd())
	rootCmd.AddCommand(newHeartbeatCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// loadSettings reads the settings file named by --settings. A broken file is
// reported and replaced by defaults so pairing and heartbeats keep working.
func loadSettings() *config.Settings {
	s, err := config.LoadSettings(settingsPath)
	if err != nil {
		GetLogger().Warn().Err(err).Msg("Failed to load settings, using defaults")
		return config.NewSettings()
	}
	if err := s.Validate(); err != nil {
		GetLogger().Warn().Err(err).Msg("Invalid settings, using defaults")
		return config.NewSettings()
	}

	if ihttp.NeedsProxyPassword(s) && stdinIsTerminal() {
		fmt.Fprintf(os.Stderr, "Proxy password for %s: ", s.Network.ProxyUser)
		password, err := readSecret()
		fmt.Fprintln(os.Stderr)
		if err != nil {
			GetLogger().Warn().Err(err).Msg("Failed to read proxy password")
		} else {
			s.Network.ProxyPassword = strings.TrimSpace(password)
		}
	}
	return s
}
