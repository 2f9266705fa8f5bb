// Package cli provides configuration management commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gentlesite/gentle-phone-transfer/internal/config"
	ihttp "github.com/gentlesite/gentle-phone-transfer/internal/http"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage gentle-phone-transfer settings",
		Long: `Settings management commands for gentle-phone-transfer.

Settings are stored in an INI file, separate from the pairing record.

Commands:
  show  - Display current settings
  path  - Show settings and pairing file paths
  set   - Change one setting`,
	}

	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())
	configCmd.AddCommand(newConfigSetCmd())

	return configCmd
}

// resolvedSettingsPath returns the --settings value or the default path.
func resolvedSettingsPath() string {
	if settingsPath != "" {
		return settingsPath
	}
	return config.SettingsFilePath()
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.LoadSettings(settingsPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Current Settings")
			fmt.Fprintln(out, "================")
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Network:")
			fmt.Fprintf(out, "  Proxy Mode:      %s\n", s.Network.ProxyMode)
			if s.Network.ProxyHost != "" {
				fmt.Fprintf(out, "  Proxy Host:      %s\n", s.Network.ProxyHost)
				fmt.Fprintf(out, "  Proxy Port:      %d\n", s.Network.ProxyPort)
			}
			if s.Network.ProxyUser != "" {
				fmt.Fprintf(out, "  Proxy User:      %s\n", s.Network.ProxyUser)
			}
			if ihttp.NeedsProxyPassword(s) {
				fmt.Fprintln(out, "  Proxy Password:  <not set>")
			} else if s.Network.ProxyPassword != "" {
				fmt.Fprintln(out, "  Proxy Password:  <set>")
			}
			if s.Network.NoProxy != "" {
				fmt.Fprintf(out, "  No Proxy:        %s\n", s.Network.NoProxy)
			}
			fmt.Fprintf(out, "  Request Timeout: %s\n", s.RequestTimeout())
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Heartbeat:")
			fmt.Fprintf(out, "  Interval:        %s\n", s.HeartbeatInterval())
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Notifications:")
			fmt.Fprintf(out, "  Enabled:         %t\n", s.Notifications.Enabled)

			if err := s.Validate(); err != nil {
				fmt.Fprintln(out)
				fmt.Fprintf(out, "Warning: %v (defaults are used at runtime)\n", err)
			}
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show settings and pairing file paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Settings: %s\n", resolvedSettingsPath())
			fmt.Fprintf(out, "Pairing:  %s\n", config.PairingFilePath())
			fmt.Fprintf(out, "Logs:     %s\n", config.LogDirectory())
			return nil
		},
	}
}

// newConfigSetCmd creates the 'config set' command.
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting",
		Long: `Change one setting and save the settings file.

Keys:
  ` + strings.Join(config.SettingKeys(), "\n  ") + `

Examples:
  gentle-phone-transfer config set heartbeat.interval_seconds 600
  gentle-phone-transfer config set network.proxy_mode no-proxy
  gentle-phone-transfer config set notifications.enabled false`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.SettingKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolvedSettingsPath()

			s, err := config.LoadSettings(path)
			if err != nil {
				return err
			}
			if err := s.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.SaveSettings(s, path); err != nil {
				return err
			}

			GetLogger().Debug().Str("key", args[0]).Str("path", path).Msg("Setting saved")
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", strings.ToLower(args[0]))
			return nil
		},
	}
}
