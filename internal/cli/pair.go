package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newPairCmd creates the 'pair' command.
func newPairCmd() *cobra.Command {
	var site, code string

	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Pair this computer with a site using a one-time code",
		Long: `Pair this computer with a site.

Generate a pairing code in the site's admin screen, then run:

  gentle-phone-transfer pair --site https://example.com --code ABC123

When --code is omitted and a terminal is attached, the code is prompted for.
Pairing again replaces any previous pairing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			if strings.TrimSpace(code) == "" && stdinIsTerminal() {
				prompted, err := promptPairingCode(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				code = prompted
			}

			settings := loadSettings()
			svc, err := newService(settings, logger)
			if err != nil {
				return err
			}

			spin := startSpinner(cmd.ErrOrStderr(), "Claiming pairing code...")
			result, err := svc.Pair(GetContext(), site, code)
			spin.Stop()
			if err != nil {
				return err
			}

			status := svc.Status()
			if status.Site != nil {
				newNotifier(settings, logger).Paired(*status.Site)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Paired with %s\n", strings.TrimSpace(site))
			fmt.Fprintf(out, "Device ID: %s\n", result.DeviceID)
			return nil
		},
	}

	cmd.Flags().StringVar(&site, "site", "", "Site URL, starting with http:// or https://")
	cmd.Flags().StringVar(&code, "code", "", "One-time pairing code (prompted when omitted on a terminal)")

	return cmd
}
