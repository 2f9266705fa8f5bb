package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gentlesite/gentle-phone-transfer/internal/bindings"
	"github.com/gentlesite/gentle-phone-transfer/internal/config"
	"github.com/gentlesite/gentle-phone-transfer/internal/pairing"
)

// pairingFilePath is the record watched by 'status --watch'. Replaced in tests.
var pairingFilePath = config.PairingFilePath

// newStatusCmd creates the 'status' command.
func newStatusCmd() *cobra.Command {
	var (
		asJSON bool
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether this computer is paired",
		Long: `Show the pairing status: the site this computer is paired with, if any.

With --json the output matches what the desktop app receives:
  {"site": "https://example.com", "paired": true}

With --watch the status is printed again every time the pairing record
changes, until Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(loadSettings(), GetLogger())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printStatus(out, svc.Status(), asJSON); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			var printErr error
			err = config.WatchFile(GetContext(), pairingFilePath(), config.DefaultWatchDebounce, func() {
				if perr := printStatus(out, svc.Status(), asJSON); perr != nil && printErr == nil {
					printErr = perr
				}
			})
			if err != nil {
				return err
			}
			return printErr
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Print status again whenever it changes")

	return cmd
}

func printStatus(w io.Writer, status pairing.Status, asJSON bool) error {
	if asJSON {
		data, err := json.Marshal(bindings.StatusDTO{Site: status.Site, Paired: status.Paired})
		if err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	if !status.Paired {
		_, err := fmt.Fprintln(w, "Not paired")
		return err
	}
	site := "(unknown site)"
	if status.Site != nil {
		site = *status.Site
	}
	_, err := fmt.Fprintf(w, "Paired with %s\n", site)
	return err
}
