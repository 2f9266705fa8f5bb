package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// stdinIsTerminal reports whether the user can be prompted. Replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// readSecret reads one line from the terminal without echo. Replaced in tests.
var readSecret = func() (string, error) {
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	return string(b), err
}

// promptPairingCode asks for the one-time code shown on the site.
func promptPairingCode(w io.Writer) (string, error) {
	fmt.Fprint(w, "Pairing code (shown on the site): ")
	code, err := readSecret()
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read pairing code: %w", err)
	}
	return strings.TrimSpace(code), nil
}
