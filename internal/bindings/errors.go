package bindings

import (
	"errors"

	"github.com/gentlesite/gentle-phone-transfer/internal/pairing"
)

// ErrNoService is returned when the App was built without a pairing service.
var ErrNoService = errors.New("pairing service not available")

// toShellError flattens err to its user-facing message.
func toShellError(err error) error {
	var pe *pairing.Error
	if errors.As(err, &pe) {
		return errors.New(pe.Message)
	}
	return err
}
