// Gentle Phone Transfer - pairs this computer with a Gentle site and reports
// that it is ready to receive transfers.
//
// Build with: go build -ldflags "-X github.com/gentlesite/gentle-phone-transfer/internal/version.Version=0.1.0"
package main

import (
	"os"

	"github.com/gentlesite/gentle-phone-transfer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
