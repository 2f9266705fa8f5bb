// Package config provides local state and settings management for the phone transfer utility.
package config

import (
	"os"
	"path/filepath"

	"github.com/gentlesite/gentle-phone-transfer/internal/constants"
)

// StateDirectory returns the directory holding the pairing record, settings and logs.
//
// Location: <home>/.gentlesite, or <tmp>/.gentlesite when no home directory
// can be determined.
func StateDirectory() string {
	base, err := os.UserHomeDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, constants.AppNamespace)
}

// PairingFilePath returns the default pairing record path.
func PairingFilePath() string {
	return filepath.Join(StateDirectory(), constants.PairingFileName)
}

// SettingsFilePath returns the default settings file path.
func SettingsFilePath() string {
	return filepath.Join(StateDirectory(), constants.SettingsFileName)
}

// LogDirectory returns the log directory used by the heartbeat daemon.
func LogDirectory() string {
	return filepath.Join(StateDirectory(), constants.LogDirName)
}

// DefaultLogFile returns the default heartbeat daemon log file.
func DefaultLogFile() string {
	return filepath.Join(LogDirectory(), "heartbeat.log")
}

// EnsureLogDirectory creates the log directory if it doesn't exist.
// Uses 0700 permissions to restrict log access to owner only.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}
