//go:build !darwin

package identity

// computerName has no separate user-facing name outside macOS.
func computerName() string {
	return ""
}
