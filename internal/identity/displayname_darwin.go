package identity

import (
	"os/exec"
	"strings"
)

// computerName returns the macOS Computer Name set in System Settings.
func computerName() string {
	out, err := exec.Command("scutil", "--get", "ComputerName").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
