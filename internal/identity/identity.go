// Package identity derives the local machine's device identifier and display name.
package identity

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"os/user"
)

// separator joins hostname and username before hashing.
const separator = "|"

// ComputeDeviceID returns a stable identifier for this host/user pair:
// the lowercase hex MD5 of "<hostname>|<username>".
//
// The value is an identifier, not a credential. The remote site assigns the
// authoritative device id at pairing time.
func ComputeDeviceID() string {
	return DeviceIDFor(Hostname(), Username())
}

// DeviceIDFor computes the device identifier for explicit host attributes.
func DeviceIDFor(hostname, username string) string {
	sum := md5.Sum([]byte(hostname + separator + username))
	return hex.EncodeToString(sum[:])
}

// Hostname returns the network hostname, or "" if unavailable.
func Hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}

// Username returns the current OS username, or "" if unavailable.
func Username() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	// os/user can fail in static builds without cgo
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return os.Getenv("USERNAME")
}

// DisplayName returns the user-facing name of this machine, sent to the site
// as device_name.
func DisplayName() string {
	if name := computerName(); name != "" {
		return name
	}
	return Hostname()
}
