// Package version provides build version information for the application.
// This is a separate package to avoid import cycles between cli and pairing packages.
package version

// Version is the utility version reported to the paired site, set by ldflags during build.
var Version = "0.1.0"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"
