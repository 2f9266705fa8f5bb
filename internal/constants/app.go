package constants

import (
	"time"
)

// Application identity
const (
	// AppName is the binary and User-Agent product name
	AppName = "gentle-phone-transfer"

	// AppNamespace is the directory under the user's home holding all local state
	AppNamespace = ".gentlesite"

	// PairingFileName is the pairing record file inside AppNamespace
	PairingFileName = "gentle-phone-transfer.json"

	// SettingsFileName is the INI settings file inside AppNamespace
	SettingsFileName = "settings.ini"

	// LogDirName is the log directory inside AppNamespace
	LogDirName = "logs"
)

// Remote API
const (
	// RESTPath is appended to the site URL to form the REST base
	RESTPath = "/wp-json/gsdt/v1/phone-transfer"

	// ClaimPath is the pairing claim endpoint relative to the REST base
	ClaimPath = "/pairing/claim"

	// HeartbeatPath is the heartbeat endpoint relative to the REST base
	HeartbeatPath = "/device/heartbeat"

	// HeartbeatStatusReady is the only status value the utility reports
	HeartbeatStatusReady = "ready"
)

// Heartbeat scheduling
const (
	// DefaultHeartbeatInterval - default interval between heartbeats (5 minutes)
	DefaultHeartbeatInterval = 5 * time.Minute

	// MinHeartbeatInterval - shortest interval a shell may configure (30 seconds)
	MinHeartbeatInterval = 30 * time.Second

	// MaxHeartbeatInterval - longest interval a shell may configure (24 hours)
	MaxHeartbeatInterval = 24 * time.Hour
)

// HTTP Client Timeouts
const (
	// DefaultRequestTimeout - overall timeout for a single outbound request (30 seconds)
	DefaultRequestTimeout = 30 * time.Second

	// OperationTimeout - context deadline for one shell-invoked operation (45 seconds)
	// Slightly above DefaultRequestTimeout so the transport error wins.
	OperationTimeout = 45 * time.Second

	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (15 seconds)
	HTTPTLSHandshakeTimeout = 15 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (15 seconds)
	HTTPDialTimeout = 15 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// MaxResponseBodyBytes - cap on response bodies read into memory (1 MB)
	MaxResponseBodyBytes = 1 << 20
)

// Daemon log rotation
const (
	// LogMaxSizeMB - rotate the daemon log after this many megabytes
	LogMaxSizeMB = 10

	// LogMaxBackups - rotated daemon logs to keep
	LogMaxBackups = 5

	// LogMaxAgeDays - days to keep rotated daemon logs
	LogMaxAgeDays = 30
)
