// Package notify provides cross-platform desktop notifications for pairing and heartbeat events.
// It uses github.com/gen2brain/beeep for cross-platform notification support.
package notify

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/gentlesite/gentle-phone-transfer/internal/logging"
)

const title = "Gentle Phone Transfer"

// sendFunc delivers one notification. Replaced in tests.
type sendFunc func(title, message string) error

// Notifier handles desktop notifications.
type Notifier struct {
	logger  *logging.Logger
	enabled bool
	send    sendFunc
	alert   sendFunc
	mu      sync.RWMutex
}

// Config holds notification configuration.
type Config struct {
	// Enabled determines if notifications are sent.
	Enabled bool

	// ShowHeartbeatChanges shows notifications when the site stops or
	// resumes accepting heartbeats.
	ShowHeartbeatChanges bool
}

// DefaultConfig returns the default notification configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:              true,
		ShowHeartbeatChanges: true,
	}
}

// NewNotifier creates a new notifier with the given configuration.
func NewNotifier(cfg *Config, logger *logging.Logger) *Notifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Notifier{
		logger:  logger,
		enabled: cfg.Enabled && cfg.ShowHeartbeatChanges,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		alert: func(title, message string) error {
			return beeep.Alert(title, message, "")
		},
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// Paired sends a notification after a successful pairing.
func (n *Notifier) Paired(site string) {
	if !n.IsEnabled() {
		return
	}

	message := fmt.Sprintf("This computer is now paired with\n%s", truncate(site, 80))
	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("site", site).Msg("Failed to send paired notification")
	}
}

// HeartbeatLost alerts that the site stopped accepting heartbeats.
func (n *Notifier) HeartbeatLost(site string, reason string) {
	if !n.IsEnabled() {
		return
	}

	message := fmt.Sprintf("%s is not accepting heartbeats.", truncate(site, 80))
	if reason != "" {
		message += "\n" + truncate(reason, 100)
	}

	if err := n.alert(title, message); err != nil {
		// Fall back to regular notify
		if err := n.send(title, message); err != nil {
			n.logger.Error().Err(err).Str("site", site).Msg("Failed to send heartbeat lost notification")
		}
	}
}

// HeartbeatRestored sends a notification when heartbeats are accepted again.
func (n *Notifier) HeartbeatRestored(site string) {
	if !n.IsEnabled() {
		return
	}

	message := fmt.Sprintf("%s is accepting heartbeats again.", truncate(site, 80))
	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("site", site).Msg("Failed to send heartbeat restored notification")
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
