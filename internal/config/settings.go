package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/gentlesite/gentle-phone-transfer/internal/constants"
)

// Settings holds user preferences for the utility. It never carries pairing state.
//
// Config file location: <home>/.gentlesite/settings.ini
//
// INI format:
//
//	[network]
//	proxy_mode = system
//	proxy_host = proxy.corp
//	proxy_port = 8080
//	proxy_user =
//	proxy_password =
//	no_proxy = localhost,*.internal
//	request_timeout_seconds = 30
//
//	[heartbeat]
//	interval_seconds = 300
//
//	[notifications]
//	enabled = true
type Settings struct {
	Network       NetworkSettings
	Heartbeat     HeartbeatSettings
	Notifications NotificationSettings
}

// NetworkSettings configures the outbound HTTP client.
type NetworkSettings struct {
	// ProxyMode is one of "no-proxy", "system", "basic", "ntlm".
	// Default: "system"
	ProxyMode string `ini:"proxy_mode"`

	ProxyHost     string `ini:"proxy_host"`
	ProxyPort     int    `ini:"proxy_port"`
	ProxyUser     string `ini:"proxy_user"`
	ProxyPassword string `ini:"proxy_password"`

	// NoProxy is a comma-separated bypass list (hosts, *.domains, CIDRs).
	NoProxy string `ini:"no_proxy"`

	// RequestTimeoutSeconds bounds a single outbound request.
	// Minimum: 1, Maximum: 300, Default: 30
	RequestTimeoutSeconds int `ini:"request_timeout_seconds"`
}

// HeartbeatSettings configures the heartbeat runner.
type HeartbeatSettings struct {
	// IntervalSeconds is the time between heartbeats.
	// Minimum: 30, Maximum: 86400, Default: 300
	IntervalSeconds int `ini:"interval_seconds"`
}

// NotificationSettings configures desktop notifications.
type NotificationSettings struct {
	// Enabled indicates whether notifications are shown.
	// Default: true
	Enabled bool `ini:"enabled"`
}

// Proxy modes
const (
	ProxyModeNone   = "no-proxy"
	ProxyModeSystem = "system"
	ProxyModeBasic  = "basic"
	ProxyModeNTLM   = "ntlm"
)

// Validation errors
var (
	ErrInvalidProxyMode         = errors.New("proxy_mode must be one of no-proxy, system, basic, ntlm")
	ErrMissingProxyHost         = errors.New("proxy_host is required for basic and ntlm proxy modes")
	ErrInvalidProxyPort         = errors.New("proxy_port must be between 1 and 65535")
	ErrInvalidRequestTimeout    = errors.New("request_timeout_seconds must be between 1 and 300")
	ErrInvalidHeartbeatInterval = errors.New("interval_seconds must be between 30 and 86400")
	ErrUnknownSettingKey        = errors.New("unknown setting")
)

// NewSettings creates Settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Network: NetworkSettings{
			ProxyMode:             ProxyModeSystem,
			ProxyPort:             8080,
			RequestTimeoutSeconds: int(constants.DefaultRequestTimeout / time.Second),
		},
		Heartbeat: HeartbeatSettings{
			IntervalSeconds: int(constants.DefaultHeartbeatInterval / time.Second),
		},
		Notifications: NotificationSettings{
			Enabled: true,
		},
	}
}

// LoadSettings loads settings from an INI file.
// If the file doesn't exist, returns defaults and no error.
// If the file exists but is invalid, returns an error.
func LoadSettings(path string) (*Settings, error) {
	s := NewSettings()

	if path == "" {
		path = SettingsFilePath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	network := iniFile.Section("network")
	s.Network.ProxyMode = network.Key("proxy_mode").MustString(s.Network.ProxyMode)
	s.Network.ProxyHost = network.Key("proxy_host").String()
	s.Network.ProxyPort = network.Key("proxy_port").MustInt(s.Network.ProxyPort)
	s.Network.ProxyUser = network.Key("proxy_user").String()
	s.Network.ProxyPassword = network.Key("proxy_password").String()
	s.Network.NoProxy = network.Key("no_proxy").String()
	s.Network.RequestTimeoutSeconds = network.Key("request_timeout_seconds").MustInt(s.Network.RequestTimeoutSeconds)

	heartbeat := iniFile.Section("heartbeat")
	s.Heartbeat.IntervalSeconds = heartbeat.Key("interval_seconds").MustInt(s.Heartbeat.IntervalSeconds)

	notify := iniFile.Section("notifications")
	s.Notifications.Enabled = notify.Key("enabled").MustBool(true)

	return s, nil
}

// SaveSettings writes settings to an INI file.
// Creates parent directories if they don't exist.
func SaveSettings(s *Settings, path string) error {
	if path == "" {
		path = SettingsFilePath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	iniFile := ini.Empty()

	network, err := iniFile.NewSection("network")
	if err != nil {
		return fmt.Errorf("failed to create network section: %w", err)
	}
	network.Key("proxy_mode").SetValue(s.Network.ProxyMode)
	network.Key("proxy_host").SetValue(s.Network.ProxyHost)
	network.Key("proxy_port").SetValue(strconv.Itoa(s.Network.ProxyPort))
	network.Key("proxy_user").SetValue(s.Network.ProxyUser)
	network.Key("proxy_password").SetValue(s.Network.ProxyPassword)
	network.Key("no_proxy").SetValue(s.Network.NoProxy)
	network.Key("request_timeout_seconds").SetValue(strconv.Itoa(s.Network.RequestTimeoutSeconds))

	heartbeat, err := iniFile.NewSection("heartbeat")
	if err != nil {
		return fmt.Errorf("failed to create heartbeat section: %w", err)
	}
	heartbeat.Key("interval_seconds").SetValue(strconv.Itoa(s.Heartbeat.IntervalSeconds))

	notify, err := iniFile.NewSection("notifications")
	if err != nil {
		return fmt.Errorf("failed to create notifications section: %w", err)
	}
	notify.Key("enabled").SetValue(strconv.FormatBool(s.Notifications.Enabled))

	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	// Proxy password may be present
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set settings permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}

// Validate checks the settings for values the runtime cannot use.
func (s *Settings) Validate() error {
	switch strings.ToLower(s.Network.ProxyMode) {
	case ProxyModeNone, ProxyModeSystem, "":
	case ProxyModeBasic, ProxyModeNTLM:
		if strings.TrimSpace(s.Network.ProxyHost) == "" {
			return ErrMissingProxyHost
		}
		if s.Network.ProxyPort < 1 || s.Network.ProxyPort > 65535 {
			return ErrInvalidProxyPort
		}
	default:
		return ErrInvalidProxyMode
	}

	if s.Network.RequestTimeoutSeconds < 1 || s.Network.RequestTimeoutSeconds > 300 {
		return ErrInvalidRequestTimeout
	}

	minInterval := int(constants.MinHeartbeatInterval / time.Second)
	maxInterval := int(constants.MaxHeartbeatInterval / time.Second)
	if s.Heartbeat.IntervalSeconds < minInterval || s.Heartbeat.IntervalSeconds > maxInterval {
		return ErrInvalidHeartbeatInterval
	}

	return nil
}

// RequestTimeout returns the per-request timeout as a duration.
func (s *Settings) RequestTimeout() time.Duration {
	return time.Duration(s.Network.RequestTimeoutSeconds) * time.Second
}

// HeartbeatInterval returns the heartbeat interval as a duration.
func (s *Settings) HeartbeatInterval() time.Duration {
	return time.Duration(s.Heartbeat.IntervalSeconds) * time.Second
}

// settingKeys maps "section.key" names to setters, used by 'config set'.
var settingKeys = map[string]func(s *Settings, value string) error{
	"network.proxy_mode": func(s *Settings, v string) error {
		s.Network.ProxyMode = strings.ToLower(v)
		return nil
	},
	"network.proxy_host": func(s *Settings, v string) error {
		s.Network.ProxyHost = v
		return nil
	},
	"network.proxy_port": func(s *Settings, v string) error {
		return setInt(&s.Network.ProxyPort, v)
	},
	"network.proxy_user": func(s *Settings, v string) error {
		s.Network.ProxyUser = v
		return nil
	},
	"network.proxy_password": func(s *Settings, v string) error {
		s.Network.ProxyPassword = v
		return nil
	},
	"network.no_proxy": func(s *Settings, v string) error {
		s.Network.NoProxy = v
		return nil
	},
	"network.request_timeout_seconds": func(s *Settings, v string) error {
		return setInt(&s.Network.RequestTimeoutSeconds, v)
	},
	"heartbeat.interval_seconds": func(s *Settings, v string) error {
		return setInt(&s.Heartbeat.IntervalSeconds, v)
	},
	"notifications.enabled": func(s *Settings, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", v, err)
		}
		s.Notifications.Enabled = b
		return nil
	},
}

// Set assigns one setting by its "section.key" name and validates the result.
// On error the settings are left unchanged.
func (s *Settings) Set(key, value string) error {
	setter, ok := settingKeys[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSettingKey, key)
	}

	updated := *s
	if err := setter(&updated, strings.TrimSpace(value)); err != nil {
		return err
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	*s = updated
	return nil
}

// SettingKeys returns all names accepted by Set, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", v, err)
	}
	*dst = n
	return nil
}
