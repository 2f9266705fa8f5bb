// Package bindings exposes the pairing operations to a desktop GUI shell.
// All public methods on App take and return JSON-safe values so a webview
// frontend can call them directly.
package bindings

import (
	"context"
	"time"

	"github.com/gentlesite/gentle-phone-transfer/internal/config"
	"github.com/gentlesite/gentle-phone-transfer/internal/constants"
	"github.com/gentlesite/gentle-phone-transfer/internal/logging"
	"github.com/gentlesite/gentle-phone-transfer/internal/notify"
	"github.com/gentlesite/gentle-phone-transfer/internal/pairing"
	"github.com/gentlesite/gentle-phone-transfer/internal/version"
)

// Notifier is told about successful pairings. *notify.Notifier implements it.
type Notifier interface {
	Paired(site string)
}

// App is the object bound to the GUI frontend.
type App struct {
	ctx      context.Context
	service  *pairing.Service
	notifier Notifier
	logger   *logging.Logger
	timeout  time.Duration
}

// NewApp creates an App over an existing service. notifier may be nil.
func NewApp(service *pairing.Service, notifier Notifier, logger *logging.Logger) *App {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &App{
		ctx:      context.Background(),
		service:  service,
		notifier: notifier,
		logger:   logger,
		timeout:  constants.OperationTimeout,
	}
}

// NewDefaultApp loads settings from settingsPath ("" for the default
// location) and wires the real store, API client and notifier.
func NewDefaultApp(settingsPath string, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewLogger("shell")
	}

	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load settings, using defaults")
		settings = config.NewSettings()
	}

	service, err := pairing.NewDefaultService(settings, logger)
	if err != nil {
		return nil, err
	}

	notifier := notify.NewNotifier(&notify.Config{
		Enabled:              settings.Notifications.Enabled,
		ShowHeartbeatChanges: true,
	}, logger)

	return NewApp(service, notifier, logger), nil
}

// Startup stores the shell's context; calls made after it is cancelled fail fast.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	a.logger.Info().Msg("Shell bindings started")
}

// operationContext bounds one call.
func (a *App) operationContext() (context.Context, context.CancelFunc) {
	parent := a.ctx
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, a.timeout)
}

// Pair pairs this computer with site using a one-time code.
func (a *App) Pair(site, pairingCode string) (PairResultDTO, error) {
	if a.service == nil {
		return PairResultDTO{}, ErrNoService
	}

	ctx, cancel := a.operationContext()
	defer cancel()

	result, err := a.service.Pair(ctx, site, pairingCode)
	if err != nil {
		a.logger.Warn().Err(err).Str("kind", pairing.KindOf(err).String()).Msg("Pair failed")
		return PairResultDTO{}, toShellError(err)
	}

	if a.notifier != nil {
		status := a.service.Status()
		if status.Site != nil {
			a.notifier.Paired(*status.Site)
		}
	}

	return PairResultDTO{DeviceID: result.DeviceID}, nil
}

// Heartbeat sends one liveness report. It returns false when not paired or
// when the site rejected the report.
func (a *App) Heartbeat() (bool, error) {
	if a.service == nil {
		return false, ErrNoService
	}

	ctx, cancel := a.operationContext()
	defer cancel()

	ok, err := a.service.Heartbeat(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Str("kind", pairing.KindOf(err).String()).Msg("Heartbeat failed")
		return false, toShellError(err)
	}
	return ok, nil
}

// GetConfig returns the pairing status. It never fails.
func (a *App) GetConfig() StatusDTO {
	if a.service == nil {
		return StatusDTO{}
	}
	status := a.service.Status()
	return StatusDTO{Site: status.Site, Paired: status.Paired}
}

// GetAppInfo returns version information.
func (a *App) GetAppInfo() AppInfoDTO {
	return AppInfoDTO{
		Version:   version.Version,
		BuildTime: version.BuildTime,
	}
}
