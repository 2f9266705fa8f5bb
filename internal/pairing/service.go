// Package pairing pairs this machine with a site and reports its liveness.
//
// The Service is the only place that combines the local pairing record, the
// host identity and the remote API. Shells (CLI, GUI bindings, the heartbeat
// runner) call Pair, Heartbeat and Status and render the results.
package pairing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gentlesite/gentle-phone-transfer/internal/api"
	"github.com/gentlesite/gentle-phone-transfer/internal/config"
	"github.com/gentlesite/gentle-phone-transfer/internal/constants"
	"github.com/gentlesite/gentle-phone-transfer/internal/identity"
	"github.com/gentlesite/gentle-phone-transfer/internal/logging"
	"github.com/gentlesite/gentle-phone-transfer/internal/version"
)

// Validation messages
const (
	msgSiteScheme = "site must start with http(s)://"
	msgEmptyCode  = "pairing code empty"
)

// Remote is the site API used by the Service. *api.Client implements it.
type Remote interface {
	ClaimPairing(ctx context.Context, site string, claim api.ClaimRequest) (*api.ClaimResponse, error)
	SendHeartbeat(ctx context.Context, site, token string, hb api.HeartbeatRequest) (bool, error)
}

// Identity supplies host attributes sent at pairing time.
type Identity struct {
	DeviceID    func() string
	DisplayName func() string
}

// HostIdentity reads the real host attributes.
func HostIdentity() Identity {
	return Identity{
		DeviceID:    identity.ComputeDeviceID,
		DisplayName: identity.DisplayName,
	}
}

// PairResult is returned by a successful Pair.
type PairResult struct {
	DeviceID string
}

// Status is the pairing state shown by shells.
type Status struct {
	Site   *string
	Paired bool
}

// Service coordinates pairing and heartbeats.
type Service struct {
	store    config.Store
	remote   Remote
	identity Identity
	logger   *logging.Logger
}

// NewService creates a Service. A nil logger discards logs; a zero Identity
// uses the host's attributes.
func NewService(store config.Store, remote Remote, id Identity, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	host := HostIdentity()
	if id.DeviceID == nil {
		id.DeviceID = host.DeviceID
	}
	if id.DisplayName == nil {
		id.DisplayName = host.DisplayName
	}
	return &Service{
		store:    store,
		remote:   remote,
		identity: id,
		logger:   logger,
	}
}

// NewDefaultService wires the pairing file in the state directory, an API
// client built from settings and the host identity.
func NewDefaultService(settings *config.Settings, logger *logging.Logger) (*Service, error) {
	client, err := api.NewClient(settings, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return NewService(config.NewFileStore(""), client, HostIdentity(), logger), nil
}

// Pair claims pairingCode on site and stores the issued credentials.
//
// Input is validated before any I/O. If the claim succeeds remotely but the
// record cannot be saved, Pair fails with KindPersistence; pairing again is
// the recovery path.
func (s *Service) Pair(ctx context.Context, site, pairingCode string) (PairResult, error) {
	site = strings.TrimSpace(site)
	if !strings.HasPrefix(site, "http") {
		return PairResult{}, newError(KindValidation, msgSiteScheme, nil)
	}
	code := strings.TrimSpace(pairingCode)
	if code == "" {
		return PairResult{}, newError(KindValidation, msgEmptyCode, nil)
	}

	claim := api.ClaimRequest{
		PairingCode: code,
		DeviceID:    s.identity.DeviceID(),
		DeviceName:  s.identity.DisplayName(),
	}

	s.logger.Info().Str("site", site).Str("device_name", claim.DeviceName).Msg("Claiming pairing code")

	resp, err := s.remote.ClaimPairing(ctx, site, claim)
	if err != nil {
		s.logger.Warn().Err(err).Str("site", site).Msg("Pairing claim failed")
		return PairResult{}, classifyRemote(err)
	}

	rec := s.store.Load()
	rec.Site = config.StringPtr(site)
	rec.DeviceID = config.StringPtr(resp.DeviceID)
	rec.DeviceToken = config.StringPtr(resp.DeviceToken)
	rec.Paired = true

	if err := s.store.Save(rec); err != nil {
		// The site already considers this device paired
		s.logger.Error().Err(err).Str("site", site).Msg("Paired remotely but failed to save pairing record")
		return PairResult{}, newError(KindPersistence, err.Error(), err)
	}

	s.logger.Info().Str("site", site).Str("device_id", resp.DeviceID).Msg("Paired")
	return PairResult{DeviceID: resp.DeviceID}, nil
}

// Heartbeat reports liveness for the stored pairing. It returns false with
// no network call when there is nothing to report, and false when the site
// rejects the heartbeat; only transport failures are errors.
func (s *Service) Heartbeat(ctx context.Context) (bool, error) {
	rec := s.store.Load()
	if !rec.CanReport() {
		s.logger.Debug().Msg("Not paired, skipping heartbeat")
		return false, nil
	}

	ok, err := s.remote.SendHeartbeat(ctx, rec.SiteValue(), rec.DeviceTokenValue(), api.HeartbeatRequest{
		DeviceID:       rec.DeviceIDValue(),
		UtilityVersion: version.Version,
		Status:         constants.HeartbeatStatusReady,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("site", rec.SiteValue()).Msg("Heartbeat failed")
		return false, classifyRemote(err)
	}

	s.logger.Debug().Bool("accepted", ok).Str("site", rec.SiteValue()).Msg("Heartbeat sent")
	return ok, nil
}

// Status projects the stored record. It never fails.
func (s *Service) Status() Status {
	rec := s.store.Load()
	return Status{Site: rec.Site, Paired: rec.Paired}
}

// classifyRemote maps api errors onto Kinds.
func classifyRemote(err error) *Error {
	var se *api.StatusError
	switch {
	case errors.As(err, &se):
		return newError(KindRemote, se.Message, err)
	case errors.Is(err, api.ErrUnexpectedResponse):
		return newError(KindProtocol, api.ErrUnexpectedResponse.Error(), err)
	default:
		// *api.TransportError, or a fake Remote failing in its own way
		return newError(KindNetwork, err.Error(), err)
	}
}
