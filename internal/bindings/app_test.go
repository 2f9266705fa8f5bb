package bindings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gentlesite/gentle-phone-transfer/internal/api"
	"github.com/gentlesite/gentle-phone-transfer/internal/config"
	"github.com/gentlesite/gentle-phone-transfer/internal/pairing"
)

type fakeRemote struct {
	claimErr error
	hbErr    error
	hbOK     bool
	deadline bool
}

func (f *fakeRemote) ClaimPairing(ctx context.Context, site string, claim api.ClaimRequest) (*api.ClaimResponse, error) {
	_, f.deadline = ctx.Deadline()
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	return &api.ClaimResponse{DeviceID: "dev456", DeviceToken: "tok123"}, nil
}

func (f *fakeRemote) SendHeartbeat(ctx context.Context, site, token string, hb api.HeartbeatRequest) (bool, error) {
	_, f.deadline = ctx.Deadline()
	return f.hbOK, f.hbErr
}

type fakeNotifier struct {
	sites []string
}

func (n *fakeNotifier) Paired(site string) { n.sites = append(n.sites, site) }

func newTestApp(remote pairing.Remote, notifier Notifier) *App {
	id := pairing.Identity{
		DeviceID:    func() string { return "local-hash" },
		DisplayName: func() string { return "studio-mac" },
	}
	svc := pairing.NewService(config.NewMemoryStore(config.PairingRecord{}), remote, id, nil)
	return NewApp(svc, notifier, nil)
}

func TestGetConfigFreshStore(t *testing.T) {
	app := newTestApp(&fakeRemote{}, nil)

	data, err := json.Marshal(app.GetConfig())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"site":null,"paired":false}` {
		t.Errorf("GetConfig() JSON = %s", data)
	}
}

func TestPairThenGetConfig(t *testing.T) {
	remote := &fakeRemote{}
	notifier := &fakeNotifier{}
	app := newTestApp(remote, notifier)

	result, err := app.Pair("https://example.com", "ABC123")
	if err != nil {
		t.Fatalf("Pair() error = %v", err)
	}
	data, _ := json.Marshal(result)
	if string(data) != `{"device_id":"dev456"}` {
		t.Errorf("Pair() JSON = %s", data)
	}
	if !remote.deadline {
		t.Error("Pair should run under a timeout")
	}

	data, _ = json.Marshal(app.GetConfig())
	if string(data) != `{"site":"https://example.com","paired":true}` {
		t.Errorf("GetConfig() JSON = %s", data)
	}

	if len(notifier.sites) != 1 || notifier.sites[0] != "https://example.com" {
		t.Errorf("notifier.sites = %v", notifier.sites)
	}
}

func TestPairErrorIsPlainMessage(t *testing.T) {
	notifier := &fakeNotifier{}
	app := newTestApp(&fakeRemote{claimErr: &api.StatusError{StatusCode: 410, Message: "expired"}}, notifier)

	_, err := app.Pair("https://example.com", "ABC123")
	if err == nil || err.Error() != "expired" {
		t.Fatalf("Pair() error = %v, want expired", err)
	}
	var pe *pairing.Error
	if errors.As(err, &pe) {
		t.Error("shell errors should be plain messages")
	}
	if len(notifier.sites) != 0 {
		t.Error("failed pairing must not notify")
	}
}

func TestPairValidation(t *testing.T) {
	app := newTestApp(&fakeRemote{}, nil)

	if _, err := app.Pair("example.com", "ABC123"); err == nil || err.Error() != "site must start with http(s)://" {
		t.Errorf("Pair() error = %v", err)
	}
	if _, err := app.Pair("https://example.com", ""); err == nil || err.Error() != "pairing code empty" {
		t.Errorf("Pair() error = %v", err)
	}
}

func TestHeartbeat(t *testing.T) {
	remote := &fakeRemote{hbOK: true}
	app := newTestApp(remote, nil)

	ok, err := app.Heartbeat()
	if err != nil || ok {
		t.Fatalf("Heartbeat() before pairing = %v, %v; want false, nil", ok, err)
	}

	if _, err := app.Pair("https://example.com", "ABC123"); err != nil {
		t.Fatalf("Pair() error = %v", err)
	}

	ok, err = app.Heartbeat()
	if err != nil || !ok {
		t.Fatalf("Heartbeat() = %v, %v; want true, nil", ok, err)
	}
	if !remote.deadline {
		t.Error("Heartbeat should run under a timeout")
	}

	remote.hbErr = &api.TransportError{Op: "heartbeat", Err: errors.New("connection refused")}
	if _, err := app.Heartbeat(); err == nil {
		t.Error("expected transport error")
	}
}

func TestNoService(t *testing.T) {
	app := NewApp(nil, nil, nil)

	if _, err := app.Pair("https://example.com", "X"); !errors.Is(err, ErrNoService) {
		t.Errorf("Pair() error = %v, want ErrNoService", err)
	}
	if _, err := app.Heartbeat(); !errors.Is(err, ErrNoService) {
		t.Errorf("Heartbeat() error = %v, want ErrNoService", err)
	}
	if got := app.GetConfig(); got.Paired || got.Site != nil {
		t.Errorf("GetConfig() = %+v", got)
	}
}

func TestStartupCancelledContext(t *testing.T) {
	remote := &fakeRemote{}
	app := newTestApp(remote, nil)

	ctx, cancel := context.WithCancel(context.Background())
	app.Startup(ctx)
	cancel()

	op, done := app.operationContext()
	defer done()
	if op.Err() == nil {
		t.Error("operation context should inherit cancellation from Startup")
	}
}

func TestGetAppInfo(t *testing.T) {
	info := newTestApp(&fakeRemote{}, nil).GetAppInfo()
	if info.Version != "0.1.0" {
		t.Errorf("Version = %q", info.Version)
	}
}
