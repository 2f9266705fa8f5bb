package heartbeat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gentlesite/gentle-phone-transfer/internal/pairing"
)

type outcome struct {
	alive bool
	err   error
}

// fakeService replays outcomes in order and repeats the last one.
type fakeService struct {
	mu       sync.Mutex
	paired   bool
	outcomes []outcome
	calls    int
}

func (f *fakeService) Heartbeat(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if !f.paired {
		return false, nil
	}
	if len(f.outcomes) == 0 {
		return true, nil
	}
	o := f.outcomes[0]
	if len(f.outcomes) > 1 {
		f.outcomes = f.outcomes[1:]
	}
	return o.alive, o.err
}

func (f *fakeService) Status() pairing.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.paired {
		return pairing.Status{}
	}
	site := "https://example.com"
	return pairing.Status{Site: &site, Paired: true}
}

func (f *fakeService) setPaired(paired bool) {
	f.mu.Lock()
	f.paired = paired
	f.mu.Unlock()
}

type fakeNotifier struct {
	lost     []string
	restored []string
}

func (n *fakeNotifier) HeartbeatLost(site, reason string) { n.lost = append(n.lost, reason) }
func (n *fakeNotifier) HeartbeatRestored(site string)     { n.restored = append(n.restored, site) }

func TestRunnerTransitions(t *testing.T) {
	tests := []struct {
		name         string
		outcomes     []outcome
		wantLost     int
		wantRestored int
	}{
		{"steady alive", []outcome{{alive: true}, {alive: true}, {alive: true}}, 0, 0},
		{"alive then lost", []outcome{{alive: true}, {alive: false}, {alive: false}}, 1, 0},
		{"lost from the start", []outcome{{alive: false}, {alive: false}}, 0, 0},
		{"lost then restored", []outcome{{alive: false}, {alive: true}}, 0, 1},
		{"flapping", []outcome{{alive: true}, {err: errors.New("timeout")}, {alive: true}, {alive: false}}, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{paired: true, outcomes: tt.outcomes}
			notifier := &fakeNotifier{}
			r := NewRunner(svc, time.Minute, notifier, nil)

			for range tt.outcomes {
				r.beat(context.Background())
			}

			if len(notifier.lost) != tt.wantLost {
				t.Errorf("lost notifications = %d, want %d", len(notifier.lost), tt.wantLost)
			}
			if len(notifier.restored) != tt.wantRestored {
				t.Errorf("restored notifications = %d, want %d", len(notifier.restored), tt.wantRestored)
			}
		})
	}
}

func TestRunnerLostReason(t *testing.T) {
	svc := &fakeService{paired: true, outcomes: []outcome{{alive: true}, {err: errors.New("connection refused")}}}
	notifier := &fakeNotifier{}
	r := NewRunner(svc, time.Minute, notifier, nil)

	r.beat(context.Background())
	r.beat(context.Background())

	if len(notifier.lost) != 1 || notifier.lost[0] != "connection refused" {
		t.Errorf("lost = %v, want the transport error as reason", notifier.lost)
	}

	result, ok := r.LastResult()
	if !ok {
		t.Fatal("LastResult() not set after beats")
	}
	if result.Alive || result.Err == nil || !result.Paired {
		t.Errorf("LastResult() = %+v", result)
	}
}

func TestRunnerUnpairedResetsBaseline(t *testing.T) {
	svc := &fakeService{paired: true, outcomes: []outcome{{alive: true}}}
	notifier := &fakeNotifier{}
	r := NewRunner(svc, time.Minute, notifier, nil)

	r.beat(context.Background())
	svc.setPaired(false)
	r.beat(context.Background())

	if len(notifier.lost) != 0 {
		t.Errorf("unpairing must not notify, got %d lost", len(notifier.lost))
	}

	result, _ := r.LastResult()
	if result.Paired || result.Alive || result.Err != nil {
		t.Errorf("LastResult() = %+v, want unpaired idle result", result)
	}
}

func TestRunnerNilNotifier(t *testing.T) {
	svc := &fakeService{paired: true, outcomes: []outcome{{alive: true}, {alive: false}}}
	r := NewRunner(svc, time.Minute, nil, nil)

	r.beat(context.Background())
	r.beat(context.Background())

	if r.Beats() != 2 {
		t.Errorf("Beats() = %d, want 2", r.Beats())
	}
}

func TestRunnerDefaultInterval(t *testing.T) {
	r := NewRunner(&fakeService{}, 0, nil, nil)
	if r.Interval() != 5*time.Minute {
		t.Errorf("Interval() = %v, want 5m", r.Interval())
	}
}

func TestRunnerStartBeatsImmediately(t *testing.T) {
	svc := &fakeService{paired: true}
	r := NewRunner(svc, time.Hour, nil, nil)

	if _, ok := r.LastResult(); ok {
		t.Fatal("LastResult() set before Start")
	}

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop()

	result, ok := r.LastResult()
	if !ok || !result.Alive {
		t.Errorf("LastResult() after Start = %+v, %v; want alive", result, ok)
	}
	if !r.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}

	if err := r.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestRunnerSchedulesBeats(t *testing.T) {
	svc := &fakeService{paired: true}
	r := NewRunner(svc, 20*time.Millisecond, nil, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for r.Beats() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if n := r.Beats(); n < 3 {
		t.Fatalf("Beats() = %d after waiting, want at least 3", n)
	}
	if r.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	stopped := r.Beats()
	time.Sleep(100 * time.Millisecond)
	if r.Beats() != stopped {
		t.Errorf("beats continued after Stop: %d -> %d", stopped, r.Beats())
	}
}

func TestRunnerStopWithoutStart(t *testing.T) {
	r := NewRunner(&fakeService{}, time.Minute, nil, nil)
	if err := r.Stop(); err != nil {
		t.Errorf("Stop() on idle runner error = %v", err)
	}
}
