// Package heartbeat runs periodic liveness reports in the background.
package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/gentlesite/gentle-phone-transfer/internal/constants"
	"github.com/gentlesite/gentle-phone-transfer/internal/logging"
	"github.com/gentlesite/gentle-phone-transfer/internal/pairing"
)

// ErrAlreadyRunning is returned by Start on a running Runner.
var ErrAlreadyRunning = errors.New("heartbeat runner is already running")

// Service is the subset of *pairing.Service the runner needs.
type Service interface {
	Heartbeat(ctx context.Context) (bool, error)
	Status() pairing.Status
}

// Notifier receives liveness transitions. *notify.Notifier implements it.
type Notifier interface {
	HeartbeatLost(site string, reason string)
	HeartbeatRestored(site string)
}

// Result is the outcome of one beat.
type Result struct {
	At     time.Time
	Paired bool
	Alive  bool
	Err    error
}

type liveness int

const (
	livenessUnknown liveness = iota
	livenessAlive
	livenessLost
)

// Runner sends a heartbeat immediately on Start and then once per interval.
// Runs never overlap; a beat that outlasts the interval pushes the next one back.
type Runner struct {
	service  Service
	interval time.Duration
	notifier Notifier
	logger   *logging.Logger

	scheduler gocron.Scheduler
	running   bool
	last      Result
	hasLast   bool
	state     liveness
	beats     int
	mu        sync.Mutex
}

// NewRunner creates a Runner. A non-positive interval uses the default; a nil
// notifier disables notifications.
func NewRunner(service Service, interval time.Duration, notifier Notifier, logger *logging.Logger) *Runner {
	if interval <= 0 {
		interval = constants.DefaultHeartbeatInterval
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Runner{
		service:  service,
		interval: interval,
		notifier: notifier,
		logger:   logger,
	}
}

// Interval returns the time between beats.
func (r *Runner) Interval() time.Duration {
	return r.interval
}

// Start sends one heartbeat and schedules the rest. Scheduled beats use ctx;
// cancelling it makes them fail fast until Stop is called.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.running = true
	r.mu.Unlock()

	r.logger.Info().
		Str("interval", r.interval.String()).
		Msg("Heartbeat runner starting")

	// Run initial beat immediately
	r.beat(ctx)

	s, err := gocron.NewScheduler()
	if err != nil {
		r.setStopped()
		return fmt.Errorf("failed to create heartbeat scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(r.beat, ctx),
		gocron.WithName("heartbeat"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		r.setStopped()
		return fmt.Errorf("failed to schedule heartbeat: %w", err)
	}

	r.mu.Lock()
	r.scheduler = s
	r.mu.Unlock()

	s.Start()
	return nil
}

// Stop cancels future beats and waits for a running one to finish.
func (r *Runner) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	s := r.scheduler
	r.scheduler = nil
	r.running = false
	r.mu.Unlock()

	r.logger.Info().Msg("Heartbeat runner stopping")
	if s == nil {
		return nil
	}
	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop heartbeat scheduler: %w", err)
	}
	r.logger.Info().Msg("Heartbeat runner stopped")
	return nil
}

// IsRunning returns whether the runner is scheduled.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// LastResult returns the most recent beat outcome. ok is false before the first beat.
func (r *Runner) LastResult() (result Result, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.hasLast
}

// Beats returns how many beats have run.
func (r *Runner) Beats() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.beats
}

func (r *Runner) setStopped() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// beat runs one heartbeat and records it. Called by gocron.
func (r *Runner) beat(ctx context.Context) {
	status := r.service.Status()
	site := ""
	if status.Site != nil {
		site = *status.Site
	}

	beatCtx, cancel := context.WithTimeout(ctx, constants.OperationTimeout)
	alive, err := r.service.Heartbeat(beatCtx)
	cancel()

	result := Result{At: time.Now(), Paired: status.Paired, Alive: alive, Err: err}

	switch {
	case !status.Paired:
		r.logger.Debug().Msg("Not paired, nothing to report")
	case err != nil:
		r.logger.Warn().Err(err).Str("site", site).Msg("Heartbeat failed")
	case !alive:
		r.logger.Warn().Str("site", site).Msg("Heartbeat rejected by site")
	default:
		r.logger.Info().Str("site", site).Msg("Heartbeat sent")
	}

	r.mu.Lock()
	prev := r.state
	next := nextLiveness(result)
	r.state = next
	r.last = result
	r.hasLast = true
	r.beats++
	r.mu.Unlock()

	r.notifyTransition(prev, next, site, err)
}

func nextLiveness(result Result) liveness {
	switch {
	case !result.Paired:
		return livenessUnknown
	case result.Alive:
		return livenessAlive
	default:
		return livenessLost
	}
}

// notifyTransition reports alive->lost and lost->alive. The first beat
// after start or after pairing only sets the baseline.
func (r *Runner) notifyTransition(prev, next liveness, site string, err error) {
	if r.notifier == nil || prev == livenessUnknown || prev == next {
		return
	}

	switch next {
	case livenessLost:
		reason := "The site rejected the heartbeat."
		if err != nil {
			reason = err.Error()
		}
		r.notifier.HeartbeatLost(site, reason)
	case livenessAlive:
		r.notifier.HeartbeatRestored(site)
	}
}
