package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Poller is what the scheduler drives. *Coordinator satisfies it.
type Poller interface {
	PollOnce(ctx context.Context)
	Reset()
}

// PollConfig bounds the polling cadence.
type PollConfig struct {
	Tick        time.Duration // gate-check cadence, default 1s
	MinInterval time.Duration // minimum spacing between polls, default 10s
}

// Scheduler keeps local state fresh without a push channel. It is an
// explicit Stopped/Active state machine: while Active, a fixed 1s tick
// checks two gates — the view must be visible, and at least MinInterval
// must have elapsed since the last poll attempt — and only then polls.
// Regaining visibility forces one immediate poll regardless of the interval
// gate, once per transition. Stopping cancels the loop and tears down all
// derived state; a session change invalidates the old view entirely.
type Scheduler struct {
	poller      Poller
	tick        time.Duration
	minInterval time.Duration
	logger      zerolog.Logger

	mu          sync.Mutex
	started     bool
	visible     bool
	lastAttempt time.Time
	runCtx      context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	forced      sync.WaitGroup
}

// NewScheduler builds a scheduler in the Stopped state. The view starts
// visible; headless callers that cannot observe focus simply leave it so.
func NewScheduler(p Poller, cfg PollConfig, logger zerolog.Logger) *Scheduler {
	tick := cfg.Tick
	if tick <= 0 {
		tick = time.Second
	}
	minInterval := cfg.MinInterval
	if minInterval <= 0 {
		minInterval = 10 * time.Second
	}
	return &Scheduler{
		poller:      p,
		tick:        tick,
		minInterval: minInterval,
		logger:      logger.With().Str("component", "scheduler").Logger(),
		visible:     true,
	}
}

// Start transitions Stopped -> Active. The first fetch is unconditional;
// the gated loop begins after it. No-op while already Active.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.started = true
	s.runCtx = ctx
	s.cancel = cancel
	s.done = make(chan struct{})
	s.lastAttempt = time.Now()
	done := s.done
	s.mu.Unlock()

	s.logger.Debug().Msg("polling started")
	go s.loop(ctx, done)
}

// Stop transitions Active -> Stopped: cancels the loop, waits for it, and
// clears all derived state through the poller. Full teardown, not a pause.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.forced.Wait()
	s.poller.Reset()
	s.logger.Debug().Msg("polling stopped")
}

// SetVisible reports view visibility. Hidden views never poll. On the
// hidden -> visible transition one immediate poll is issued so the user
// sees fresh data without waiting out the interval gate. The forced poll
// runs under the scheduler's context and Stop waits it out, so it can
// never repopulate state after teardown.
func (s *Scheduler) SetVisible(visible bool) {
	s.mu.Lock()
	regained := visible && !s.visible && s.started
	s.visible = visible
	var ctx context.Context
	if regained {
		s.lastAttempt = time.Now()
		ctx = s.runCtx
		s.forced.Add(1)
	}
	s.mu.Unlock()

	if regained {
		go func() {
			defer s.forced.Done()
			if ctx.Err() == nil {
				s.poller.PollOnce(ctx)
			}
		}()
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.poller.PollOnce(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.gatesPass() {
				s.poller.PollOnce(ctx)
			}
		}
	}
}

// gatesPass checks visibility and the minimum inter-poll interval, and on
// success records the attempt timestamp so the interval gate is measured
// from attempts, not completions.
func (s *Scheduler) gatesPass() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.visible {
		return false
	}
	if time.Since(s.lastAttempt) < s.minInterval {
		return false
	}
	s.lastAttempt = time.Now()
	return true
}
