package engine

import (
	"context"
	"sync"
	"time"

	"github.com/autoflow/autoflow/pkg/telemetry"
)

// SchedulerStatus is a snapshot of a scheduler's state and counters.
type SchedulerStatus struct {
	// Running reports whether the scheduler is currently started.
	Running bool `json:"running"`

	// Firings is the number of timer firings that triggered a pass.
	Firings int64 `json:"firings"`

	// SkippedFirings is the number of timer firings skipped because the
	// previous pass was still in flight.
	SkippedFirings int64 `json:"skipped_firings"`

	// LastPassTime is when the most recent pass started.
	LastPassTime time.Time `json:"last_pass_time"`

	// LastPassSuccess is the aggregate result of the most recent pass.
	LastPassSuccess bool `json:"last_pass_success"`
}

// Scheduler wraps an Engine with a recurring timer that triggers a full
// execution pass at a fixed interval until stopped.
//
// A firing that would overlap a pass still in flight is skipped and counted,
// never run concurrently: passes triggered by one scheduler are serialized.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics

	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	loopDone chan struct{}
	inFlight bool
	status   SchedulerStatus

	// passDone is closed when the most recently launched pass finishes.
	// Wait uses it to let tests and shutdown paths drain in-flight work.
	passDone chan struct{}
}

// NewScheduler creates a scheduler for the given engine. The interval must
// be positive; callers configuring in whole seconds must reject values below
// one second before construction.
func NewScheduler(e *Engine, interval time.Duration, logger *telemetry.Logger) (*Scheduler, error) {
	if e == nil {
		return nil, NewValidationError("engine is nil", nil)
	}
	if interval <= 0 {
		return nil, NewValidationError("interval must be positive", nil).
			WithCode(ErrCodeBadInterval)
	}
	if logger == nil {
		logger = telemetry.FromContext(context.Background())
	}
	return &Scheduler{
		engine:   e,
		interval: interval,
		logger:   logger.NewComponentLogger("scheduler"),
	}, nil
}

// WithMetrics attaches a metrics collector.
func (s *Scheduler) WithMetrics(m *telemetry.Metrics) *Scheduler {
	s.metrics = m
	return s
}

// Interval returns the configured firing interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start begins firing ExecuteAll on the wrapped engine every interval,
// starting after the first full interval elapses. Starting an
// already-running scheduler is a state error.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return NewStateError("scheduler already running", nil).
			WithCode(ErrCodeAlreadyRunning)
	}

	s.running = true
	s.status.Running = true
	s.stop = make(chan struct{})
	s.loopDone = make(chan struct{})

	go s.loop(s.stop, s.loopDone)

	s.logger.WithField("interval", s.interval.String()).Info("Scheduler started")
	return nil
}

// Stop halts future firings. A pass in flight at the moment of Stop is
// allowed to complete; Stop does not cancel it. Stopping a stopped
// scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.status.Running = false
	stop := s.stop
	loopDone := s.loopDone
	s.mu.Unlock()

	close(stop)
	<-loopDone

	s.logger.Info("Scheduler stopped")
}

// Wait blocks until any in-flight pass has completed. It does not block on
// future firings; callers should Stop first.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	done := s.passDone
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Status returns a snapshot of the scheduler's counters.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// loop fires passes until the stop channel closes.
func (s *Scheduler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.fire()
		}
	}
}

// fire launches one pass unless the previous one is still in flight.
func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.inFlight {
		s.status.SkippedFirings++
		s.mu.Unlock()
		s.metrics.FiringSkipped()
		s.logger.Warn("Skipping firing: previous pass still running")
		return
	}
	s.inFlight = true
	s.status.Firings++
	s.status.LastPassTime = time.Now()
	done := make(chan struct{})
	s.passDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)

		ok := s.engine.ExecuteAll(context.Background())

		s.mu.Lock()
		s.inFlight = false
		s.status.LastPassSuccess = ok
		s.mu.Unlock()
	}()
}
