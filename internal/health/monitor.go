// Package health keeps track of whether the EconoRise backend is reachable.
package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"econorise/internal/log"
	"econorise/internal/metrics"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
)

const DefaultInterval = 30 * time.Second

var ErrAlreadyStarted = errors.New("health monitor already started")

// Checker reports whether the backend answered.
type Checker interface {
	CheckHealth(ctx context.Context) bool
}

// Status is a snapshot of the latest check.
type Status struct {
	Checking  bool      `json:"checking"`
	Online    bool      `json:"online"`
	CheckedAt time.Time `json:"checked_at"`
}

// Label is the badge text: Checking, Online or Offline.
func (s Status) Label() string {
	switch {
	case s.Checking:
		return "Checking"
	case s.Online:
		return "Online"
	default:
		return "Offline"
	}
}

// KnownOffline is true once a check has completed and found the backend down.
func (s Status) KnownOffline() bool {
	return !s.CheckedAt.IsZero() && !s.Online
}

// Monitor runs the health check on a schedule. At most one check is in
// flight at any time, whether scheduled or requested through Check.
type Monitor struct {
	checker  Checker
	interval time.Duration
	timeout  time.Duration
	logger   *log.Logger
	metrics  metrics.Collector
	now      func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	status  Status
	started bool
	sched   *cron.Cron
	cancel  context.CancelFunc
	initial sync.WaitGroup

	stopOnce sync.Once
}

type Option func(*Monitor)

func WithLogger(l *log.Logger) Option {
	return func(m *Monitor) { m.logger = l.WithComponent(log.ComponentHealth) }
}

func WithMetrics(c metrics.Collector) Option {
	return func(m *Monitor) { m.metrics = c }
}

// WithTimeout bounds a single check. Defaults to the interval.
func WithTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func NewMonitor(checker Checker, interval time.Duration, opts ...Option) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	m := &Monitor{
		checker:  checker,
		interval: interval,
		timeout:  interval,
		logger:   log.Discard(),
		metrics:  metrics.NoOp{},
		now:      time.Now,
		status:   Status{Checking: true},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start runs one check right away and then one every interval until Stop
// is called or ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := sched.AddFunc(fmt.Sprintf("@every %s", m.interval), func() { m.Check(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule health check: %w", err)
	}

	m.started = true
	m.sched = sched
	m.cancel = cancel

	m.initial.Add(1)
	go func() {
		defer m.initial.Done()
		m.Check(runCtx)
	}()
	sched.Start()

	m.logger.Info("Health monitor started", "interval", m.interval.String())
	return nil
}

// Check runs a health check now, or joins the one already running, and
// returns the resulting status.
func (m *Monitor) Check(ctx context.Context) Status {
	v, _, _ := m.group.Do("health", func() (any, error) {
		return m.run(ctx), nil
	})
	return v.(Status)
}

func (m *Monitor) run(ctx context.Context) Status {
	m.mu.Lock()
	prev := m.status
	m.status.Checking = true
	m.mu.Unlock()

	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	online := m.checker.CheckHealth(checkCtx)
	cancel()

	// A check cut short by shutdown says nothing about the backend.
	if ctx.Err() != nil {
		m.mu.Lock()
		m.status.Checking = false
		snapshot := m.status
		m.mu.Unlock()
		return snapshot
	}

	next := Status{Online: online, CheckedAt: m.now()}
	m.mu.Lock()
	m.status = next
	m.mu.Unlock()

	m.metrics.RecordBackendUp(online)

	switch {
	case prev.CheckedAt.IsZero() || prev.Online != online:
		level := m.logger.Info
		if !online {
			level = m.logger.Warn
		}
		level("Backend status changed", log.FieldOperation, log.OpCheck, log.FieldOnline, online)
	default:
		m.logger.Debug("Backend status unchanged", log.FieldOperation, log.OpCheck, log.FieldOnline, online)
	}
	return next
}

// Status returns the latest snapshot.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Stop halts the schedule and waits for a running check to finish or for
// ctx to expire. It is safe to call more than once.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.RLock()
	started := m.started
	sched, cancel := m.sched, m.cancel
	m.mu.RUnlock()
	if !started {
		return nil
	}

	var err error
	m.stopOnce.Do(func() {
		defer cancel()

		done := make(chan struct{})
		go func() {
			<-sched.Stop().Done()
			m.initial.Wait()
			close(done)
		}()

		select {
		case <-done:
			m.logger.Info("Health monitor stopped")
		case <-ctx.Done():
			err = fmt.Errorf("stop health monitor: %w", ctx.Err())
		}
	})
	return err
}
