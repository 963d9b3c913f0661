package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/openeduhub/kidra/internal/domain"
	"github.com/openeduhub/kidra/internal/logger"
	"github.com/openeduhub/kidra/internal/metrics"
)

// ErrBootTimeout indicates a spawned service did not answer its ping within BootTimeout.
var ErrBootTimeout = errors.New("service boot timeout exceeded")

// Options controls readiness polling and the shutdown policy.
type Options struct {
	PingInterval    time.Duration // delay between probes
	PingTimeout     time.Duration // upper bound of a single probe
	TerminateOnExit bool          // terminate spawned services in Shutdown
}

// Supervisor spawns backends that declare Autostart and waits until they are ready.
type Supervisor struct {
	launcher Launcher
	client   *http.Client
	opts     Options
	logger   logger.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	children map[string]Process
	order    []string
}

// New creates a supervisor. metrics may be nil.
func New(launcher Launcher, client *http.Client, opts Options, log logger.Logger, m *metrics.Metrics) *Supervisor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Supervisor{
		launcher: launcher,
		client:   client,
		opts:     opts,
		logger:   log,
		metrics:  m,
		children: make(map[string]Process),
	}
}

// EnsureAll boots the given services strictly in order and stops at the first error.
func (s *Supervisor) EnsureAll(ctx context.Context, ds []domain.ServiceDescriptor) error {
	started := time.Now()
	booted := 0

	for _, d := range ds {
		if err := s.EnsureReady(ctx, d); err != nil {
			return err
		}
		if d.Autostart {
			booted++
		}
	}

	s.logger.Info("all services ready",
		logger.Int("spawned", booted),
		logger.Int("registered", len(ds)),
		logger.Duration("elapsed", time.Since(started)))
	return nil
}

// EnsureReady spawns d and blocks until its ping address answers 2xx.
// It returns immediately when d does not autostart. A BootTimeout of zero waits forever.
// Cancelling ctx aborts the wait with ctx.Err() and leaves the child running.
func (s *Supervisor) EnsureReady(ctx context.Context, d domain.ServiceDescriptor) error {
	if !d.Autostart {
		return nil
	}

	bl := &bootLogger{logger: s.logger.With(logger.String("service", d.Name))}

	args := d.LaunchArgs()
	proc, err := s.launcher.Launch(d.Binary, args)
	if err != nil {
		return fmt.Errorf("failed to launch %s: %w", d.Name, err)
	}
	start := time.Now()
	s.track(d.Name, proc)
	bl.logSpawn(d.Binary, args, proc.Pid(), d.BootTimeout)

	attempts, err := s.waitReady(ctx, d, start, bl)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	bl.logReady(attempts, elapsed)
	s.metrics.ObserveBoot(d.Name, elapsed)
	s.metrics.SetBackendUp(d.Name, true)
	return nil
}

func (s *Supervisor) waitReady(ctx context.Context, d domain.ServiceDescriptor, start time.Time, bl *bootLogger) (int, error) {
	url := d.PingAddress()
	attempt := 0
	var lastErr error

	for {
		probeTimeout := s.opts.PingTimeout
		if d.BootTimeout > 0 {
			remaining := d.BootTimeout - time.Since(start)
			if remaining <= 0 {
				bl.logTimeout(attempt, d.BootTimeout, lastErr)
				return attempt, fmt.Errorf("%w: %s not ready after %s (%d attempts): %v",
					ErrBootTimeout, d.Name, d.BootTimeout, attempt, lastErr)
			}
			probeTimeout = min(probeTimeout, remaining)
		}

		attempt++
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		lastErr = Probe(probeCtx, s.client, url)
		cancel()

		if lastErr == nil {
			return attempt, nil
		}
		if ctx.Err() != nil {
			return attempt, ctx.Err()
		}
		bl.logRetry(attempt, time.Since(start), lastErr)

		wait := s.opts.PingInterval
		if d.BootTimeout > 0 {
			wait = max(0, min(wait, d.BootTimeout-time.Since(start)))
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Supervisor) track(name string, p Process) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.children[name]; !seen {
		s.order = append(s.order, name)
	}
	s.children[name] = p
}

// Spawned returns the names of the services launched so far, in launch order.
func (s *Supervisor) Spawned() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Shutdown terminates spawned services when TerminateOnExit is set.
// Otherwise they keep running after the gateway exits.
func (s *Supervisor) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		return nil
	}
	if !s.opts.TerminateOnExit {
		s.logger.Info("leaving spawned services running",
			logger.Strings("services", s.order))
		return nil
	}

	var errs []error
	// reverse boot order
	for i := len(s.order) - 1; i >= 0; i-- {
		name := s.order[i]
		p := s.children[name]
		if err := p.Terminate(); err != nil {
			s.logger.Warn("failed to terminate service",
				logger.String("service", name),
				logger.Int("pid", p.Pid()),
				logger.Error(err))
			errs = append(errs, fmt.Errorf("terminate %s: %w", name, err))
			continue
		}
		s.logger.Info("service terminated",
			logger.String("service", name),
			logger.Int("pid", p.Pid()))
	}
	return errors.Join(errs...)
}
