package scheduler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/openeduhub/kidra/internal/domain"
	"github.com/openeduhub/kidra/internal/index"
	"github.com/openeduhub/kidra/internal/logger"
	"github.com/openeduhub/kidra/internal/metrics"
	"github.com/openeduhub/kidra/internal/supervisor"
)

// Source lists the registered services in registration order.
type Source interface {
	All() []domain.ServiceDescriptor
}

// HealthSweeper periodically pings every registered backend and records the result
type HealthSweeper struct {
	source        Source
	client        *http.Client
	timeout       time.Duration
	index         *index.StatusIndex
	metrics       *metrics.Metrics
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
}

// NewHealthSweeper creates a new health sweeper.
// An interval of zero disables periodic sweeps; manual triggers still work.
func NewHealthSweeper(
	source Source,
	client *http.Client,
	timeout time.Duration,
	idx *index.StatusIndex,
	m *metrics.Metrics,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *HealthSweeper {
	if client == nil {
		client = http.DefaultClient
	}
	return &HealthSweeper{
		source:        source,
		client:        client,
		timeout:       timeout,
		index:         idx,
		metrics:       m,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start sweeps once and then keeps sweeping in the background
func (hs *HealthSweeper) Start(ctx context.Context) {
	hs.Sweep(ctx)

	go func() {
		// a nil channel never fires, so no interval means manual sweeps only
		var tick <-chan time.Time
		if hs.interval > 0 {
			ticker := time.NewTicker(hs.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				hs.Sweep(ctx)
			case <-hs.manualTrigger:
				hs.logger.Info("manual health sweep triggered")
				hs.Sweep(ctx)
			case <-hs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the sweeper
func (hs *HealthSweeper) Stop() {
	hs.stopOnce.Do(func() { close(hs.stopCh) })
}

// Sweep pings all backends concurrently and replaces the index content
func (hs *HealthSweeper) Sweep(ctx context.Context) []index.BackendStatus {
	ds := hs.source.All()
	statuses := make([]index.BackendStatus, len(ds))

	var wg sync.WaitGroup
	for i, d := range ds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses[i] = hs.check(ctx, d)
		}()
	}
	wg.Wait()

	hs.index.Update(statuses)

	up := 0
	for _, s := range statuses {
		hs.metrics.SetBackendUp(s.Name, s.Up)
		if s.Up {
			up++
		}
	}
	if up < len(statuses) {
		hs.logger.Warn("health sweep found unavailable backends",
			logger.Int("up", up),
			logger.Int("total", len(statuses)))
	} else {
		hs.logger.Debug("health sweep done", logger.Int("up", up))
	}

	return statuses
}

func (hs *HealthSweeper) check(ctx context.Context, d domain.ServiceDescriptor) index.BackendStatus {
	status := index.BackendStatus{
		Name:    d.Name,
		Address: d.PingAddress(),
	}

	if hs.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, hs.timeout)
		defer cancel()
	}

	start := time.Now()
	err := supervisor.Probe(ctx, hs.client, status.Address)
	status.Latency = time.Since(start)
	status.CheckedAt = time.Now()
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Up = true
	return status
}
