package schema

import (
	"context"
	"time"

	"github.com/openeduhub/kidra/internal/domain"
	"github.com/openeduhub/kidra/internal/logger"
	"github.com/openeduhub/kidra/internal/metrics"
)

// Source lists the registered services in registration order.
type Source interface {
	All() []domain.ServiceDescriptor
}

// Aggregator builds and caches the merged API document.
type Aggregator struct {
	source  Source
	fetcher Fetcher
	local   Document
	cache   Cache[Document]
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewAggregator creates an aggregator. metrics may be nil.
func NewAggregator(source Source, fetcher Fetcher, local Document, log logger.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		source:  source,
		fetcher: fetcher,
		local:   local,
		logger:  log,
		metrics: m,
	}
}

// MergedSchema returns the merged document, computing it on first use.
// The returned document is shared and must not be modified.
func (a *Aggregator) MergedSchema(ctx context.Context) (Document, error) {
	return a.cache.GetOrCompute(ctx, a.build)
}

// Reset drops the cached document.
func (a *Aggregator) Reset() {
	a.cache.Reset()
	a.logger.Info("merged schema cache reset")
}

// State reports the cache state.
func (a *Aggregator) State() State {
	return a.cache.State()
}

func (a *Aggregator) build(ctx context.Context) (Document, error) {
	start := time.Now()

	var ds []domain.ServiceDescriptor
	for _, d := range a.source.All() {
		if d.HasSchema() {
			ds = append(ds, d)
		}
	}

	docs, err := fetchAll(ctx, a.fetcher, ds)
	if err != nil {
		a.metrics.ObserveSchemaBuild(false)
		a.logger.Warn("failed to fetch backend schemas", logger.Error(err))
		return nil, err
	}

	parts := make([]Part, len(ds))
	for i, d := range ds {
		parts[i] = Part{Name: d.Name, PostSubdomain: d.PostSubdomain, Doc: docs[i]}
	}

	merged, err := Merge(a.local, parts)
	if err != nil {
		a.metrics.ObserveSchemaBuild(false)
		a.logger.Warn("failed to merge backend schemas", logger.Error(err))
		return nil, err
	}

	a.metrics.ObserveSchemaBuild(true)
	a.logger.Info("merged schema built",
		logger.Int("services", len(parts)),
		logger.Duration("elapsed", time.Since(start)))
	return merged, nil
}
