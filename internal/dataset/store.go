package dataset

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/events"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/observability/metrics"
	"github.com/tphakala/birdview/internal/observation"
	"github.com/tphakala/birdview/internal/privacy"
)

// Publisher receives dataset lifecycle events without blocking the caller.
// *events.EventBus implements it.
type Publisher interface {
	TryPublish(event events.DatasetEvent) bool
}

// entry is a memoized table with the report of the load that produced it.
type entry struct {
	table  *observation.Table
	report LoadReport
}

// Store memoizes loaded tables per habitat and source. Tables live until an
// explicit Reload or Invalidate; concurrent first loads of one table share a
// single read of the source.
type Store struct {
	loader  *Loader
	sources map[observation.Habitat]string
	tables  *cache.Cache
	group   singleflight.Group
	metrics *metrics.DatasetMetrics
	events  Publisher
	log     logger.Logger
}

// SourcesFromSettings maps each habitat to its configured source identifier.
func SourcesFromSettings(cfg *conf.SourcesConfig) map[observation.Habitat]string {
	return map[observation.Habitat]string{
		observation.Forest:    cfg.Forest,
		observation.Grassland: cfg.Grassland,
	}
}

// NewStore creates a table store. m may be nil.
func NewStore(loader *Loader, sources map[observation.Habitat]string, m *metrics.DatasetMetrics, log logger.Logger) *Store {
	if log == nil {
		log = logger.Global().Module("dataset")
	}
	// no default expiration and no janitor: tables are only evicted explicitly
	return &Store{
		loader:  loader,
		sources: sources,
		tables:  cache.New(cache.NoExpiration, 0),
		metrics: m,
		log:     log.Module("store"),
	}
}

// NewStoreFromSettings wires a loader and store from the loader and sources
// sections of settings.
func NewStoreFromSettings(settings *conf.Settings, m *metrics.DatasetMetrics, log logger.Logger) *Store {
	if log == nil {
		log = logger.Global().Module("dataset")
	}
	loader := NewLoader(OptionsFromSettings(&settings.Loader), log)
	return NewStore(loader, SourcesFromSettings(&settings.Sources), m, log)
}

// SetPublisher routes load, failure and invalidation events to p.
// Call it before the store is shared.
func (s *Store) SetPublisher(p Publisher) {
	s.events = p
}

func (s *Store) publish(event events.DatasetEvent) {
	if s.events == nil {
		return
	}
	s.events.TryPublish(event)
}

// Source returns the configured source for habitat.
func (s *Store) Source(habitat observation.Habitat) (string, error) {
	src := s.sources[habitat]
	if src == "" {
		return "", errors.New(fmt.Errorf("no source configured for habitat %s", habitat)).
			Component("dataset").
			Category(errors.CategoryConfiguration).
			Context("habitat", habitat.String()).
			Build()
	}
	return src, nil
}

func cacheKey(habitat observation.Habitat, source string) string {
	return habitat.String() + "|" + source
}

// Get returns the table for habitat, loading it on first use.
func (s *Store) Get(ctx context.Context, habitat observation.Habitat) (*observation.Table, error) {
	src, err := s.Source(habitat)
	if err != nil {
		return nil, err
	}
	key := cacheKey(habitat, src)

	if v, found := s.tables.Get(key); found {
		s.metrics.RecordCacheLookup(habitat.String(), true)
		return v.(*entry).table, nil
	}
	s.metrics.RecordCacheLookup(habitat.String(), false)

	// The shared load must not die with the first caller's context.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		if v, found := s.tables.Get(key); found {
			return v, nil
		}
		e, err := s.load(loadCtx, habitat, src)
		if err != nil {
			return nil, err
		}
		s.tables.Set(key, e, cache.NoExpiration)
		return e, nil
	})

	select {
	case <-ctx.Done():
		return nil, contextError(ctx, habitat)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*entry).table, nil
	}
}

// Reload re-reads the source for habitat and replaces the memoized table.
// On failure the previously loaded table stays in place.
func (s *Store) Reload(ctx context.Context, habitat observation.Habitat) (*observation.Table, LoadReport, error) {
	src, err := s.Source(habitat)
	if err != nil {
		return nil, LoadReport{}, err
	}
	key := cacheKey(habitat, src)

	s.group.Forget(key)
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("reload|"+key, func() (any, error) {
		e, err := s.load(loadCtx, habitat, src)
		if err != nil {
			return nil, err
		}
		s.tables.Set(key, e, cache.NoExpiration)
		return e, nil
	})

	select {
	case <-ctx.Done():
		return nil, LoadReport{}, contextError(ctx, habitat)
	case res := <-ch:
		if res.Err != nil {
			s.log.Warn("Reload failed, keeping previous table",
				logger.String("habitat", habitat.String()),
				logger.Error(res.Err))
			return nil, LoadReport{}, res.Err
		}
		e := res.Val.(*entry)
		return e.table, e.report, nil
	}
}

// Invalidate drops the memoized table for habitat.
func (s *Store) Invalidate(habitat observation.Habitat) {
	src := s.sources[habitat]
	s.tables.Delete(cacheKey(habitat, src))
	s.metrics.ClearTable(habitat.String())
	s.log.Info("Invalidated observation table", logger.String("habitat", habitat.String()))
	s.publish(events.DatasetEvent{
		Kind:    events.KindInvalidated,
		Habitat: habitat.String(),
		Source:  privacy.SanitizeSource(src),
	})
}

// Loaded returns the habitats with a memoized table, in display order.
func (s *Store) Loaded() []observation.Habitat {
	var out []observation.Habitat
	for _, h := range observation.Habitats() {
		if _, ok := s.Report(h); ok {
			out = append(out, h)
		}
	}
	return out
}

// Report returns the load report of the memoized table for habitat.
func (s *Store) Report(habitat observation.Habitat) (LoadReport, bool) {
	src := s.sources[habitat]
	if src == "" {
		return LoadReport{}, false
	}
	v, found := s.tables.Get(cacheKey(habitat, src))
	if !found {
		return LoadReport{}, false
	}
	return v.(*entry).report, true
}

// Preload loads every habitat with a configured source concurrently.
func (s *Store) Preload(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, h := range observation.Habitats() {
		if s.sources[h] == "" {
			s.log.Warn("Skipping preload, no source configured", logger.String("habitat", h.String()))
			continue
		}
		wg.Go(func() {
			if _, err := s.Get(ctx, h); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (s *Store) load(ctx context.Context, habitat observation.Habitat, src string) (*entry, error) {
	start := time.Now()
	table, report, err := s.loader.Load(ctx, habitat, src)
	if err != nil {
		category := string(errors.CategoryGeneric)
		var ee *errors.EnhancedError
		if errors.As(err, &ee) {
			category = ee.GetCategory()
		}
		sourceType := string(report.SourceType)
		if sourceType == "" {
			sourceType = "unknown"
		}
		s.metrics.RecordLoadError(habitat.String(), sourceType, category, time.Since(start).Seconds())
		s.log.Error("Failed to load observation table",
			logger.String("habitat", habitat.String()),
			logger.String("category", category),
			logger.Error(err))
		s.publish(events.DatasetEvent{
			Kind:       events.KindLoadFailed,
			Habitat:    habitat.String(),
			SourceType: sourceType,
			Source:     privacy.SanitizeSource(src),
			Category:   category,
			Message:    privacy.ScrubMessage(err.Error()),
			DurationMS: time.Since(start).Milliseconds(),
		})
		return nil, err
	}

	s.metrics.RecordLoad(habitat.String(), string(report.SourceType), report.Rows, report.Dropped, report.Duration.Seconds())
	s.publish(events.DatasetEvent{
		Kind:       events.KindLoaded,
		Habitat:    habitat.String(),
		SourceType: string(report.SourceType),
		Source:     report.Source,
		Rows:       report.Rows,
		Dropped:    report.Dropped,
		DurationMS: report.Duration.Milliseconds(),
	})
	return &entry{table: table, report: report}, nil
}

func contextError(ctx context.Context, habitat observation.Habitat) error {
	category := errors.CategoryCancellation
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		category = errors.CategoryTimeout
	}
	return errors.New(fmt.Errorf("waiting for %s table: %w", habitat, ctx.Err())).
		Component("dataset").
		Category(category).
		Build()
}
