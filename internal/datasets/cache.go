package datasets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	apperrors "usdataexplorer/internal/errors"
	"usdataexplorer/internal/infrastructure"
	"usdataexplorer/internal/tabular"
	"usdataexplorer/internal/validation"
	"usdataexplorer/pkg/contracts/events"
)

// Dataset is a fully parsed dataset. It is shared read-only between callers.
type Dataset struct {
	Key      string
	Location string
	Headers  []string
	Records  []tabular.Record
	Stats    tabular.Stats
	Missing  []string
	LoadedAt time.Time
	Duration time.Duration
}

// Status is the load state of one registry entry
type Status struct {
	Descriptor
	Location  string              `json:"location"`
	State     events.DatasetState `json:"state"`
	Rows      int                 `json:"rows"`
	Dropped   int                 `json:"dropped"`
	Missing   []string            `json:"missing_columns,omitempty"`
	LoadedAt  *time.Time          `json:"loaded_at,omitempty"`
	ExpiresAt *time.Time          `json:"expires_at,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// Options tunes the cache
type Options struct {
	// TTL bounds how long a parsed dataset is served before it is reloaded;
	// 0 keeps it until evicted
	TTL             time.Duration
	Lenient         bool
	WarmConcurrency int
}

type entry struct {
	dataset *Dataset
	state   events.DatasetState
	err     error
}

// Cache loads datasets on first use and keeps them in memory. Concurrent
// requests for the same dataset share a single load.
type Cache struct {
	registry *Registry
	source   Source
	opts     Options
	logger   *slog.Logger
	metrics  *infrastructure.BusinessMetrics
	tracer   trace.Tracer

	group singleflight.Group

	mu       sync.RWMutex
	entries  map[string]*entry
	onStatus func(events.DatasetStatus)

	now func() time.Time
}

// NewCache creates an empty cache. metrics may be nil.
func NewCache(registry *Registry, source Source, opts Options, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		registry: registry,
		source:   source,
		opts:     opts,
		logger:   logger.With(slog.String("component", "dataset_cache")),
		metrics:  metrics,
		tracer:   otel.Tracer(infrastructure.InstrumentationName),
		entries:  make(map[string]*entry),
		now:      time.Now,
	}
}

// Registry returns the registry the cache serves
func (c *Cache) Registry() *Registry {
	return c.registry
}

// OnStatus registers fn to receive every state change. It replaces any
// previous callback and is invoked outside the cache lock.
func (c *Cache) OnStatus(fn func(events.DatasetStatus)) {
	c.mu.Lock()
	c.onStatus = fn
	c.mu.Unlock()
}

func (c *Cache) fresh(e *entry) bool {
	if e == nil || e.dataset == nil {
		return false
	}
	return c.opts.TTL <= 0 || c.now().Before(e.dataset.LoadedAt.Add(c.opts.TTL))
}

// Get returns the parsed dataset, loading it when absent or expired. A
// cancelled ctx abandons the wait but not the shared load.
func (c *Cache) Get(ctx context.Context, key string) (*Dataset, error) {
	desc, ok := c.registry.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, key)
	}

	c.mu.RLock()
	e := c.entries[key]
	hit := c.fresh(e)
	var ds *Dataset
	if hit {
		ds = e.dataset
	}
	c.mu.RUnlock()

	infrastructure.RecordCacheLookup(ctx, c.metrics, key, hit)
	if hit {
		return ds, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.load(context.WithoutCancel(ctx), desc)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dataset), nil
	}
}

// Records is Get returning only the records
func (c *Cache) Records(ctx context.Context, key string) ([]tabular.Record, error) {
	ds, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return ds.Records, nil
}

// Reload evicts key and loads it again
func (c *Cache) Reload(ctx context.Context, key string) (*Dataset, error) {
	if _, ok := c.registry.Get(key); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, key)
	}
	c.Evict(key)
	return c.Get(ctx, key)
}

// Evict drops the parsed records of key. It reports whether anything was
// cached.
func (c *Cache) Evict(key string) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	had := ok && e.dataset != nil
	if ok {
		delete(c.entries, key)
	}
	fn := c.onStatus
	c.mu.Unlock()

	if had {
		c.logger.Info("Dataset evicted", slog.String("dataset", key))
		c.notify(fn, events.DatasetStatus{Dataset: key, State: events.DatasetEvicted, UpdatedAt: c.now().UTC()})
	}
	return had
}

// Warm loads keys, or every registered dataset when none are given, with at
// most Options.WarmConcurrency loads in flight. Every key is attempted; the
// first failure is returned.
func (c *Cache) Warm(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		keys = c.registry.Keys()
	}

	limit := c.opts.WarmConcurrency
	if limit <= 0 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	start := c.now()
	for _, key := range keys {
		key := key
		g.Go(func() error {
			if _, err := c.Get(ctx, key); err != nil {
				return fmt.Errorf("warm %s: %w", key, err)
			}
			return nil
		})
	}

	err := g.Wait()
	c.logger.InfoContext(ctx, "Dataset warm-up finished",
		slog.Int("datasets", len(keys)),
		slog.Duration("duration", c.now().Sub(start)),
		slog.Bool("ok", err == nil))
	return err
}

// Status reports every registered dataset in registry order
func (c *Cache) Status() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Status, 0, len(c.registry.order))
	for _, desc := range c.registry.Descriptors() {
		st := Status{
			Descriptor: desc,
			Location:   c.source.Location(desc.File),
			State:      events.DatasetNotLoaded,
		}
		if e, ok := c.entries[desc.Key]; ok {
			st.State = e.state
			if e.err != nil {
				st.Error = e.err.Error()
			}
			if ds := e.dataset; ds != nil {
				loaded := ds.LoadedAt
				st.LoadedAt = &loaded
				st.Rows = ds.Stats.Parsed
				st.Dropped = ds.Stats.Dropped
				st.Missing = ds.Missing
				if c.opts.TTL > 0 {
					expires := loaded.Add(c.opts.TTL)
					st.ExpiresAt = &expires
				}
			}
		}
		out = append(out, st)
	}
	return out
}

func (c *Cache) load(ctx context.Context, desc Descriptor) (*Dataset, error) {
	ctx, span := c.tracer.Start(ctx, "datasets.load",
		trace.WithAttributes(attribute.String("dataset", desc.Key), attribute.String("file", desc.File)))
	defer span.End()

	logger := c.logger.With(slog.String("dataset", desc.Key))
	start := c.now()
	location := c.source.Location(desc.File)

	c.setState(desc.Key, events.DatasetLoading, nil, nil)
	logger.InfoContext(ctx, "Loading dataset", slog.String("location", location))

	ds, err := c.fetch(ctx, desc, location)
	duration := c.now().Sub(start)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.RecordDatasetLoad(ctx, c.metrics, desc.Key, 0, 0, duration, err)
		logger.ErrorContext(ctx, "Dataset load failed",
			slog.String("location", location),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration))
		c.setState(desc.Key, events.DatasetFailed, nil, err)
		return nil, err
	}

	ds.LoadedAt = c.now()
	ds.Duration = duration
	infrastructure.RecordDatasetLoad(ctx, c.metrics, desc.Key, ds.Stats.Parsed, ds.Stats.Dropped, duration, nil)
	infrastructure.AddSpanEvent(ctx, "dataset.parsed",
		attribute.Int("rows", ds.Stats.Parsed),
		attribute.Int("dropped", ds.Stats.Dropped))

	if len(ds.Missing) > 0 {
		logger.WarnContext(ctx, "Dataset is missing expected columns",
			slog.String("missing", strings.Join(ds.Missing, ", ")))
	}
	logger.InfoContext(ctx, "Dataset loaded",
		slog.Int("rows", ds.Stats.Parsed),
		slog.Int("dropped", ds.Stats.Dropped),
		slog.Duration("duration", duration))

	c.setState(desc.Key, events.DatasetReady, ds, nil)
	return ds, nil
}

func (c *Cache) fetch(ctx context.Context, desc Descriptor, location string) (*Dataset, error) {
	rc, err := c.source.Open(ctx, desc.File)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	res, err := tabular.ParseReader(ctx, rc, tabular.Options{Lenient: c.opts.Lenient})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		if errors.Is(err, ErrTooLarge) {
			return nil, apperrors.NewNetworkError("source too large", err).WithContext("file", desc.File)
		}
		return nil, apperrors.NewParsingError("failed to parse dataset", err).WithContext("file", desc.File)
	}

	return &Dataset{
		Key:      desc.Key,
		Location: location,
		Headers:  res.Headers,
		Records:  res.Records,
		Stats:    res.Stats,
		Missing:  validation.MissingColumns(res.Headers, desc.Columns...),
	}, nil
}

// setState records a transition. A failed load keeps the previous records
// so Status still reports what was last served.
func (c *Cache) setState(key string, state events.DatasetState, ds *Dataset, err error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.state = state
	e.err = err
	if ds != nil {
		e.dataset = ds
	}
	fn := c.onStatus
	c.mu.Unlock()

	st := events.DatasetStatus{Dataset: key, State: state, UpdatedAt: c.now().UTC()}
	if ds != nil {
		st.Rows = ds.Stats.Parsed
		st.Dropped = ds.Stats.Dropped
	}
	if err != nil {
		st.Error = err.Error()
	}
	c.notify(fn, st)
}

func (c *Cache) notify(fn func(events.DatasetStatus), st events.DatasetStatus) {
	if fn != nil {
		fn(st)
	}
}
