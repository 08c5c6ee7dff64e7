// Package freshness keeps one cleaned, aggregated generation of the dataset
// in memory and rebuilds it only when the source fingerprint changes.
package freshness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/wonny/dietdash/internal/aggregate"
	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/internal/metrics"
	"github.com/wonny/dietdash/internal/store"
	"github.com/wonny/dietdash/pkg/logger"
)

// DefaultReadTimeout bounds a source read when Options.ReadTimeout is zero
const DefaultReadTimeout = 30 * time.Second

// Snapshot is one immutable generation of the cleaned dataset
// ⭐ SSOT: handlers read rows and aggregates only from a Snapshot
type Snapshot struct {
	Fingerprint  string
	Generation   string
	Table        *contracts.Table
	AvgMacros    map[string]contracts.MacroAverages
	RecipeCounts map[string]int
	Stats        dataset.LoadStats
	BuiltAt      time.Time
}

// Summary returns the snapshot aggregates
func (s *Snapshot) Summary() contracts.AggregateSummary {
	return contracts.AggregateSummary{AvgMacros: s.AvgMacros, RecipeCounts: s.RecipeCounts}
}

// Options configures a Cache. ReadTimeout bounds both source reads and
// durable writes.
type Options struct {
	Source       Source
	Store        store.Store // nil disables durable writes
	ArtifactPath string      // empty disables the cleaned-table artifact
	ReadTimeout  time.Duration
	Metrics      *metrics.Metrics
	Logger       *logger.Logger
}

// Cache is the freshness-gated dataset cache
type Cache struct {
	source       Source
	store        store.Store
	artifactPath string
	readTimeout  time.Duration
	metrics      *metrics.Metrics
	log          *logger.Logger

	current    atomic.Pointer[Snapshot]
	group      singleflight.Group
	recomputes atomic.Int64

	// builds are numbered when they start; publishMu orders publication so
	// a slower older build never replaces a newer generation
	builds    atomic.Uint64
	publishMu sync.Mutex
	published uint64
}

// New creates an empty cache
func New(opts Options) *Cache {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	return &Cache{
		source:       opts.Source,
		store:        opts.Store,
		artifactPath: opts.ArtifactPath,
		readTimeout:  opts.ReadTimeout,
		metrics:      opts.Metrics,
		log:          opts.Logger.WithComponent("freshness"),
	}
}

// Current returns the latest snapshot or nil when nothing was built yet
func (c *Cache) Current() *Snapshot {
	return c.current.Load()
}

// Recomputes returns how many generations were built
func (c *Cache) Recomputes() int64 {
	return c.recomputes.Load()
}

// EnsureFresh returns a snapshot matching the current source fingerprint,
// rebuilding it when needed.
//
// On failure the previous snapshot (if any) is returned together with the
// error so callers can serve stale data. Without a previous snapshot the
// result is nil and the error wraps ErrSourceUnavailable or ErrSchema.
func (c *Cache) EnsureFresh(ctx context.Context) (*Snapshot, error) {
	prev := c.current.Load()

	fp, err := c.source.Fingerprint(ctx)
	if err != nil {
		return c.fail(prev, err)
	}
	if prev != nil && prev.Fingerprint == fp {
		return prev, nil
	}

	// one rebuild per fingerprint; the flight outlives any single caller
	ch := c.group.DoChan(fp, func() (interface{}, error) {
		if cur := c.current.Load(); cur != nil && cur.Fingerprint == fp {
			return cur, nil
		}
		return c.rebuild(context.WithoutCancel(ctx), fp, c.builds.Add(1))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return c.fail(c.current.Load(), res.Err)
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return c.fail(c.current.Load(), &contracts.SourceError{Source: c.source.Name(), Err: ctx.Err()})
	}
}

func (c *Cache) fail(prev *Snapshot, err error) (*Snapshot, error) {
	if prev == nil {
		return nil, err
	}
	c.metrics.StaleServes.Inc()
	c.log.WithError(err).WithField("generation", prev.Generation).Warn("Serving stale snapshot")
	return prev, err
}

type loadResult struct {
	table *contracts.Table
	stats dataset.LoadStats
	err   error
}

func (c *Cache) rebuild(ctx context.Context, fp string, seq uint64) (*Snapshot, error) {
	start := time.Now()
	name := c.source.Name()

	table, stats, err := c.load(ctx)
	if err != nil {
		c.metrics.RecomputeFailures.Inc()
		c.log.WithError(err).WithField("source", name).Error("Dataset recompute failed")
		return nil, err
	}

	cleaned := dataset.Clean(table, dataset.FillZero, false)
	summary := aggregate.Summarize(cleaned)

	snap := &Snapshot{
		Fingerprint:  fp,
		Generation:   uuid.NewString(),
		Table:        cleaned,
		AvgMacros:    summary.AvgMacros,
		RecipeCounts: summary.RecipeCounts,
		Stats:        stats,
		BuiltAt:      time.Now().UTC(),
	}

	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	if seq < c.published {
		cur := c.current.Load()
		c.log.WithFields(map[string]interface{}{
			"fingerprint": fp,
			"current":     cur.Fingerprint,
		}).Warn("Discarding superseded rebuild")
		return cur, nil
	}
	c.published = seq
	c.current.Store(snap)
	c.recomputes.Add(1)
	c.metrics.Recomputes.Inc()
	c.metrics.SnapshotRows.Set(float64(cleaned.Len()))

	c.log.WithFields(map[string]interface{}{
		"generation":     snap.Generation,
		"rows":           cleaned.Len(),
		"rows_dropped":   stats.RowsDropped,
		"missing_macros": stats.MissingMacros,
		"shadowed_cols":  stats.ShadowedColumns,
		"diets":          len(summary.RecipeCounts),
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Info("Dataset recomputed")

	c.persist(ctx, snap)
	c.writeArtifact(snap)

	return snap, nil
}

// load reads the source under the read timeout
func (c *Cache) load(ctx context.Context) (*contracts.Table, dataset.LoadStats, error) {
	name := c.source.Name()
	readCtx, cancel := context.WithTimeout(ctx, c.readTimeout)
	defer cancel()

	rc, err := c.source.Open(readCtx)
	if err != nil {
		return nil, dataset.LoadStats{}, err
	}
	defer rc.Close()

	ch := make(chan loadResult, 1)
	go func() {
		t, s, err := dataset.Load(readCtx, rc)
		ch <- loadResult{table: t, stats: s, err: err}
	}()

	select {
	case res := <-ch:
		if res.err == nil {
			return res.table, res.stats, nil
		}
		if errors.Is(res.err, contracts.ErrSchema) {
			return nil, res.stats, res.err
		}
		return nil, res.stats, &contracts.SourceError{Source: name, Err: res.err}
	case <-readCtx.Done():
		return nil, dataset.LoadStats{}, &contracts.SourceError{Source: name, Err: readCtx.Err()}
	}
}

// persist upserts both aggregate fragments; failures never fail the rebuild
func (c *Cache) persist(ctx context.Context, snap *Snapshot) {
	if c.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.readTimeout)
	defer cancel()

	fragments := map[string]interface{}{
		contracts.KeyAvgMacrosByDiet:    aggregate.Round2(snap.AvgMacros),
		contracts.KeyRecipeCountsByDiet: snap.RecipeCounts,
	}
	for _, key := range []string{contracts.KeyAvgMacrosByDiet, contracts.KeyRecipeCountsByDiet} {
		data, err := json.Marshal(fragments[key])
		if err == nil {
			err = c.store.Upsert(ctx, key, data)
		}
		if err != nil {
			c.metrics.DurableWriteFailures.Inc()
			c.log.WithError(err).WithField("key", key).Error("Durable store upsert failed")
		}
	}
}

func (c *Cache) writeArtifact(snap *Snapshot) {
	if c.artifactPath == "" {
		return
	}
	if err := dataset.WriteTableFile(c.artifactPath, snap.Table); err != nil {
		c.metrics.ArtifactWriteFailures.Inc()
		c.log.WithError(err).WithField("path", c.artifactPath).Error("Cleaned dataset write failed")
	}
}

// Read returns a persisted fragment; store.ErrNotFound when absent
func (c *Cache) Read(ctx context.Context, key string) ([]byte, error) {
	if c.store == nil {
		return nil, store.ErrNotFound
	}

	entry, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return entry.Data, nil
}
