package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/campaign-dash/internal/models"
	"github.com/AngelCh415/campaign-dash/internal/store"
	"github.com/AngelCh415/campaign-dash/internal/utils"
)

var ErrNotLoaded = errors.New("tables not loaded")

// Snapshot is one immutable load of both tables. Callers must not modify it.
type Snapshot struct {
	Activations models.ActivationTable
	Broadcast   models.BroadcastTable
	LoadedAt    time.Time
	Generation  uint64
}

// Cache holds the loaded tables for the process. It is invalidated only by
// an explicit Reload; a failed Reload keeps the previous snapshot.
type Cache struct {
	activations Source
	broadcast   Source
	log         *slog.Logger
	fetches     store.FetchLog
	metrics     *utils.Metrics
	now         func() time.Time

	reloadMu sync.Mutex
	mu       sync.RWMutex
	snap     *Snapshot
}

func NewCache(activations, broadcast Source, log *slog.Logger, fetches store.FetchLog, m *utils.Metrics) *Cache {
	if fetches == nil {
		fetches = store.NewMemoryStore()
	}
	return &Cache{
		activations: activations,
		broadcast:   broadcast,
		log:         log,
		fetches:     fetches,
		metrics:     m,
		now:         time.Now,
	}
}

// Tables returns the current snapshot.
func (c *Cache) Tables() (*Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return nil, ErrNotLoaded
	}
	return c.snap, nil
}

func (c *Cache) Loaded() bool {
	_, err := c.Tables()
	return err == nil
}

func (c *Cache) FetchLog() store.FetchLog { return c.fetches }

// Reload loads both tables and swaps them in. Concurrent calls are
// serialized.
func (c *Cache) Reload(ctx context.Context) (*Snapshot, error) {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	start := c.now()
	var (
		act models.ActivationTable
		bc  models.BroadcastTable
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		act, err = LoadActivations(gctx, c.activations)
		c.metrics.ObserveLoad("activations", len(act.Rows), err)
		return err
	})
	g.Go(func() error {
		var err error
		bc, err = LoadBroadcast(gctx, c.broadcast)
		c.metrics.ObserveLoad("broadcast", len(bc.Rows), err)
		return err
	})
	err := g.Wait()
	elapsed := c.now().Sub(start)
	c.metrics.ObserveReload(elapsed)

	rec := models.FetchRecord{
		ID:            uuid.NewString(),
		At:            start,
		OK:            err == nil,
		DurationMilli: elapsed.Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
		c.record(ctx, rec)
		c.log.Error("reload failed", slog.String("err", err.Error()))
		return nil, err
	}
	rec.Activations = len(act.Rows)
	rec.Broadcast = len(bc.Rows)
	c.record(ctx, rec)

	c.mu.Lock()
	var gen uint64 = 1
	if c.snap != nil {
		gen = c.snap.Generation + 1
	}
	snap := &Snapshot{Activations: act, Broadcast: bc, LoadedAt: start, Generation: gen}
	c.snap = snap
	c.mu.Unlock()

	c.log.Info("tables loaded",
		slog.Int("activations", rec.Activations),
		slog.Int("broadcast", rec.Broadcast),
		slog.Uint64("generation", gen),
		slog.Duration("took", elapsed))
	return snap, nil
}

func (c *Cache) record(ctx context.Context, rec models.FetchRecord) {
	if err := c.fetches.Record(ctx, rec); err != nil {
		c.log.Warn("fetch log write failed", slog.String("err", err.Error()))
	}
}
