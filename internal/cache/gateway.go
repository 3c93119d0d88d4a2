package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/timesup-portal/internal/common"
	"github.com/bobmcallan/timesup-portal/internal/schedule"
	"golang.org/x/sync/singleflight"
)

// Freshness tags how a response was produced.
type Freshness string

const (
	FreshnessHit   Freshness = "HIT"
	FreshnessMiss  Freshness = "MISS"
	FreshnessStale Freshness = "STALE"
	// FreshnessError means the upstream failed and nothing was cached.
	FreshnessError Freshness = "ERROR"
)

// Fetcher retrieves the current chart payload from the upstream source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Scheduler decides when a freshly fetched payload expires.
type Scheduler interface {
	ExpirationFor(now time.Time, payload []byte, force bool) (time.Time, schedule.Reason)
}

// Observer receives gateway events, typically for metrics.
type Observer interface {
	ObserveServe(freshness Freshness)
	ObserveFetch(err error, elapsed time.Duration)
	ObserveExpiry(expiresAt time.Time)
}

type noopObserver struct{}

func (noopObserver) ObserveServe(Freshness)            {}
func (noopObserver) ObserveFetch(error, time.Duration) {}
func (noopObserver) ObserveExpiry(time.Time)           {}

// Response is the outcome of Serve. MaxAgeSeconds is the lifetime advertised
// to HTTP caches; Err is set only when Freshness is FreshnessError.
type Response struct {
	Payload       []byte
	Freshness     Freshness
	MaxAgeSeconds int
	ExpiresAt     time.Time
	Err           error
}

// OK reports whether the response carries a payload.
func (r Response) OK() bool {
	return r.Freshness != FreshnessError
}

// Gateway mediates every read of the chart cache slot.
// It is safe for concurrent use; concurrent misses share a single upstream fetch.
type Gateway struct {
	store     Store
	scheduler Scheduler
	fetcher   Fetcher
	staleTTL  time.Duration
	logger    *common.Logger
	observer  Observer
	flight    singleflight.Group
}

// NewGateway creates a gateway over store. staleTTL is the max-age advertised
// when a stale payload is served after an upstream failure.
func NewGateway(store Store, scheduler Scheduler, fetcher Fetcher, staleTTL time.Duration, logger *common.Logger) *Gateway {
	return &Gateway{
		store:     store,
		scheduler: scheduler,
		fetcher:   fetcher,
		staleTTL:  staleTTL,
		logger:    logger,
		observer:  noopObserver{},
	}
}

// SetObserver installs an event observer.
func (g *Gateway) SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	g.observer = o
}

// load reads the slot, treating storage failures as an empty slot.
func (g *Gateway) load(ctx context.Context) Slot {
	slot, err := g.store.Load(ctx)
	if err != nil {
		g.logger.Warn().Str("error", err.Error()).Msg("chart cache unreadable, treating as miss")
		return Slot{}
	}
	return slot
}

// Get returns the slot when it holds a payload that is still valid at now.
// It never mutates the slot.
func (g *Gateway) Get(ctx context.Context, now time.Time) (Slot, bool) {
	slot := g.load(ctx)
	if !slot.ValidAt(now) {
		return Slot{}, false
	}
	return slot, true
}

// Refresh fetches a new payload, stores it with a schedule-derived expiration
// and returns it. On fetch failure the slot is left untouched and a
// *FetchError carrying the resident slot is returned.
func (g *Gateway) Refresh(ctx context.Context, now time.Time, force bool) (Slot, error) {
	return g.refreshShared(ctx, now, force, false)
}

// refreshShared runs at most one upstream fetch per key at a time. With
// reuseValid set, a caller that missed just before another fetch landed picks
// up that result instead of fetching again.
func (g *Gateway) refreshShared(ctx context.Context, now time.Time, force, reuseValid bool) (Slot, error) {
	key := "chart"
	if force {
		key = "chart:test"
	}

	// The shared fetch must not die with whichever caller started it.
	fetchCtx := context.WithoutCancel(ctx)

	v, err, shared := g.flight.Do(key, func() (any, error) {
		if reuseValid {
			if slot, ok := g.Get(fetchCtx, now); ok {
				return slot, nil
			}
		}
		return g.refresh(fetchCtx, now, force)
	})
	if shared {
		g.logger.Debug().Msg("joined in-flight chart fetch")
	}
	if err != nil {
		return Slot{}, err
	}
	return v.(Slot), nil
}

func (g *Gateway) refresh(ctx context.Context, now time.Time, force bool) (Slot, error) {
	start := time.Now()
	payload, err := g.fetcher.Fetch(ctx)
	g.observer.ObserveFetch(err, time.Since(start))
	if err != nil {
		return Slot{}, &FetchError{Err: err, Previous: g.load(ctx)}
	}

	expiresAt, reason := g.scheduler.ExpirationFor(now, payload, force)
	if reason == schedule.ReasonFallback {
		g.logger.Warn().Msg("no next window start found, using max ttl")
	}

	slot := Slot{
		Payload:   payload,
		FetchedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := g.store.Save(ctx, slot); err != nil {
		// The fresh payload is still served; the next request refetches.
		g.logger.Error().Str("error", err.Error()).Msg("failed to store chart cache")
	} else {
		g.observer.ObserveExpiry(expiresAt)
	}

	g.logger.Info().
		Str("expires_at", expiresAt.UTC().Format(time.RFC3339)).
		Str("reason", string(reason)).
		Int("bytes", len(payload)).
		Msg("chart cache refreshed")

	return slot, nil
}

// Serve answers one chart data request: a valid slot is a HIT, a successful
// refresh a MISS, a failed refresh with a previous payload STALE, and a failed
// refresh with nothing cached an error response.
func (g *Gateway) Serve(ctx context.Context, now time.Time, force bool) Response {
	resp := g.serve(ctx, now, force)
	g.observer.ObserveServe(resp.Freshness)
	return resp
}

func (g *Gateway) serve(ctx context.Context, now time.Time, force bool) Response {
	if slot, ok := g.Get(ctx, now); ok {
		return Response{
			Payload:       slot.Payload,
			Freshness:     FreshnessHit,
			MaxAgeSeconds: maxAgeSeconds(slot.ExpiresAt, now),
			ExpiresAt:     slot.ExpiresAt,
		}
	}

	slot, err := g.refreshShared(ctx, now, force, true)
	if err == nil {
		return Response{
			Payload:       slot.Payload,
			Freshness:     FreshnessMiss,
			MaxAgeSeconds: maxAgeSeconds(slot.ExpiresAt, now),
			ExpiresAt:     slot.ExpiresAt,
		}
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) && fetchErr.HasPrevious() {
		g.logger.Warn().Str("error", err.Error()).Msg("serving stale chart cache after upstream failure")
		return Response{
			Payload:       fetchErr.Previous.Payload,
			Freshness:     FreshnessStale,
			MaxAgeSeconds: int(g.staleTTL / time.Second),
			ExpiresAt:     fetchErr.Previous.ExpiresAt,
		}
	}

	g.logger.Error().Str("error", err.Error()).Msg("chart data unavailable")
	return Response{Freshness: FreshnessError, Err: err}
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (g *Gateway) Clear(ctx context.Context) error {
	if err := g.store.Clear(ctx); err != nil {
		return err
	}
	g.logger.Info().Msg("chart cache cleared")
	return nil
}

// maxAgeSeconds rounds the remaining lifetime up to whole seconds.
func maxAgeSeconds(expiresAt, now time.Time) int {
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Second - 1) / time.Second)
}
