package storefront

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"github.com/noah-isme/toko-storefront/internal/obs"
)

// DefaultIdleTTL is how long an untouched session controller stays in memory.
const DefaultIdleTTL = 30 * time.Minute

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	Products   ProductLookup
	Controller ControllerConfig
	Store      Store
	IdleTTL    time.Duration
	Logger     zerolog.Logger
	Meter      metric.Meter
	Now        func() time.Time
}

type registryEntry struct {
	controller *Controller
	lastSeen   time.Time
}

// Registry keeps one controller per session id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*registryEntry

	products ProductLookup
	ctrlCfg  ControllerConfig
	store    Store
	idleTTL  time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRegistry constructs a registry. When cfg.Meter is set an observable
// gauge reports the live session count.
func NewRegistry(cfg RegistryConfig) *Registry {
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = DefaultIdleTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ctrlCfg := cfg.Controller
	if ctrlCfg.Now == nil {
		ctrlCfg.Now = now
	}
	r := &Registry{
		sessions: make(map[string]*registryEntry),
		products: cfg.Products,
		ctrlCfg:  ctrlCfg,
		store:    cfg.Store,
		idleTTL:  idle,
		logger:   cfg.Logger,
		now:      now,
	}
	if cfg.Meter != nil {
		if _, err := cfg.Meter.Int64ObservableGauge(
			"storefront.sessions.live",
			metric.WithDescription("Live storefront session controllers."),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(int64(r.Len()))
				return nil
			}),
		); err != nil {
			r.logger.Warn().Err(err).Msg("register session gauge")
		}
	}
	return r
}

// Get returns the controller for sessionID. On a miss it restores the last
// snapshot from the store, or starts a fresh session. Store failures are
// logged and yield a fresh session.
func (r *Registry) Get(ctx context.Context, sessionID string) *Controller {
	r.mu.Lock()
	if e, ok := r.sessions[sessionID]; ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.controller
	}
	r.mu.Unlock()

	ctrl := NewController(r.ctrlCfg)
	if r.store != nil {
		snap, found, err := r.store.Load(ctx, sessionID)
		if err != nil {
			r.logger.Warn().Err(err).Str("session_id", sessionID).Msg("restore storefront session")
		} else if found && r.products != nil {
			ctrl.Restore(snap, r.products)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sessionID]; ok {
		ctrl.Close()
		e.lastSeen = r.now()
		return e.controller
	}
	r.sessions[sessionID] = &registryEntry{controller: ctrl, lastSeen: r.now()}
	r.reportSize()
	return ctrl
}

// Save persists the snapshot of sessionID. Without a store it does nothing.
func (r *Registry) Save(ctx context.Context, sessionID string) error {
	if r.store == nil {
		return nil
	}
	r.mu.Lock()
	e, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return r.store.Save(ctx, sessionID, e.controller.Snapshot())
}

// Sweep evicts sessions idle for longer than the idle TTL and stops their
// timers. It returns the number evicted.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			e.controller.Close()
			delete(r.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		r.reportSize()
	}
	return evicted
}

// Run sweeps idle sessions until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	interval := r.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug().Int("evicted", n).Msg("storefront sessions swept")
			}
		}
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) reportSize() {
	if obs.StorefrontSessionsActive != nil {
		obs.StorefrontSessionsActive.Set(float64(len(r.sessions)))
	}
}
