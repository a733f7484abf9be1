package view

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coursehub/wishlist/internal/catalog"
	apperrors "github.com/coursehub/wishlist/pkg/errors"
)

// Registry keeps one mounted View per user.
type Registry struct {
	mu      sync.RWMutex
	views   map[string]*View
	deps    Deps
	locales *catalog.Locales
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(deps Deps, locales *catalog.Locales) *Registry {
	return &Registry{
		views:   make(map[string]*View),
		deps:    deps,
		locales: locales,
		logger:  deps.Logger,
	}
}

// Mount creates a fresh view for userID, replacing any mounted one, and
// loads it from the locale's course API. A store failure leaves nothing
// mounted.
func (r *Registry) Mount(ctx context.Context, userID, locale string) (*View, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	v := New(userID, r.deps)
	r.mu.Lock()
	if _, ok := r.views[userID]; !ok {
		activeViews.Inc()
	}
	r.views[userID] = v
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "wishlist view mounted",
		slog.String("user_id", userID),
		slog.String("locale", locale),
	)

	if err := v.Load(ctx, r.locales.BaseURL(locale)); err != nil {
		r.remove(userID, v)
		return nil, err
	}
	return v, nil
}

// Attach returns the mounted view of userID after applying the locale's base
// URL, which reloads only when it changed. Without a mounted view it mounts
// one.
func (r *Registry) Attach(ctx context.Context, userID, locale string) (*View, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	// Touching under the lock orders this use against a concurrent Sweep.
	r.mu.RLock()
	v, ok := r.views[userID]
	if ok {
		v.touch()
	}
	r.mu.RUnlock()
	if !ok {
		return r.Mount(ctx, userID, locale)
	}

	if err := v.SetBaseURL(ctx, r.locales.BaseURL(locale)); err != nil {
		return nil, err
	}
	return v, nil
}

// remove drops userID only while it still maps to v.
func (r *Registry) remove(userID string, v *View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.views[userID]; ok && cur == v {
		delete(r.views, userID)
		activeViews.Dec()
	}
}

// Get returns the mounted view of userID.
func (r *Registry) Get(userID string) (*View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.views[userID]
	if !ok {
		return nil, apperrors.NotFound("wishlist view", userID)
	}
	v.touch()
	return v, nil
}

// Unmount drops the user's view. Unknown users are ignored.
func (r *Registry) Unmount(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.views[userID]; ok {
		delete(r.views, userID)
		activeViews.Dec()
	}
}

// Len returns the number of mounted views.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}

// Sweep unmounts views unused for longer than idle and returns how many
// were dropped.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for id, v := range r.views {
		if v.idleSince(cutoff) {
			delete(r.views, id)
			dropped++
		}
	}
	activeViews.Sub(float64(dropped))
	return dropped
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.logger.InfoContext(ctx, "swept idle wishlist views",
					slog.Int("dropped", n),
					slog.Int("remaining", r.Len()),
				)
			}
		}
	}
}
