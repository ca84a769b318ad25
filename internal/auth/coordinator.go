package auth

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/auxd/internal/spotify"
)

// Default coordination parameters, overridable through [CoordinatorOpts].
const (
	// DefaultCacheWindow is how long a freshly minted token is served to
	// repeated reauth requests without a new upstream call.
	DefaultCacheWindow = 200 * time.Millisecond
	// DefaultBatchLifespan is how long a refresh batch lives after
	// creation, regardless of activity.
	DefaultBatchLifespan = 9 * time.Second
)

// TokenRefresher performs the outbound token refresh for a host.
// Implemented by [spotify.Refresher].
type TokenRefresher interface {
	Refresh(ctx context.Context, hostID string) (*spotify.TokenResult, error)
}

// TokenStore is the write side of the credential store. The coordinator
// persists every refreshed token before handing it to callers.
type TokenStore interface {
	UpdateToken(hostID, accessToken, tokenType, refreshToken, scope string, expiresAt time.Time) error
}

// Clock abstracts wall time so batch expiry is testable without real waits.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Coordinator deduplicates concurrent token refreshes per host. Guest
// requests tend to discover an expired token all at once; without
// coordination each would mint its own token, and since the upstream may
// rotate the refresh token on every exchange, parallel refreshes are
// actively harmful rather than just wasteful.
//
// Per host the coordinator keeps a refresh batch: created on first reauth,
// torn down a fixed lifespan after creation (checked on access, never by
// timer). Within a live batch, at most one refresh is in flight at any
// time and every concurrent caller receives that flight's result.
type Coordinator struct {
	refresher     TokenRefresher
	store         TokenStore
	logger        *log.Logger
	clock         Clock
	cacheWindow   time.Duration
	batchLifespan time.Duration

	mu      sync.Mutex
	batches map[string]*batch
}

// batch is the in-memory coordination record for one host.
type batch struct {
	createdAt   time.Time
	lastRefresh time.Time
	latest      *spotify.TokenResult
	pending     *flight
}

// flight is one in-progress refresh shared by all callers awaiting it.
type flight struct {
	done  chan struct{}
	token *spotify.TokenResult
	err   error
}

// CoordinatorOpts configures a [Coordinator]. Zero values fall back to the
// package defaults.
type CoordinatorOpts struct {
	CacheWindow   time.Duration
	BatchLifespan time.Duration
	Clock         Clock
	Logger        *log.Logger
}

// NewCoordinator creates a refresh coordinator. Construct one per process
// and pass it by reference; its batch table is process-wide state whose
// only purpose is deduplication within a short window, so it needs no
// persistence.
func NewCoordinator(refresher TokenRefresher, store TokenStore, opts CoordinatorOpts) *Coordinator {
	if opts.CacheWindow <= 0 {
		opts.CacheWindow = DefaultCacheWindow
	}
	if opts.BatchLifespan <= 0 {
		opts.BatchLifespan = DefaultBatchLifespan
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Coordinator{
		refresher:     refresher,
		store:         store,
		logger:        opts.Logger,
		clock:         opts.Clock,
		cacheWindow:   opts.CacheWindow,
		batchLifespan: opts.BatchLifespan,
		batches:       make(map[string]*batch),
	}
}

// Reauth returns a fresh (or freshly cached) token for the host.
//
// N concurrent calls for the same host within the coordination window
// produce at most one outbound refresh, and all N callers observe the same
// result. A failed refresh propagates to every waiting caller and clears
// the in-flight state so a later call may retry.
//
// The caller's context bounds only the wait: a refresh, once started, is
// never aborted, preserving the at-most-one-in-flight guarantee.
func (c *Coordinator) Reauth(ctx context.Context, hostID string) (*spotify.TokenResult, error) {
	c.mu.Lock()

	now := c.clock.Now()
	b := c.batches[hostID]
	if b != nil && now.Sub(b.createdAt) >= c.batchLifespan {
		// Lifespan is measured from creation, not last activity. A host
		// active past it pays one extra refresh when the next batch starts.
		delete(c.batches, hostID)
		b = nil
	}
	if b == nil {
		b = &batch{createdAt: now}
		c.batches[hostID] = b
		c.logger.Debug("created refresh batch", "host", hostID)
	}

	if b.latest != nil && now.Sub(b.lastRefresh) < c.cacheWindow {
		token := b.latest
		c.mu.Unlock()
		return token, nil
	}

	fl := b.pending
	if fl == nil {
		fl = &flight{done: make(chan struct{})}
		b.pending = fl
		// The in-flight check-and-set happens under the lock, before any
		// wait, so two callers can never both become the initiator.
		go c.refresh(context.WithoutCancel(ctx), hostID, b, fl)
	}
	c.mu.Unlock()

	select {
	case <-fl.done:
		return fl.token, fl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// refresh runs the single outbound refresh for a flight, persists the
// result, and publishes it to all waiting callers.
func (c *Coordinator) refresh(ctx context.Context, hostID string, b *batch, fl *flight) {
	token, err := c.refresher.Refresh(ctx, hostID)
	if err == nil {
		expiresAt := c.clock.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
		if perr := c.store.UpdateToken(hostID, token.AccessToken, token.TokenType,
			token.RefreshToken, token.Scope, expiresAt); perr != nil {
			token, err = nil, perr
		}
	}

	c.mu.Lock()
	if err == nil {
		b.latest = token
		b.lastRefresh = c.clock.Now()
	}
	if b.pending == fl {
		b.pending = nil
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("token refresh failed", "host", hostID, "error", err)
	} else {
		c.logger.Debug("token refreshed", "host", hostID)
	}

	fl.token, fl.err = token, err
	close(fl.done)
}

// BatchActive reports whether a live (unexpired) batch exists for the host.
func (c *Coordinator) BatchActive(hostID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.batches[hostID]
	if !ok {
		return false
	}
	return c.clock.Now().Sub(b.createdAt) < c.batchLifespan
}
