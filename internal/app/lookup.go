package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// Lookup resolves a raw meeting identifier to a session handle.
// It issues at most one get-or-create request per instance and caches the
// result, so repeated reads never hit the provider again.
type Lookup struct {
	provider core.SessionProvider
	id       domain.MeetingID

	mu      sync.Mutex
	started bool
	loading bool
	handle  *domain.Meeting
	gen     uint64
	closed  bool
}

// NewLookup normalizes the raw identifier once; the cleaned id is what every
// later stage sees.
func NewLookup(provider core.SessionProvider, rawID string) *Lookup {
	return &Lookup{provider: provider, id: domain.CleanMeetingID(rawID)}
}

func (l *Lookup) ID() domain.MeetingID { return l.id }

// Resolve reports the current (handle, isLoading) pair, kicking off the
// single provider request on first call. An empty id or missing provider
// yields (nil, false) and the caller must not proceed. A failed request also
// settles at (nil, false); retry is the caller's decision, never automatic.
func (l *Lookup) Resolve(ctx context.Context) (*domain.Meeting, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.id == "" || l.provider == nil || l.closed {
		return nil, false
	}
	if l.handle != nil {
		return l.handle, false
	}
	if !l.started {
		l.started = true
		l.loading = true
		// The fetch outlives the caller: a mount request that returns (and
		// cancels its context) must not cancel the one-and-only provider
		// call. Stale results are handled by the generation check instead.
		go l.fetch(context.WithoutCancel(ctx), l.gen)
	}
	return nil, l.loading
}

// fetch runs off the caller's goroutine. The generation check makes a result
// that lands after Close harmless instead of merely ignored.
func (l *Lookup) fetch(ctx context.Context, gen uint64) {
	handle, err := l.provider.GetOrCreateSession(ctx, l.id, core.SessionOpts{})

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || gen != l.gen {
		log.Warn().Str("module", "app.lookup").Str("meeting", string(l.id)).Msg("stale lookup result discarded")
		return
	}
	l.loading = false
	if err != nil {
		log.Error().Err(err).Str("module", "app.lookup").Str("meeting", string(l.id)).Msg("session lookup failed")
		return
	}
	l.handle = handle
	log.Info().Str("module", "app.lookup").Str("meeting", string(l.id)).Msg("session resolved")
}

// Close invalidates the instance. Safe to call with a request in flight.
func (l *Lookup) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.gen++
}
