package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/core"
)

// Stage is the pre-join state machine: Loading until identity and lookup
// have both settled, then Setup, then InRoom. InRoom is terminal for the
// lifetime of the mount.
type Stage int

const (
	StageLoading Stage = iota
	StageSetup
	StageInRoom
)

func (s Stage) String() string {
	switch s {
	case StageSetup:
		return "setup"
	case StageInRoom:
		return "in_room"
	default:
		return "loading"
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var ErrNotReady = errors.New("session still resolving")

// SetupStage gates entry into the live room behind local readiness.
// The transition fires only on an explicit Confirm, never on a timer, and
// never while identity or the session lookup is still pending.
type SetupStage struct {
	identity core.IdentityProvider
	lookup   *Lookup

	mu   sync.Mutex
	done bool
}

func NewSetupStage(identity core.IdentityProvider, lookup *Lookup) *SetupStage {
	return &SetupStage{identity: identity, lookup: lookup}
}

func (s *SetupStage) Current(ctx context.Context) Stage {
	if _, loaded := s.identity.Identity(); !loaded {
		return StageLoading
	}
	handle, loading := s.lookup.Resolve(ctx)
	if loading || handle == nil {
		return StageLoading
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return StageInRoom
	}
	return StageSetup
}

// Confirm records local readiness. Confirming an already-entered room is a
// no-op; confirming while still loading is rejected so no ordering of
// identity/lookup completions can reach the room early.
func (s *SetupStage) Confirm(ctx context.Context) error {
	switch s.Current(ctx) {
	case StageLoading:
		return ErrNotReady
	case StageInRoom:
		return nil
	}
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	log.Info().Str("module", "app.setup").Str("meeting", string(s.lookup.ID())).Msg("setup confirmed, entering room")
	return nil
}
