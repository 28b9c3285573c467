package core

import (
	"context"
	"net/url"
	"time"

	"github.com/dkeye/Huddle/internal/domain"
)

// SessionOpts carries creation parameters for GetOrCreateSession.
type SessionOpts struct {
	StartsAt    time.Time
	Description string
	Custom      map[string]string
}

// IdentityProvider is the auth boundary. Identity returns nil until the
// provider has loaded; the bool reports loaded-ness, not presence.
type IdentityProvider interface {
	Identity() (*domain.User, bool)
}

// SessionProvider is the boundary to the external real-time backend.
// Media, codecs and signaling all live behind it; the orchestrator only
// drives the session lifecycle and observes connection status.
type SessionProvider interface {
	GetOrCreateSession(ctx context.Context, id domain.MeetingID, opts SessionOpts) (*domain.Meeting, error)
	Join(ctx context.Context, id domain.MeetingID) error
	Leave(ctx context.Context, id domain.MeetingID) error
	End(ctx context.Context, id domain.MeetingID) error
	ConnectionStatus(id domain.MeetingID) ConnStatus
}

// Navigator abstracts the client-side router.
type Navigator interface {
	Navigate(path string)
	QueryParams() url.Values
}

// Clipboard writes text on the client. Pure side effect.
type Clipboard interface {
	WriteText(s string) error
}

// Notifier delivers transient user-visible notices. Fire-and-forget,
// no delivery guarantee.
type Notifier interface {
	Notify(message string)
}

// UISurface bundles the client-facing capabilities of one mounted view.
// Adapters own the concrete implementation and its lifetime.
type UISurface interface {
	Navigator
	Clipboard
	Notifier
}
