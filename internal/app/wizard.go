package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// WizardMode is the active creation/join sub-flow. Selecting a new mode
// silently replaces the current one.
type WizardMode int

const (
	ModeIdle WizardMode = iota
	ModeScheduling
	ModeJoining
	ModeInstant
)

func (m WizardMode) String() string {
	switch m {
	case ModeScheduling:
		return "scheduling"
	case ModeJoining:
		return "joining"
	case ModeInstant:
		return "instant"
	default:
		return "idle"
	}
}

func (m WizardMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Draft is the transient wizard input. It exists only while the wizard is
// open and is never persisted.
type Draft struct {
	StartsAt    time.Time
	Description string
	Link        string
}

var (
	ErrNoIdentity   = errors.New("identity not available")
	ErrNoProvider   = errors.New("session provider not available")
	ErrDateRequired = errors.New("date and time required")
	ErrNoSession    = errors.New("no session created yet")
)

const defaultDescription = "Instant meeting"

// Wizard drives meeting creation and join-by-link from the dashboard.
// Short-lived: one per client surface, reset whenever a mode opens.
type Wizard struct {
	identity core.IdentityProvider
	provider core.SessionProvider
	nav      core.Navigator
	clip     core.Clipboard
	notify   core.Notifier
	baseURL  string

	mu         sync.Mutex
	mode       WizardMode
	draft      Draft
	handle     *domain.Meeting
	redirected bool
}

func NewWizard(
	identity core.IdentityProvider,
	provider core.SessionProvider,
	nav core.Navigator,
	clip core.Clipboard,
	notify core.Notifier,
	baseURL string,
) *Wizard {
	return &Wizard{
		identity: identity,
		provider: provider,
		nav:      nav,
		clip:     clip,
		notify:   notify,
		baseURL:  baseURL,
	}
}

// Open activates a mode, discarding whatever the previous mode left behind.
// The draft date defaults to now so an instant meeting needs no input.
func (w *Wizard) Open(mode WizardMode) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mode = mode
	w.draft = Draft{StartsAt: time.Now()}
	w.handle = nil
	w.redirected = false
}

// Close discards the draft and any retained handle.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mode = ModeIdle
	w.draft = Draft{}
	w.handle = nil
	w.redirected = false
}

func (w *Wizard) Mode() WizardMode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

func (w *Wizard) SetDraft(d Draft) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = d
}

func (w *Wizard) Handle() *domain.Meeting {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handle
}

// Create makes (or fetches) a session for a freshly generated identifier.
// Preconditions abort with their own notices before any side effect; a
// provider failure leaves the wizard open and the handle untouched. When the
// description was left empty, the caller is taken straight to the room
// instead of the share-link step.
func (w *Wizard) Create(ctx context.Context) error {
	w.mu.Lock()
	mode := w.mode
	draft := w.draft
	w.mu.Unlock()

	if w.provider == nil {
		w.notify.Notify("Meeting service is unavailable")
		return ErrNoProvider
	}
	if user, loaded := identityOf(w.identity); !loaded || user == nil {
		w.notify.Notify("You need to be signed in to create a meeting")
		return ErrNoIdentity
	}

	startsAt := draft.StartsAt
	if startsAt.IsZero() {
		if mode == ModeScheduling {
			w.notify.Notify("Please select a date and time")
			return ErrDateRequired
		}
		startsAt = time.Now()
	}

	description := draft.Description
	if description == "" {
		description = defaultDescription
	}

	id := domain.MeetingID(uuid.NewString())
	handle, err := w.provider.GetOrCreateSession(ctx, id, core.SessionOpts{
		StartsAt:    startsAt,
		Description: description,
		Custom:      map[string]string{"description": description},
	})
	if err != nil {
		w.notify.Notify("Failed to create meeting")
		log.Error().Err(err).Str("module", "app.wizard").Str("meeting", string(id)).Msg("create session failed")
		return fmt.Errorf("create session: %w", err)
	}

	instant := draft.Description == ""
	w.mu.Lock()
	w.handle = handle
	w.redirected = instant
	w.mu.Unlock()

	log.Info().Str("module", "app.wizard").Str("meeting", string(handle.ID)).Str("mode", mode.String()).Msg("meeting created")
	if instant {
		w.nav.Navigate("/meeting&" + string(handle.ID))
	}
	w.notify.Notify("Meeting created")
	return nil
}

// Link derives the shareable link. Empty until a session exists.
func (w *Wizard) Link() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.handle == nil {
		return ""
	}
	return w.baseURL + "/meeting&" + string(w.handle.ID)
}

// ShareVisible reports whether the share-link step should be shown. The
// pure instant path redirects instead, so it never shows the step even
// though the handle is retained.
func (w *Wizard) ShareVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handle != nil && !w.redirected
}

// CopyLink writes the shareable link to the clipboard. No session state is
// touched.
func (w *Wizard) CopyLink() error {
	link := w.Link()
	if link == "" {
		return ErrNoSession
	}
	if err := w.clip.WriteText(link); err != nil {
		w.notify.Notify("Failed to copy the link")
		return fmt.Errorf("clipboard write: %w", err)
	}
	w.notify.Notify("Link copied")
	return nil
}

// JoinByLink navigates to whatever the user entered. The link shape is
// deliberately not validated; any string goes.
func (w *Wizard) JoinByLink() {
	w.mu.Lock()
	link := w.draft.Link
	w.mu.Unlock()
	log.Info().Str("module", "app.wizard").Str("link", link).Msg("join by link")
	w.nav.Navigate(link)
}

// OpenRecordings navigates to the recordings view.
func (w *Wizard) OpenRecordings() {
	w.nav.Navigate("/recordings")
}

func identityOf(p core.IdentityProvider) (*domain.User, bool) {
	if p == nil {
		return nil, false
	}
	return p.Identity()
}
