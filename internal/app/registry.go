package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// ClientToken identifies one browser/client surface across requests.
type ClientToken string

type pageKey struct {
	Token   ClientToken
	Meeting domain.MeetingID
}

// PageEntry pairs a mounted page with the UI capabilities its adapter owns.
type PageEntry struct {
	Page *Page
	UI   core.UISurface
}

// WizardEntry pairs a dashboard wizard with its UI capabilities.
type WizardEntry struct {
	Wizard *Wizard
	UI     core.UISurface
}

// Registry tracks users, mounted pages and dashboard wizards per client
// token. All mutation goes through one lock; entries are bound on mount and
// unbound on unmount.
type Registry struct {
	mu      sync.RWMutex
	users   map[ClientToken]*domain.User
	pages   map[pageKey]*PageEntry
	wizards map[ClientToken]*WizardEntry
}

func NewRegistry() *Registry {
	return &Registry{
		users:   make(map[ClientToken]*domain.User),
		pages:   make(map[pageKey]*PageEntry),
		wizards: make(map[ClientToken]*WizardEntry),
	}
}

func (r *Registry) GetOrCreateUser(token ClientToken) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[token]; ok {
		return u
	}
	u := &domain.User{ID: domain.UserID(token), Username: "guest"}
	r.users[token] = u
	log.Info().Str("module", "app.registry").Str("token", string(token)).Msg("created new user")
	return u
}

func (r *Registry) UpdateUsername(token ClientToken, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[token]
	if !ok {
		u = &domain.User{ID: domain.UserID(token)}
		r.users[token] = u
	}
	if err := u.SetUsername(name); err != nil {
		return err
	}
	log.Info().Str("module", "app.registry").Str("token", string(token)).Str("username", name).Msg("updated username")
	return nil
}

// BindPage mounts a page for (token, meeting). A remount replaces the old
// instance, which is closed so its pending lookups settle as stale.
func (r *Registry) BindPage(token ClientToken, meeting domain.MeetingID, entry *PageEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pageKey{Token: token, Meeting: meeting}
	if prev, ok := r.pages[key]; ok {
		prev.Page.Close()
	}
	r.pages[key] = entry
	log.Info().Str("module", "app.registry").Str("token", string(token)).Str("meeting", string(meeting)).Msg("bound page")
}

func (r *Registry) PageOf(token ClientToken, meeting domain.MeetingID) (*PageEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.pages[pageKey{Token: token, Meeting: meeting}]
	return entry, ok
}

// UnbindPage tears a mounted page down.
func (r *Registry) UnbindPage(token ClientToken, meeting domain.MeetingID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pageKey{Token: token, Meeting: meeting}
	if entry, ok := r.pages[key]; ok {
		entry.Page.Close()
		delete(r.pages, key)
		log.Info().Str("module", "app.registry").Str("token", string(token)).Str("meeting", string(meeting)).Msg("unbound page")
	}
}

// BindWizard registers the dashboard wizard for a token, replacing any
// previous one.
func (r *Registry) BindWizard(token ClientToken, entry *WizardEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wizards[token] = entry
	log.Info().Str("module", "app.registry").Str("token", string(token)).Msg("bound wizard")
}

func (r *Registry) WizardOf(token ClientToken) (*WizardEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.wizards[token]
	return entry, ok
}
