package http

import (
	"net/url"
	"sync"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/domain"
)

// uiBridge implements core.UISurface for one mounted view. Navigation,
// notices and clipboard writes are buffered here and drained into the next
// HTTP response, where the client applies them.
type uiBridge struct {
	query url.Values

	mu        sync.Mutex
	notices   []string
	redirect  string
	clipboard string
}

func newUIBridge(query url.Values) *uiBridge {
	if query == nil {
		query = url.Values{}
	}
	return &uiBridge{query: query}
}

func (b *uiBridge) Navigate(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.redirect = path
}

func (b *uiBridge) QueryParams() url.Values { return b.query }

func (b *uiBridge) WriteText(s string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clipboard = s
	return nil
}

func (b *uiBridge) Notify(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, message)
}

// UIEffects is what a drained bridge hands back to the client.
type UIEffects struct {
	Notices   []string `json:"notices,omitempty"`
	Redirect  string   `json:"redirect,omitempty"`
	Clipboard string   `json:"clipboard,omitempty"`
}

func (b *uiBridge) drain() UIEffects {
	b.mu.Lock()
	defer b.mu.Unlock()
	effects := UIEffects{Notices: b.notices, Redirect: b.redirect, Clipboard: b.clipboard}
	b.notices = nil
	b.redirect = ""
	b.clipboard = ""
	return effects
}

// tokenIdentity resolves identity from the client-token registry. Over HTTP
// the token middleware runs before any handler, so identity is always
// loaded by the time the orchestrator asks.
type tokenIdentity struct {
	reg   *app.Registry
	token app.ClientToken
}

func (t *tokenIdentity) Identity() (*domain.User, bool) {
	return t.reg.GetOrCreateUser(t.token), true
}
