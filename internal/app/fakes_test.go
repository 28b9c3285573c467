package app

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// fakeProvider counts calls and can block or fail on demand.
type fakeProvider struct {
	mu         sync.Mutex
	getCalls   int
	joinCalls  int
	leaveCalls int
	endCalls   int
	err        error
	status     core.ConnStatus
	release    chan struct{} // when set, GetOrCreateSession blocks until closed
	lastID     domain.MeetingID
	lastOpts   core.SessionOpts
}

func (p *fakeProvider) GetOrCreateSession(ctx context.Context, id domain.MeetingID, opts core.SessionOpts) (*domain.Meeting, error) {
	p.mu.Lock()
	p.getCalls++
	p.lastID = id
	p.lastOpts = opts
	release := p.release
	err := p.err
	p.mu.Unlock()
	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	return &domain.Meeting{
		ID:          id,
		CreatedAt:   time.Now(),
		StartsAt:    opts.StartsAt,
		Description: opts.Description,
	}, nil
}

func (p *fakeProvider) Join(ctx context.Context, id domain.MeetingID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.joinCalls++
	if p.err != nil {
		return p.err
	}
	p.status = core.StatusJoined
	return nil
}

func (p *fakeProvider) Leave(ctx context.Context, id domain.MeetingID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leaveCalls++
	if p.err != nil {
		return p.err
	}
	p.status = core.StatusLeft
	return nil
}

func (p *fakeProvider) End(ctx context.Context, id domain.MeetingID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endCalls++
	if p.err != nil {
		return p.err
	}
	p.status = core.StatusLeft
	return nil
}

func (p *fakeProvider) ConnectionStatus(id domain.MeetingID) core.ConnStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *fakeProvider) setStatus(s core.ConnStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = s
}

func (p *fakeProvider) calls() (get, join, leave, end int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getCalls, p.joinCalls, p.leaveCalls, p.endCalls
}

// cancelAwareProvider fails fast once the caller's context is gone, the
// way a network-backed provider would.
type cancelAwareProvider struct {
	fakeProvider
}

func (p *cancelAwareProvider) GetOrCreateSession(ctx context.Context, id domain.MeetingID, opts core.SessionOpts) (*domain.Meeting, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(10 * time.Millisecond):
	}
	return p.fakeProvider.GetOrCreateSession(ctx, id, opts)
}

type fakeIdentity struct {
	mu     sync.Mutex
	user   *domain.User
	loaded bool
}

func (f *fakeIdentity) Identity() (*domain.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user, f.loaded
}

func (f *fakeIdentity) setLoaded(user *domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = user
	f.loaded = true
}

func loadedIdentity() *fakeIdentity {
	return &fakeIdentity{user: &domain.User{ID: "u1", Username: "tester"}, loaded: true}
}

type fakeNav struct {
	mu    sync.Mutex
	paths []string
	query url.Values
}

func (n *fakeNav) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *fakeNav) QueryParams() url.Values {
	if n.query == nil {
		return url.Values{}
	}
	return n.query
}

func (n *fakeNav) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type fakeClip struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (c *fakeClip) WriteText(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.texts = append(c.texts, s)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *fakeNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, message)
}

func (n *fakeNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

func (n *fakeNotifier) contains(msg string) bool {
	for _, m := range n.messages() {
		if m == msg {
			return true
		}
	}
	return false
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
