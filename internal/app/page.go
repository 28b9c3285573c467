package app

import (
	"context"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// PageDeps are the explicit context objects a mounted view is built from.
// Created once per mount, torn down on unmount; nothing here is ambient.
type PageDeps struct {
	Identity core.IdentityProvider
	Provider core.SessionProvider
	UI       core.UISurface
}

// Page is one mounted meeting view: lookup feeds the setup gate, which in
// turn decides whether the room controller is live. At most one session
// handle exists per page.
type Page struct {
	Lookup *Lookup
	Setup  *SetupStage
	Room   *Room
}

func NewPage(deps PageDeps, rawID string) *Page {
	lookup := NewLookup(deps.Provider, rawID)
	return &Page{
		Lookup: lookup,
		Setup:  NewSetupStage(deps.Identity, lookup),
		Room:   NewRoom(deps.Provider, deps.UI, deps.UI, lookup.ID()),
	}
}

// PageState is the composed snapshot handed to transports. Room is present
// only once the setup gate has been passed.
type PageState struct {
	Meeting domain.MeetingID `json:"meeting"`
	Stage   Stage            `json:"stage"`
	Room    *RoomState       `json:"room,omitempty"`
}

func (p *Page) State(ctx context.Context) PageState {
	stage := p.Setup.Current(ctx)
	state := PageState{Meeting: p.Lookup.ID(), Stage: stage}
	if stage == StageInRoom {
		rs := p.Room.State()
		state.Room = &rs
	}
	return state
}

// Close releases the page. Idempotent; a lookup still in flight settles
// harmlessly afterwards.
func (p *Page) Close() {
	p.Lookup.Close()
}
