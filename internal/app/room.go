package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// Control names an action offered on the live surface.
type Control string

const (
	ControlLayout       Control = "layout"
	ControlStats        Control = "stats"
	ControlParticipants Control = "participants"
	ControlEnd          Control = "end"
)

var ErrPersonalRoom = errors.New("personal room cannot be ended by participants")

// Room owns the in-room UI state: the active layout and the participants
// panel. Both are transient, independent of each other, and never rendered
// before the provider reports the connection as joined.
type Room struct {
	provider core.SessionProvider
	nav      core.Navigator
	notify   core.Notifier
	id       domain.MeetingID
	personal bool

	mu               sync.Mutex
	layout           core.Layout
	showParticipants bool
}

func NewRoom(provider core.SessionProvider, nav core.Navigator, notify core.Notifier, id domain.MeetingID) *Room {
	personal := nav.QueryParams().Get("personal") != ""
	return &Room{
		provider: provider,
		nav:      nav,
		notify:   notify,
		id:       id,
		personal: personal,
	}
}

// Ready reports whether the live surface may render. Callers re-evaluate on
// every status change; until joined, a loading placeholder is all they get.
func (r *Room) Ready() bool {
	return r.provider.ConnectionStatus(r.id) == core.StatusJoined
}

func (r *Room) SetLayout(l core.Layout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.layout == l {
		return
	}
	r.layout = l
	log.Info().Str("module", "app.room").Str("meeting", string(r.id)).Str("layout", l.String()).Msg("layout changed")
}

func (r *Room) Layout() core.Layout {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.layout
}

// ToggleParticipants flips the panel and returns the new visibility.
func (r *Room) ToggleParticipants() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.showParticipants = !r.showParticipants
	return r.showParticipants
}

func (r *Room) ParticipantsVisible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.showParticipants
}

func (r *Room) PersonalRoom() bool { return r.personal }

// Controls lists the actions offered on the surface. End-for-everyone is
// withheld in a personal room; only its originating caller may end it, and
// this is the enforcement point at the UI layer.
func (r *Room) Controls() []Control {
	controls := []Control{ControlLayout, ControlStats, ControlParticipants}
	if !r.personal {
		controls = append(controls, ControlEnd)
	}
	return controls
}

// Leave leaves the call and then navigates home. The navigation is a
// continuation of the leave call, so an in-flight leave is never orphaned
// by an early redirect.
func (r *Room) Leave(ctx context.Context) error {
	if err := r.provider.Leave(ctx, r.id); err != nil {
		r.notify.Notify("Failed to leave the meeting")
		log.Error().Err(err).Str("module", "app.room").Str("meeting", string(r.id)).Msg("leave failed")
		return fmt.Errorf("leave call: %w", err)
	}
	log.Info().Str("module", "app.room").Str("meeting", string(r.id)).Msg("left meeting")
	r.nav.Navigate("/")
	return nil
}

// End terminates the call for everyone, then navigates home.
// Authorization proper stays with the provider; this layer only refuses to
// offer the action in a personal-room context.
func (r *Room) End(ctx context.Context) error {
	if r.personal {
		return ErrPersonalRoom
	}
	if err := r.provider.End(ctx, r.id); err != nil {
		r.notify.Notify("Failed to end the meeting")
		log.Error().Err(err).Str("module", "app.room").Str("meeting", string(r.id)).Msg("end failed")
		return fmt.Errorf("end call: %w", err)
	}
	log.Info().Str("module", "app.room").Str("meeting", string(r.id)).Msg("ended meeting for everyone")
	r.nav.Navigate("/")
	return nil
}

// RoomState is a read-only snapshot for transports.
type RoomState struct {
	Status           core.ConnStatus `json:"status"`
	Ready            bool            `json:"ready"`
	Layout           core.Layout     `json:"layout"`
	View             core.View       `json:"view"`
	ShowParticipants bool            `json:"show_participants"`
	Controls         []Control       `json:"controls"`
}

func (r *Room) State() RoomState {
	status := r.provider.ConnectionStatus(r.id)
	if status != core.StatusJoined {
		return RoomState{Status: status}
	}
	r.mu.Lock()
	layout := r.layout
	show := r.showParticipants
	r.mu.Unlock()
	return RoomState{
		Status:           status,
		Ready:            true,
		Layout:           layout,
		View:             layout.View(),
		ShowParticipants: show,
		Controls:         r.Controls(),
	}
}
