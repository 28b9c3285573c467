package core

import (
	"errors"
	"fmt"
)

// Layout is the closed set of participant arrangements. The zero value is
// the default, so a fresh room renders speaker-left without any setup.
type Layout int

const (
	LayoutSpeakerLeft Layout = iota
	LayoutGrid
	LayoutSpeakerRight
)

var ErrUnknownLayout = errors.New("unknown layout")

func (l Layout) String() string {
	switch l {
	case LayoutGrid:
		return "grid"
	case LayoutSpeakerLeft:
		return "speaker-left"
	case LayoutSpeakerRight:
		return "speaker-right"
	default:
		return "unknown"
	}
}

// ParseLayout is the only way a label enters the enum; anything outside the
// closed set is rejected here so downstream code never checks at runtime.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "grid":
		return LayoutGrid, nil
	case "speaker-left":
		return LayoutSpeakerLeft, nil
	case "speaker-right":
		return LayoutSpeakerRight, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownLayout, s)
	}
}

func (l Layout) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Layout) UnmarshalText(b []byte) error {
	parsed, err := ParseLayout(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// View describes the arrangement the client should render for a layout.
type View struct {
	Kind            string `json:"kind"`
	ParticipantsBar string `json:"participants_bar,omitempty"`
}

// View maps each layout to its view constructor. Exhaustive over the enum:
// adding a layout without extending this switch falls through to the
// speaker view, the same fallback the live surface has always had.
// Note the bar sits opposite the speaker, so speaker-left puts it right.
func (l Layout) View() View {
	switch l {
	case LayoutGrid:
		return View{Kind: "paginated-grid"}
	case LayoutSpeakerLeft:
		return View{Kind: "speaker", ParticipantsBar: "right"}
	default:
		return View{Kind: "speaker", ParticipantsBar: "left"}
	}
}
