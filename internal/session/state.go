package session

import (
	"slices"

	"github.com/valpere/leaftran/internal"
)

// State is the session's single source of truth.
type State struct {
	// Leaflets is the known set, unique by ID, newest first.
	Leaflets []internal.Leaflet `json:"leaflets"`
	// Current is the leaflet being edited. It may be an unsaved draft.
	Current internal.Leaflet `json:"currentLeaflet"`
	Error   *Envelope        `json:"error,omitempty"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		Current: s.Current.Clone(),
		Error:   s.Error.clone(),
	}
	if s.Leaflets != nil {
		out.Leaflets = make([]internal.Leaflet, len(s.Leaflets))
		for i, l := range s.Leaflets {
			out.Leaflets[i] = l.Clone()
		}
	}
	return out
}

// Leaflet returns the known leaflet with the given id.
func (s State) Leaflet(id string) (internal.Leaflet, bool) {
	idx := slices.IndexFunc(s.Leaflets, func(l internal.Leaflet) bool { return l.ID == id })
	if idx < 0 {
		return internal.Leaflet{}, false
	}
	return s.Leaflets[idx].Clone(), true
}
