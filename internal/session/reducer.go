package session

import (
	"slices"

	"github.com/valpere/leaftran/internal"
)

// Action is a state transition request handled by Reduce.
type Action interface {
	action()
}

// SetLeaflets replaces the known set. The list is re-sorted newest first.
type SetLeaflets struct{ Leaflets []internal.Leaflet }

// StoreLeaflet inserts a saved leaflet into the known set, replacing any entry
// with the same ID.
type StoreLeaflet struct{ Leaflet internal.Leaflet }

// RemoveLeaflet drops a leaflet from the known set.
type RemoveLeaflet struct{ ID string }

// NewCurrentLeaflet makes Leaflet the current draft. The store builds the
// draft so that Reduce stays free of clocks and ID generators.
type NewCurrentLeaflet struct{ Leaflet internal.Leaflet }

// SetCurrentLeaflet makes a copy of Leaflet the current leaflet.
type SetCurrentLeaflet struct{ Leaflet internal.Leaflet }

// RenameCurrentLeaflet updates only the name of the current leaflet.
type RenameCurrentLeaflet struct{ Name string }

// AddSection appends one empty section to the current leaflet.
type AddSection struct{}

// DeleteSection removes a section from the current leaflet.
type DeleteSection struct{ SectionID int }

// ChangeInputText updates the input text of one section.
type ChangeInputText struct {
	SectionID int
	Text      string
}

// UpdateTranslation updates the translation of one section.
type UpdateTranslation struct {
	SectionID   int
	Translation string
}

// SetError records an envelope.
type SetError struct{ Error *Envelope }

// ClearError drops the current envelope.
type ClearError struct{}

func (SetLeaflets) action()          {}
func (StoreLeaflet) action()         {}
func (RemoveLeaflet) action()        {}
func (NewCurrentLeaflet) action()    {}
func (SetCurrentLeaflet) action()    {}
func (RenameCurrentLeaflet) action() {}
func (AddSection) action()           {}
func (DeleteSection) action()        {}
func (ChangeInputText) action()      {}
func (UpdateTranslation) action()    {}
func (SetError) action()             {}
func (ClearError) action()           {}

// Reduce computes the state that follows a. It never mutates its input: any
// slice touched by a is copied first. Unknown actions return state unchanged.
func Reduce(state State, a Action) State {
	switch a := a.(type) {
	case SetLeaflets:
		state.Leaflets = sortedCopy(a.Leaflets)

	case StoreLeaflet:
		list := slices.Clone(state.Leaflets)
		idx := slices.IndexFunc(list, func(l internal.Leaflet) bool { return l.ID == a.Leaflet.ID })
		if idx >= 0 {
			list[idx] = a.Leaflet.Clone()
		} else {
			list = append(list, a.Leaflet.Clone())
		}
		state.Leaflets = sortedCopy(list)

	case RemoveLeaflet:
		state.Leaflets = slices.DeleteFunc(slices.Clone(state.Leaflets), func(l internal.Leaflet) bool {
			return l.ID == a.ID
		})

	case NewCurrentLeaflet:
		state.Current = a.Leaflet.Clone()

	case SetCurrentLeaflet:
		state.Current = a.Leaflet.Clone()

	case RenameCurrentLeaflet:
		state.Current.Name = a.Name

	case AddSection:
		state.Current = state.Current.AppendSection()

	case DeleteSection:
		state.Current = state.Current.RemoveSection(a.SectionID)

	case ChangeInputText:
		state.Current = state.Current.UpdateSection(a.SectionID, func(s internal.Section) internal.Section {
			s.InputText = a.Text
			return s
		})

	case UpdateTranslation:
		state.Current = state.Current.UpdateSection(a.SectionID, func(s internal.Section) internal.Section {
			s.Translation = a.Translation
			return s
		})

	case SetError:
		state.Error = a.Error

	case ClearError:
		state.Error = nil
	}
	return state
}

func sortedCopy(leaflets []internal.Leaflet) []internal.Leaflet {
	out := make([]internal.Leaflet, len(leaflets))
	for i, l := range leaflets {
		out[i] = l.Clone()
	}
	internal.SortByDateDesc(out)
	return out
}
