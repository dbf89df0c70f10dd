package internal

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// DefaultLeafletName is the placeholder name given to fresh drafts.
const DefaultLeafletName = "Untitled Leaflet"

// Section is one input/translation pair within a Leaflet.
type Section struct {
	ID          int    `json:"id"`
	InputText   string `json:"inputText"`
	Translation string `json:"translation"`
}

// Leaflet is a user-authored multi-section document. Section order is display
// order.
type Leaflet struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Date     time.Time `json:"date"`
	Sections []Section `json:"sections"`
	// NextSectionID is the next identifier handed out by AppendSection. It only
	// grows, so identifiers stay unique across any add/delete sequence.
	NextSectionID int `json:"nextSectionId"`
}

// NewLeafletID returns an opaque, time-ordered leaflet identifier.
func NewLeafletID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewLeaflet builds a draft with the placeholder name and one empty section.
func NewLeaflet(id string, created time.Time) Leaflet {
	return Leaflet{
		ID:            id,
		Name:          DefaultLeafletName,
		Date:          created.UTC().Truncate(time.Millisecond),
		Sections:      []Section{{ID: 0}},
		NextSectionID: 1,
	}
}

// Clone returns a deep copy of l.
func (l Leaflet) Clone() Leaflet {
	l.Sections = slices.Clone(l.Sections)
	return l
}

// nextID returns the identifier for a new section. Leaflets stored before the
// counter existed carry NextSectionID == 0, so the counter is lifted above
// every identifier already in use.
func (l Leaflet) nextID() int {
	next := l.NextSectionID
	for _, s := range l.Sections {
		if s.ID >= next {
			next = s.ID + 1
		}
	}
	return next
}

// AppendSection returns a copy of l with one empty section appended.
func (l Leaflet) AppendSection() Leaflet {
	id := l.nextID()
	out := l.Clone()
	out.Sections = append(out.Sections, Section{ID: id})
	out.NextSectionID = id + 1
	return out
}

// RemoveSection returns a copy of l without the section identified by id.
// A leaflet with a single section is reset to one empty section with ID 0
// whatever id names. Otherwise unknown identifiers leave l unchanged.
func (l Leaflet) RemoveSection(id int) Leaflet {
	if len(l.Sections) <= 1 {
		out := l.Clone()
		out.Sections = []Section{{ID: 0}}
		out.NextSectionID = 1
		return out
	}
	idx := l.SectionIndex(id)
	if idx < 0 {
		return l
	}
	out := l.Clone()
	out.Sections = slices.Delete(out.Sections, idx, idx+1)
	return out
}

// UpdateSection returns a copy of l where the section identified by id has been
// passed through fn. Other sections are copied unchanged.
func (l Leaflet) UpdateSection(id int, fn func(Section) Section) Leaflet {
	out := l.Clone()
	for i, s := range out.Sections {
		if s.ID == id {
			out.Sections[i] = fn(s)
		}
	}
	return out
}

// SectionIndex returns the position of the section with the given id, or -1.
func (l Leaflet) SectionIndex(id int) int {
	return slices.IndexFunc(l.Sections, func(s Section) bool { return s.ID == id })
}

// SortByDateDesc orders leaflets newest first. Equal dates keep their order.
func SortByDateDesc(leaflets []Leaflet) {
	slices.SortStableFunc(leaflets, func(a, b Leaflet) int {
		return b.Date.Compare(a.Date)
	})
}
