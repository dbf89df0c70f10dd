// Package session owns the leaflet editing state. All mutation flows through
// Reduce; remote calls happen before a transition is dispatched, never inside it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/valpere/leaftran/internal"
	"github.com/valpere/leaftran/internal/logging"
)

// Default language pair used by Translate.
const (
	DefaultSourceLang = "heb"
	DefaultTargetLang = "eng"
)

// ErrSectionNotFound is returned when an intent names a section the current
// leaflet does not have.
var ErrSectionNotFound = errors.New("section not found")

// Backend is the remote service the store talks to.
type Backend interface {
	FetchLeaflets(ctx context.Context) ([]internal.Leaflet, error)
	SaveLeaflet(ctx context.Context, leaflet internal.Leaflet) (internal.Leaflet, error)
	DeleteLeaflet(ctx context.Context, id string) error
	Translate(ctx context.Context, sourceLang, targetLang, text string) (string, error)
	GenerateDocument(ctx context.Context, content string) ([]byte, error)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report failed intents.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now for draft timestamps and export filenames.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the leaflet ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithLanguages sets the fixed language pair used by Translate.
func WithLanguages(source, target string) Option {
	return func(s *Store) {
		if source != "" {
			s.sourceLang = source
		}
		if target != "" {
			s.targetLang = target
		}
	}
}

// Store is the session state owner. It is safe for concurrent use, but
// overlapping intents are not coordinated: the last dispatched transition wins.
type Store struct {
	backend    Backend
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
	sourceLang string
	targetLang string

	initOnce sync.Once
	initErr  error

	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextSubID int
}

// New creates a store whose current leaflet is a fresh draft. It does not
// contact the backend; call Init for the initial load.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		logger:     logging.NewNop(),
		now:        time.Now,
		newID:      internal.NewLeafletID,
		sourceLang: DefaultSourceLang,
		targetLang: DefaultTargetLang,
		listeners:  make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = State{Current: s.draft()}
	return s
}

// Init loads the known leaflets once. Later calls return the first result.
func (s *Store) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.LoadLeaflets(ctx)
	})
	return s.initErr
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive a copy of the state after every dispatch.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Dispatch applies a to the state and notifies subscribers.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	snapshot := s.state.Clone()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot.Clone())
	}
}

func (s *Store) draft() internal.Leaflet {
	return internal.NewLeaflet(s.newID(), s.now())
}

// fail records an envelope for err and returns it.
func (s *Store) fail(message string, err error) *Envelope {
	env := NewEnvelope(message, err)
	s.logger.Error(message, "err", err, "code", env.Code)
	s.Dispatch(SetError{Error: env})
	return env
}

// LoadLeaflets replaces the known set with the backend's leaflets.
func (s *Store) LoadLeaflets(ctx context.Context) error {
	leaflets, err := s.backend.FetchLeaflets(ctx)
	if err != nil {
		return s.fail(MsgFetchFailed, err)
	}
	s.Dispatch(SetLeaflets{Leaflets: leaflets})
	return nil
}

// NewLeaflet replaces the current leaflet with a fresh draft.
func (s *Store) NewLeaflet() {
	s.Dispatch(NewCurrentLeaflet{Leaflet: s.draft()})
}

// SelectLeaflet makes a copy of leaflet the current leaflet.
func (s *Store) SelectLeaflet(leaflet internal.Leaflet) {
	s.Dispatch(SetCurrentLeaflet{Leaflet: leaflet})
}

// RenameLeaflet changes the current leaflet's name.
func (s *Store) RenameLeaflet(name string) {
	s.Dispatch(RenameCurrentLeaflet{Name: name})
}

// AddSection appends an empty section to the current leaflet.
func (s *Store) AddSection() {
	s.Dispatch(AddSection{})
}

// DeleteSection removes a section from the current leaflet.
func (s *Store) DeleteSection(sectionID int) {
	s.Dispatch(DeleteSection{SectionID: sectionID})
}

// ChangeInputText sets the source text of a section.
func (s *Store) ChangeInputText(sectionID int, text string) {
	s.Dispatch(ChangeInputText{SectionID: sectionID, Text: text})
}

// UpdateTranslation sets the translation of a section.
func (s *Store) UpdateTranslation(sectionID int, translation string) {
	s.Dispatch(UpdateTranslation{SectionID: sectionID, Translation: translation})
}

// ClearError drops the current envelope.
func (s *Store) ClearError() {
	s.Dispatch(ClearError{})
}

// Translate translates text with the store's language pair. It does not touch
// any section. On failure it returns TranslationFailedText together with the
// recorded envelope.
func (s *Store) Translate(ctx context.Context, text string) (string, error) {
	translated, err := s.backend.Translate(ctx, s.sourceLang, s.targetLang, text)
	if err != nil {
		return TranslationFailedText, s.fail(MsgTranslateFailed, err)
	}
	return translated, nil
}

// TranslateSection translates the input text of a section and stores the
// result as its translation. On failure the section is left as it was.
func (s *Store) TranslateSection(ctx context.Context, sectionID int) error {
	current := s.State().Current
	idx := current.SectionIndex(sectionID)
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrSectionNotFound, sectionID)
	}

	translated, err := s.Translate(ctx, current.Sections[idx].InputText)
	if err != nil {
		return err
	}
	s.UpdateTranslation(sectionID, translated)
	return nil
}

// SaveLeaflet persists the current leaflet and merges the stored form into the
// known set.
func (s *Store) SaveLeaflet(ctx context.Context) (internal.Leaflet, error) {
	current := s.State().Current

	saved, err := s.backend.SaveLeaflet(ctx, current)
	if err != nil {
		return internal.Leaflet{}, s.fail(MsgSaveFailed, err)
	}
	s.Dispatch(StoreLeaflet{Leaflet: saved})
	s.logger.Info("leaflet saved", "id", saved.ID, "name", saved.Name)
	return saved, nil
}

// DeleteLeaflet removes a leaflet remotely, drops it from the known set and
// starts a new draft.
func (s *Store) DeleteLeaflet(ctx context.Context, id string) error {
	if err := s.backend.DeleteLeaflet(ctx, id); err != nil {
		return s.fail(MsgDeleteFailed, err)
	}
	s.Dispatch(RemoveLeaflet{ID: id})
	s.NewLeaflet()
	s.logger.Info("leaflet deleted", "id", id)
	return nil
}

// DownloadDocument compiles the current leaflet's translations, asks the
// backend for a document and hands it to saver. It returns the filename used.
func (s *Store) DownloadDocument(ctx context.Context, saver FileSaver) (string, error) {
	current := s.State().Current

	data, err := s.backend.GenerateDocument(ctx, CompileContent(current))
	if err != nil {
		return "", s.fail(MsgDownloadFailed, err)
	}

	filename := DocumentFilename(current.Name, s.now())
	if err := saver.SaveFile(ctx, filename, data); err != nil {
		return "", s.fail(MsgDownloadFailed, err)
	}
	s.logger.Info("document downloaded", "file", filename, "bytes", len(data))
	return filename, nil
}
