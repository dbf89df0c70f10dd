package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/valpere/leaftran/internal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_New(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	if _, err := New("/nonexistent/path/test.db"); err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_New_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l := internal.NewLeaflet("a", time.Now())
	if err := s.SaveLeaflet(context.Background(), l); err != nil {
		t.Fatalf("SaveLeaflet failed: %v", err)
	}
	s.Close()

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if _, err := s.GetLeaflet(context.Background(), "a"); err != nil {
		t.Errorf("leaflet lost after reopen: %v", err)
	}
}

func TestStore_SaveLeaflet_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	l := internal.NewLeaflet("leaflet-1", time.Date(2024, 6, 1, 10, 30, 45, 123456789, time.UTC))
	l.Name = "Clinic hours"
	l = l.AppendSection()
	l = l.UpdateSection(1, func(sec internal.Section) internal.Section {
		sec.InputText = "שעות פתיחה"
		sec.Translation = "<h1>Opening hours</h1>"
		return sec
	})

	if err := s.SaveLeaflet(ctx, l); err != nil {
		t.Fatalf("SaveLeaflet failed: %v", err)
	}

	got, err := s.GetLeaflet(ctx, "leaflet-1")
	if err != nil {
		t.Fatalf("GetLeaflet failed: %v", err)
	}
	if got.Name != "Clinic hours" {
		t.Errorf("Name = %q", got.Name)
	}
	if !got.Date.Equal(l.Date) {
		t.Errorf("Date = %v, want %v", got.Date, l.Date)
	}
	if got.NextSectionID != 2 {
		t.Errorf("NextSectionID = %d, want 2", got.NextSectionID)
	}
	if len(got.Sections) != 2 || got.Sections[1].Translation != "<h1>Opening hours</h1>" {
		t.Errorf("unexpected sections %+v", got.Sections)
	}
}

func TestStore_SaveLeaflet_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	l := internal.NewLeaflet("leaflet-1", time.Now())
	if err := s.SaveLeaflet(ctx, l); err != nil {
		t.Fatalf("SaveLeaflet failed: %v", err)
	}
	l.Name = "Renamed"
	if err := s.SaveLeaflet(ctx, l); err != nil {
		t.Fatalf("second SaveLeaflet failed: %v", err)
	}

	all, err := s.ListLeaflets(ctx)
	if err != nil {
		t.Fatalf("ListLeaflets failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 leaflet, got %d", len(all))
	}
	if all[0].Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", all[0].Name)
	}
}

func TestStore_SaveLeaflet_MissingID(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveLeaflet(context.Background(), internal.Leaflet{}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestStore_ListLeaflets_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if got, err := s.ListLeaflets(ctx); err != nil || got == nil || len(got) != 0 {
		t.Fatalf("empty list = %v, %v; want non-nil empty slice", got, err)
	}

	for _, l := range []internal.Leaflet{
		internal.NewLeaflet("jan", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		internal.NewLeaflet("jun", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		internal.NewLeaflet("mar", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
	} {
		if err := s.SaveLeaflet(ctx, l); err != nil {
			t.Fatalf("SaveLeaflet failed: %v", err)
		}
	}

	all, err := s.ListLeaflets(ctx)
	if err != nil {
		t.Fatalf("ListLeaflets failed: %v", err)
	}
	var ids []string
	for _, l := range all {
		ids = append(ids, l.ID)
	}
	want := []string{"jun", "mar", "jan"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}

func TestStore_DeleteLeaflet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveLeaflet(ctx, internal.NewLeaflet("a", time.Now())); err != nil {
		t.Fatalf("SaveLeaflet failed: %v", err)
	}
	if err := s.DeleteLeaflet(ctx, "a"); err != nil {
		t.Fatalf("DeleteLeaflet failed: %v", err)
	}
	if _, err := s.GetLeaflet(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLeaflet after delete: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteLeaflet(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestStore_GetCachedTranslation_Miss(t *testing.T) {
	s := newTestStore(t)

	text, found, err := s.GetCachedTranslation(context.Background(), "שלום", "he", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found || text != "" {
		t.Errorf("expected miss, got %q", text)
	}
}

func TestStore_GetCachedTranslation_Hit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "  שלום ", "he", "en", "Hello", "google"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	text, found, err := s.GetCachedTranslation(ctx, "שלום", "he", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found || text != "Hello" {
		t.Errorf("expected hit 'Hello', got %q (found=%v)", text, found)
	}

	entries, err := s.ListMemory(ctx)
	if err != nil {
		t.Fatalf("ListMemory failed: %v", err)
	}
	if len(entries) != 1 || entries[0].UsageCount != 2 {
		t.Errorf("expected one entry used twice, got %+v", entries)
	}
	if entries[0].SourceText != "שלום" {
		t.Errorf("expected normalized source text, got %q", entries[0].SourceText)
	}
}

func TestStore_SaveToMemory_Replace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "שלום", "he", "en", "Hi", "mymemory")
	s.SaveToMemory(ctx, "שלום", "he", "en", "Hello", "google")

	text, _, _ := s.GetCachedTranslation(ctx, "שלום", "he", "en")
	if text != "Hello" {
		t.Errorf("expected replaced text, got %q", text)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 1 {
		t.Errorf("expected 1 entry, got %d", stats.TotalEntries)
	}
}

func TestStore_MultipleLanguagePairs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "שלום", "he", "en", "Hello", "google")
	s.SaveToMemory(ctx, "שלום", "he", "uk", "Привіт", "google")

	en, _, _ := s.GetCachedTranslation(ctx, "שלום", "he", "en")
	uk, _, _ := s.GetCachedTranslation(ctx, "שלום", "he", "uk")
	if en != "Hello" || uk != "Привіт" {
		t.Errorf("language pairs mixed up: en=%q uk=%q", en, uk)
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "a", "he", "en", "A", "google")
	s.SaveToMemory(ctx, "b", "he", "en", "B", "google")
	s.GetCachedTranslation(ctx, "a", "he", "en")

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 2 {
		t.Errorf("TotalEntries = %d, want 2", stats.TotalEntries)
	}
	if stats.TotalUsage != 3 {
		t.Errorf("TotalUsage = %d, want 3", stats.TotalUsage)
	}
}

func TestStore_DeleteMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "a", "he", "en", "A", "google")
	id := MemoryKey("a", "he", "en")

	if err := s.DeleteMemory(ctx, id); err != nil {
		t.Fatalf("DeleteMemory failed: %v", err)
	}
	if _, found, _ := s.GetCachedTranslation(ctx, "a", "he", "en"); found {
		t.Error("expected entry to be gone")
	}
	if err := s.DeleteMemory(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ClearMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "a", "he", "en", "A", "google")
	s.SaveToMemory(ctx, "b", "he", "en", "B", "google")

	n, err := s.ClearMemory(ctx)
	if err != nil {
		t.Fatalf("ClearMemory failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	if entries, _ := s.ListMemory(ctx); len(entries) != 0 {
		t.Errorf("expected empty memory, got %d entries", len(entries))
	}
}

func TestMemoryKey(t *testing.T) {
	// Shin with shin dot and qamats, combining marks in both orders.
	composedA := "\u05e9\u05c1\u05b8"
	composedB := "\u05e9\u05b8\u05c1"

	tests := []struct {
		name string
		a, b [3]string
		same bool
	}{
		{"whitespace", [3]string{" hello ", "he", "en"}, [3]string{"hello", "he", "en"}, true},
		{"combining order", [3]string{composedA, "he", "en"}, [3]string{composedB, "he", "en"}, true},
		{"target differs", [3]string{"hello", "he", "en"}, [3]string{"hello", "he", "uk"}, false},
		{"text differs", [3]string{"hello", "he", "en"}, [3]string{"help", "he", "en"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := MemoryKey(tt.a[0], tt.a[1], tt.a[2])
			kb := MemoryKey(tt.b[0], tt.b[1], tt.b[2])
			if (ka == kb) != tt.same {
				t.Errorf("MemoryKey equality = %v, want %v (%s vs %s)", ka == kb, tt.same, ka, kb)
			}
			if len(ka) != 16 {
				t.Errorf("key %q should be 16 hex chars", ka)
			}
		})
	}
}

func TestStore_Glossary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddGlossaryTerm(ctx, "he", "en", "עלון", "leaflet")
	if err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}
	again, err := s.AddGlossaryTerm(ctx, "he", "en", "עלון", "flyer")
	if err != nil {
		t.Fatalf("AddGlossaryTerm update failed: %v", err)
	}
	if again != id {
		t.Errorf("update changed id: %s -> %s", id, again)
	}
	if _, err := s.AddGlossaryTerm(ctx, "he", "uk", "עלון", "листівка"); err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}

	terms, err := s.GetGlossaryTerms(ctx, "he", "en")
	if err != nil {
		t.Fatalf("GetGlossaryTerms failed: %v", err)
	}
	if len(terms) != 1 || terms["עלון"] != "flyer" {
		t.Errorf("unexpected terms %v", terms)
	}

	all, err := s.ListGlossaryTerms(ctx, "", "")
	if err != nil {
		t.Fatalf("ListGlossaryTerms failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 entries, got %d", len(all))
	}
	uk, _ := s.ListGlossaryTerms(ctx, "", "uk")
	if len(uk) != 1 || uk[0].TargetTerm != "листівка" {
		t.Errorf("unexpected filtered entries %+v", uk)
	}

	if err := s.DeleteGlossaryTerm(ctx, id); err != nil {
		t.Fatalf("DeleteGlossaryTerm failed: %v", err)
	}
	if err := s.DeleteGlossaryTerm(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_AddGlossaryTerm_Empty(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddGlossaryTerm(context.Background(), "he", "en", " ", "x"); err == nil {
		t.Error("expected error for empty source term")
	}
}
