package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testSetup(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "catalog"), 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleEntry(paperID, title string) Entry {
	return Entry{
		PaperID:    paperID,
		Title:      title,
		URL:        "http://arxiv.org/abs/" + paperID,
		Language:   "English",
		Mode:       "detailed",
		Keynote:    "### Problem\nQuadratic attention cost.",
		OutputPath: "/reports/2026/week_35/" + paperID + ".pdf",
	}
}

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	store := testSetup(t)

	got, err := store.Record(context.Background(), sampleEntry("2301.07041", "Efficient Attention"))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if got.ID == "" {
		t.Error("Record() left ID empty")
	}
	if got.CreatedAt.IsZero() {
		t.Error("Record() left CreatedAt zero")
	}

	entries, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].ID != got.ID {
		t.Errorf("listed ID = %q, want %q", entries[0].ID, got.ID)
	}
	if entries[0].Title != "Efficient Attention" {
		t.Errorf("listed title = %q", entries[0].Title)
	}
	if entries[0].Keynote != "### Problem\nQuadratic attention cost." {
		t.Errorf("listed keynote = %q", entries[0].Keynote)
	}
}

func TestRecordKeepsProvidedID(t *testing.T) {
	store := testSetup(t)

	e := sampleEntry("2301.07041", "Efficient Attention")
	e.ID = "fixed-id"
	got, err := store.Record(context.Background(), e)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if got.ID != "fixed-id" {
		t.Errorf("ID = %q, want fixed-id", got.ID)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := testSetup(t)
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	for i, title := range []string{"First", "Second", "Third"} {
		e := sampleEntry("2301.0000"+string(rune('1'+i)), title)
		e.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if _, err := store.Record(context.Background(), e); err != nil {
			t.Fatalf("Record(%q) error = %v", title, err)
		}
	}

	entries, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, want := range []string{"Third", "Second", "First"} {
		if entries[i].Title != want {
			t.Errorf("entries[%d].Title = %q, want %q", i, entries[i].Title, want)
		}
	}
}

func TestListLimit(t *testing.T) {
	store := testSetup(t)

	for _, id := range []string{"2301.00001", "2301.00002", "2301.00003"} {
		if _, err := store.Record(context.Background(), sampleEntry(id, "Paper "+id)); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := store.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestSearchMatchesTitle(t *testing.T) {
	store := testSetup(t)

	if _, err := store.Record(context.Background(),
		sampleEntry("2301.07041", "Efficient Attention Transformers")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Record(context.Background(),
		sampleEntry("2302.00001", "Graph Neural Networks")); err != nil {
		t.Fatal(err)
	}

	entries, err := store.Search(context.Background(), "attention", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].PaperID != "2301.07041" {
		t.Errorf("matched paper = %q", entries[0].PaperID)
	}
}

func TestSearchMatchesKeynote(t *testing.T) {
	store := testSetup(t)

	e := sampleEntry("2303.00002", "A Compact Survey")
	e.Keynote = "### Solution\nKnowledge distillation into a small model."
	if _, err := store.Record(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Record(context.Background(),
		sampleEntry("2302.00001", "Graph Neural Networks")); err != nil {
		t.Fatal(err)
	}

	entries, err := store.Search(context.Background(), "distillation", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Title != "A Compact Survey" {
		t.Errorf("matched title = %q", entries[0].Title)
	}
}

func TestSearchNoMatch(t *testing.T) {
	store := testSetup(t)

	if _, err := store.Record(context.Background(),
		sampleEntry("2301.07041", "Efficient Attention")); err != nil {
		t.Fatal(err)
	}

	entries, err := store.Search(context.Background(), "cosmology", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "catalog")
	store, err := NewStore(dir, 0)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Join(dir, dbFile)); err != nil {
		t.Errorf("database file missing: %v", err)
	}
}

func TestReopenExistingStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "catalog")

	first, err := NewStore(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := first.Record(context.Background(), sampleEntry("2301.07041", "Persisted Paper")); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := NewStore(dir, 0)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer second.Close()

	entries, err := second.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Persisted Paper" {
		t.Errorf("entries after reopen = %+v", entries)
	}
}
