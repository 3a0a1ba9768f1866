package history

import (
	"slices"
	"testing"
	"time"

	"nestdo/internal/model"
	"nestdo/internal/store"
)

func TestSnapshotUndo_RestoresInPlace(t *testing.T) {
	doc := store.NewDocument()
	a := doc.Create("a")
	m := New(10)

	m.Snapshot(doc, "add")
	b := doc.Create("b")
	doc.Selected = b

	label, ok := m.Undo(doc)
	if !ok || label != "add" {
		t.Fatalf("undo: %q %v", label, ok)
	}
	if doc.Has(b) || !doc.Has(a) || doc.NextID != 2 {
		t.Fatalf("not restored: len=%d next=%d", doc.Len(), doc.NextID)
	}
	if doc.Selected != model.NoTask {
		t.Fatalf("selection of a missing task must fall back to the snapshot's; got %d", doc.Selected)
	}
	if _, ok := m.Undo(doc); ok {
		t.Fatalf("expected empty stack")
	}
}

func TestUndo_KeepsSelectionThatStillExists(t *testing.T) {
	doc := store.NewDocument()
	a := doc.Create("a")
	b := doc.Create("b")
	doc.Selected = a
	m := New(10)

	m.Snapshot(doc, "edit")
	doc.Selected = b
	m.Undo(doc)
	if doc.Selected != b {
		t.Fatalf("expected selection kept on b; got %d", doc.Selected)
	}
}

func TestSnapshot_IsIsolatedFromLaterChanges(t *testing.T) {
	doc := store.NewDocument()
	a := doc.Create("a")
	m := New(10)
	m.Snapshot(doc, "edit")
	tk, _ := doc.Get(a)
	tk.Text = "changed"

	m.Undo(doc)
	if tk, _ := doc.Get(a); tk.Text != "a" {
		t.Fatalf("snapshot shared memory: %q", tk.Text)
	}
}

func TestSnapshot_EvictsOldest(t *testing.T) {
	doc := store.NewDocument()
	m := New(3)
	for _, l := range []string{"one", "two", "three", "four", "five"} {
		m.Snapshot(doc, l)
		doc.Create(l)
	}
	if m.Len() != 3 {
		t.Fatalf("len: %d", m.Len())
	}
	if got := m.Labels(); !slices.Equal(got, []string{"five", "four", "three"}) {
		t.Fatalf("labels: %v", got)
	}
}

func TestNew_DefaultsAndClock(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m := New(0, WithClock(func() time.Time { return at }))
	if m.Limit() != DefaultLimit {
		t.Fatalf("limit: %d", m.Limit())
	}
	doc := store.NewDocument()
	doc.Selected = model.NoTask
	m.Snapshot(doc, "x")
	e, ok := m.Peek()
	if !ok || !e.At.Equal(at) || e.Label != "x" {
		t.Fatalf("peek: %+v %v", e, ok)
	}
	m.Clear()
	if m.Len() != 0 {
		t.Fatalf("clear")
	}
}
