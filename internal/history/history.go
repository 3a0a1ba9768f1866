// Package history keeps a bounded, linear stack of document snapshots for
// undo. There is no redo: undoing discards the newer state.
package history

import (
	"time"

	"nestdo/internal/model"
	"nestdo/internal/store"
)

const DefaultLimit = 100

// Entry is a deep copy of the document taken right before a mutation.
type Entry struct {
	Label string
	At    time.Time

	doc *store.Document
}

// Selected returns the selection stored with the snapshot.
func (e Entry) Selected() model.TaskID {
	if e.doc == nil {
		return model.NoTask
	}
	return e.doc.Selected
}

type Manager struct {
	limit   int
	entries []Entry
	now     func() time.Time
}

type Option func(*Manager)

// WithClock overrides the timestamp source (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New returns a manager holding at most limit entries; limit <= 0 uses
// DefaultLimit.
func New(limit int, opts ...Option) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	m := &Manager{limit: limit, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) Limit() int { return m.limit }
func (m *Manager) Len() int   { return len(m.entries) }

// Snapshot pushes a deep copy of doc. The oldest entry is evicted once the
// stack is full.
func (m *Manager) Snapshot(doc *store.Document, label string) {
	if doc == nil {
		return
	}
	m.entries = append(m.entries, Entry{Label: label, At: m.now(), doc: doc.Clone()})
	if over := len(m.entries) - m.limit; over > 0 {
		clear(m.entries[:over])
		m.entries = m.entries[over:]
	}
}

// Undo pops the newest entry and restores it into doc in place. If the
// current selection still exists in the restored state it is kept; otherwise
// the snapshot's own selection wins. ok is false when there is nothing to
// undo, in which case doc is untouched.
func (m *Manager) Undo(doc *store.Document) (label string, ok bool) {
	if doc == nil || len(m.entries) == 0 {
		return "", false
	}
	last := len(m.entries) - 1
	e := m.entries[last]
	m.entries[last] = Entry{}
	m.entries = m.entries[:last]

	restored := e.doc
	if cur := doc.Selected; cur.Valid() && restored.Has(cur) {
		restored.Selected = cur
	}
	doc.Restore(restored)
	return e.Label, true
}

// Peek returns the newest entry without removing it.
func (m *Manager) Peek() (Entry, bool) {
	if len(m.entries) == 0 {
		return Entry{}, false
	}
	return m.entries[len(m.entries)-1], true
}

// Labels returns entry labels, newest first.
func (m *Manager) Labels() []string {
	out := make([]string, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0; i-- {
		out = append(out, m.entries[i].Label)
	}
	return out
}

func (m *Manager) Clear() {
	clear(m.entries)
	m.entries = nil
}
