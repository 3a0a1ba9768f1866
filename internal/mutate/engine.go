// Package mutate is the only writer of a document. Every mutation follows
// the same envelope: snapshot for undo, change the tree, invalidate the
// display list, mark the document dirty for saving.
package mutate

import (
	"io"
	"log/slog"

	"nestdo/internal/history"
	"nestdo/internal/model"
	"nestdo/internal/projection"
	"nestdo/internal/store"
)

type Engine struct {
	doc     *store.Document
	history *history.Manager
	view    *projection.Cache
	log     *slog.Logger
	dirty   bool
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithHistory(h *history.Manager) Option {
	return func(e *Engine) {
		if h != nil {
			e.history = h
		}
	}
}

func New(doc *store.Document, settings store.Settings, opts ...Option) *Engine {
	if doc == nil {
		doc = store.NewDocument()
	}
	e := &Engine{
		doc:     doc,
		history: history.New(history.DefaultLimit),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	e.view = projection.New(doc, settings)
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Document() *store.Document { return e.doc }
func (e *Engine) View() *projection.Cache   { return e.view }
func (e *Engine) History() *history.Manager { return e.history }
func (e *Engine) Rows() []model.DisplayRow  { return e.view.Rows() }
func (e *Engine) Settings() store.Settings  { return e.view.Settings() }
func (e *Engine) Selected() model.TaskID    { return e.doc.Selected }

func (e *Engine) Task(id model.TaskID) (*model.Task, bool) { return e.doc.Get(id) }

// Dirty reports unsaved changes.
func (e *Engine) Dirty() bool { return e.dirty }
func (e *Engine) MarkSaved()  { e.dirty = false }

// apply runs one mutation inside the envelope. The selection is repaired
// only after the cache is invalidated, so it is checked against fresh rows.
func (e *Engine) apply(label string, id model.TaskID, fn func()) {
	e.history.Snapshot(e.doc, label)
	fn()
	e.view.Invalidate()
	e.repairSelection()
	e.dirty = true
	e.log.Debug("mutation", "action", label, "task", int(id), "undo_depth", e.history.Len())
}

// Add creates a task next to the selection. Without a selection the task
// becomes the last root. The new task is selected, except for PlaceChild,
// where the selection stays on the new parent.
func (e *Engine) Add(text string, placement model.Placement) model.TaskID {
	text = model.SanitizeText(text)
	sel := e.doc.Selected
	hasSel := e.doc.Has(sel)

	var id model.TaskID
	e.apply("add", sel, func() {
		id = e.doc.Create(text)
		if hasSel {
			switch placement {
			case model.PlaceChild:
				if p, ok := e.doc.Get(sel); ok {
					p.Collapsed = false
				}
				e.doc.Place(id, sel, -1)
			case model.PlaceParentLevel:
				if parent := e.doc.ParentOf(sel); parent.Valid() {
					e.doc.PlaceBeside(id, parent, true)
				} else {
					e.doc.PlaceBeside(id, sel, true)
				}
			default:
				e.doc.PlaceBeside(id, sel, true)
			}
		}
		e.doc.Renumber()
		if !hasSel || placement != model.PlaceChild {
			e.doc.Selected = id
		}
	})
	return id
}

// Delete removes id and its whole subtree.
func (e *Engine) Delete(id model.TaskID) bool {
	if !e.doc.Has(id) {
		return false
	}
	e.apply("delete", id, func() {
		e.doc.DeleteSubtree(id)
	})
	return true
}

func (e *Engine) ToggleDone(id model.TaskID) bool {
	t, ok := e.doc.Get(id)
	if !ok {
		return false
	}
	e.apply("toggle done", id, func() {
		t.Done = !t.Done
	})
	return true
}

// ToggleCollapsed flips the collapsed flag of a task that has children.
func (e *Engine) ToggleCollapsed(id model.TaskID) bool {
	t, ok := e.doc.Get(id)
	if !ok || !t.HasChildren() {
		return false
	}
	e.apply("toggle collapse", id, func() {
		t.Collapsed = !t.Collapsed
	})
	return true
}

// SetText replaces a task's text.
func (e *Engine) SetText(id model.TaskID, text string) bool {
	t, ok := e.doc.Get(id)
	text = model.SanitizeText(text)
	if !ok || t.Text == text {
		return false
	}
	e.apply("edit", id, func() {
		t.Text = text
	})
	return true
}

// Move re-links id relative to target. Missing ids are a silent no-op
// (false, nil). A move that would create a cycle returns a
// MoveRejectedError and leaves the document and history untouched. A move
// that would not change the tree is also a no-op.
func (e *Engine) Move(id, target model.TaskID, pos model.Position) (bool, error) {
	if !e.doc.Has(id) || !e.doc.Has(target) {
		return false, nil
	}
	if err := e.CheckMove(id, target, pos); err != nil {
		e.log.Debug("move rejected", "task", int(id), "target", int(target), "position", pos.String(), "error", err)
		return false, err
	}
	if e.moveIsNoop(id, target, pos) {
		return false, nil
	}
	e.apply("move", id, func() {
		switch pos {
		case model.Child:
			e.doc.Place(id, target, -1)
		case model.Before:
			e.doc.PlaceBeside(id, target, false)
		case model.After:
			e.doc.PlaceBeside(id, target, true)
		}
		e.doc.Renumber()
	})
	return true, nil
}

// CheckMove validates a move without applying it.
func (e *Engine) CheckMove(id, target model.TaskID, pos model.Position) error {
	if id == target {
		return MoveRejectedError{ID: id, Target: target, Position: pos, Reason: RejectSelf}
	}
	switch pos {
	case model.Child:
		if e.doc.IsDescendantOrSelf(target, id) {
			return MoveRejectedError{ID: id, Target: target, Position: pos, Reason: RejectCycle}
		}
	case model.Before, model.After:
		if p := e.doc.ParentOf(target); p.Valid() && e.doc.IsDescendantOrSelf(p, id) {
			return MoveRejectedError{ID: id, Target: target, Position: pos, Reason: RejectCycle}
		}
	default:
		return MoveRejectedError{ID: id, Target: target, Position: pos, Reason: RejectPosition}
	}
	return nil
}

func (e *Engine) moveIsNoop(id, target model.TaskID, pos model.Position) bool {
	sibs := e.doc.SiblingsOf(target)
	switch pos {
	case model.Child:
		kids := e.doc.ChildrenOf(target)
		return len(kids) > 0 && kids[len(kids)-1] == id
	case model.Before:
		i := e.doc.IndexOf(target)
		return e.doc.ParentOf(id) == e.doc.ParentOf(target) && i > 0 && sibs[i-1] == id
	case model.After:
		i := e.doc.IndexOf(target)
		return e.doc.ParentOf(id) == e.doc.ParentOf(target) && i+1 < len(sibs) && sibs[i+1] == id
	}
	return false
}

// Undo restores the state before the last mutation. ok is false when there
// is nothing left to undo.
func (e *Engine) Undo() (label string, ok bool) {
	label, ok = e.history.Undo(e.doc)
	if !ok {
		return "", false
	}
	e.view.Invalidate()
	e.repairSelection()
	e.dirty = true
	e.log.Debug("undo", "action", label, "undo_depth", e.history.Len())
	return label, true
}

// Replace swaps in a freshly loaded document (e.g. after the file changed on
// disk). History is cleared since it describes another lineage.
func (e *Engine) Replace(doc *store.Document) {
	if doc == nil {
		return
	}
	sel := e.doc.Selected
	e.doc.Restore(doc)
	if e.doc.Has(sel) {
		e.doc.Selected = sel
	}
	e.history.Clear()
	e.view.Invalidate()
	e.dirty = false
	e.repairSelection()
}
