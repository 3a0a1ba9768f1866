package mutate

import (
	"nestdo/internal/model"
	"nestdo/internal/store"
)

// Selection and settings changes are not mutations: no snapshot, no dirty
// flag.

// Select points the selection at id; NoTask clears it.
func (e *Engine) Select(id model.TaskID) bool {
	return e.doc.Select(id)
}

// SelectRelative moves the selection delta rows through the display list,
// clamping at both ends. With no selection it picks the first or last row.
func (e *Engine) SelectRelative(delta int) bool {
	rows := e.view.Rows()
	if len(rows) == 0 {
		return false
	}
	i := e.view.Index(e.doc.Selected)
	switch {
	case i < 0 && delta >= 0:
		i = 0
	case i < 0:
		i = len(rows) - 1
	default:
		i += delta
	}
	i = max(0, min(i, len(rows)-1))
	return e.doc.Select(rows[i].ID)
}

func (e *Engine) SelectFirst() bool {
	rows := e.view.Rows()
	if len(rows) == 0 {
		return false
	}
	return e.doc.Select(rows[0].ID)
}

func (e *Engine) SelectLast() bool {
	rows := e.view.Rows()
	if len(rows) == 0 {
		return false
	}
	return e.doc.Select(rows[len(rows)-1].ID)
}

// repairSelection keeps the selection on a visible task: a hidden selection
// moves to its nearest visible ancestor, or is cleared.
func (e *Engine) repairSelection() {
	sel := e.doc.Selected
	if !sel.Valid() {
		return
	}
	if !e.doc.Has(sel) {
		e.doc.Selected = model.NoTask
		return
	}
	if e.view.Visible(sel) {
		return
	}
	for _, a := range e.doc.Ancestors(sel) {
		if e.view.Visible(a) {
			e.doc.Selected = a
			return
		}
	}
	e.doc.Selected = model.NoTask
}

func (e *Engine) SetSettings(s store.Settings) {
	e.view.SetSettings(s)
	e.repairSelection()
}

func (e *Engine) SetShowCompleted(show bool) {
	e.view.SetShowCompleted(show)
	e.repairSelection()
}

func (e *Engine) SetSortMode(mode model.SortMode) {
	e.view.SetSortMode(mode)
}

// CycleSortMode flips between custom and alphabetical order.
func (e *Engine) CycleSortMode() model.SortMode {
	next := model.SortAlphabetical
	if e.view.Settings().SortMode == model.SortAlphabetical {
		next = model.SortCustom
	}
	e.view.SetSortMode(next)
	return next
}
