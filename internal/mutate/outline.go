package mutate

import "nestdo/internal/model"

// Keyboard reordering helpers. Each one is a Move with a target picked from
// the stored sibling order.

// Indent makes id the last child of its previous sibling.
func (e *Engine) Indent(id model.TaskID) (bool, error) {
	prev, ok := e.sibling(id, -1)
	if !ok {
		return false, nil
	}
	return e.Move(id, prev, model.Child)
}

// Outdent moves id right after its parent.
func (e *Engine) Outdent(id model.TaskID) (bool, error) {
	parent := e.doc.ParentOf(id)
	if !parent.Valid() {
		return false, nil
	}
	return e.Move(id, parent, model.After)
}

func (e *Engine) MoveUp(id model.TaskID) (bool, error) {
	prev, ok := e.sibling(id, -1)
	if !ok {
		return false, nil
	}
	return e.Move(id, prev, model.Before)
}

func (e *Engine) MoveDown(id model.TaskID) (bool, error) {
	next, ok := e.sibling(id, 1)
	if !ok {
		return false, nil
	}
	return e.Move(id, next, model.After)
}

func (e *Engine) sibling(id model.TaskID, delta int) (model.TaskID, bool) {
	sibs := e.doc.SiblingsOf(id)
	i := e.doc.IndexOf(id)
	if i < 0 {
		return model.NoTask, false
	}
	j := i + delta
	if j < 0 || j >= len(sibs) {
		return model.NoTask, false
	}
	return sibs[j], true
}
