package store

import (
	"slices"

	"nestdo/internal/model"
)

// Document is the whole in-memory tree: an arena of tasks keyed by id, the
// ordered root list, the id counter and the current selection.
//
// Every operation tolerates ids that are not in the arena by doing nothing.
type Document struct {
	Tasks    map[model.TaskID]*model.Task
	Roots    []model.TaskID
	NextID   model.TaskID
	Selected model.TaskID
}

func NewDocument() *Document {
	return &Document{
		Tasks:  map[model.TaskID]*model.Task{},
		NextID: 1,
	}
}

func (d *Document) Len() int { return len(d.Tasks) }

func (d *Document) Get(id model.TaskID) (*model.Task, bool) {
	if d == nil || !id.Valid() {
		return nil, false
	}
	t, ok := d.Tasks[id]
	return t, ok && t != nil
}

func (d *Document) Has(id model.TaskID) bool {
	_, ok := d.Get(id)
	return ok
}

// Create allocates a new task and appends it as the last root.
func (d *Document) Create(text string) model.TaskID {
	if d.Tasks == nil {
		d.Tasks = map[model.TaskID]*model.Task{}
	}
	if !d.NextID.Valid() {
		d.NextID = 1
	}
	id := d.NextID
	d.NextID++
	d.Tasks[id] = &model.Task{
		ID:    id,
		Text:  text,
		Order: d.MaxOrder() + 1,
	}
	d.Roots = append(d.Roots, id)
	return id
}

// MaxOrder returns the highest order value in the document, or -1 when empty.
func (d *Document) MaxOrder() int {
	hi := -1
	for _, t := range d.Tasks {
		if t != nil && t.Order > hi {
			hi = t.Order
		}
	}
	return hi
}

// RootIDs returns a copy of the root list.
func (d *Document) RootIDs() []model.TaskID {
	return slices.Clone(d.Roots)
}

// ChildrenOf returns a copy of id's children. NoTask yields the roots.
func (d *Document) ChildrenOf(id model.TaskID) []model.TaskID {
	if !id.Valid() {
		return d.RootIDs()
	}
	t, ok := d.Get(id)
	if !ok {
		return nil
	}
	return slices.Clone(t.Children)
}

// ParentOf returns id's parent, or NoTask for roots and unknown ids. A parent
// reference to a missing task counts as absent.
func (d *Document) ParentOf(id model.TaskID) model.TaskID {
	t, ok := d.Get(id)
	if !ok || !d.Has(t.ParentID) {
		return model.NoTask
	}
	return t.ParentID
}

// siblings returns the list id lives in (a children list or the roots).
func (d *Document) siblings(parent model.TaskID) *[]model.TaskID {
	if !parent.Valid() {
		return &d.Roots
	}
	p, ok := d.Get(parent)
	if !ok {
		return &d.Roots
	}
	return &p.Children
}

// SiblingsOf returns a copy of the list containing id.
func (d *Document) SiblingsOf(id model.TaskID) []model.TaskID {
	if !d.Has(id) {
		return nil
	}
	return slices.Clone(*d.siblings(d.ParentOf(id)))
}

// IndexOf returns id's index in its sibling list, or -1.
func (d *Document) IndexOf(id model.TaskID) int {
	if !d.Has(id) {
		return -1
	}
	return slices.Index(*d.siblings(d.ParentOf(id)), id)
}

// detach unlinks id from its parent's children (or the roots) and clears its
// parent. The task stays in the arena.
func (d *Document) detach(id model.TaskID) {
	t, ok := d.Get(id)
	if !ok {
		return
	}
	list := d.siblings(d.ParentOf(id))
	*list = slices.DeleteFunc(*list, func(x model.TaskID) bool { return x == id })
	// Stale links from a parent that no longer owns the task.
	d.Roots = slices.DeleteFunc(d.Roots, func(x model.TaskID) bool { return x == id })
	t.ParentID = model.NoTask
}

// insertAt links a detached id under parent at index (clamped).
func (d *Document) insertAt(id, parent model.TaskID, index int) {
	t, ok := d.Get(id)
	if !ok {
		return
	}
	if !d.Has(parent) {
		parent = model.NoTask
	}
	list := d.siblings(parent)
	if index < 0 || index > len(*list) {
		index = len(*list)
	}
	*list = slices.Insert(*list, index, id)
	t.ParentID = parent
}

// Place moves id under parent (NoTask = root level) at index, where index is
// counted in the sibling list with id already removed; a negative or
// out-of-range index appends. It refuses edges that would create a cycle and
// reports whether the tree changed.
func (d *Document) Place(id, parent model.TaskID, index int) bool {
	if !d.Has(id) {
		return false
	}
	if parent.Valid() && (!d.Has(parent) || d.IsDescendantOrSelf(parent, id)) {
		return false
	}
	oldParent, oldIndex := d.ParentOf(id), d.IndexOf(id)
	d.detach(id)
	d.insertAt(id, parent, index)
	return oldParent != parent || d.IndexOf(id) != oldIndex
}

// PlaceBeside moves id next to target, into target's sibling list. It refuses
// when target's parent lies inside id's subtree.
func (d *Document) PlaceBeside(id, target model.TaskID, after bool) bool {
	if id == target || !d.Has(id) || !d.Has(target) {
		return false
	}
	parent := d.ParentOf(target)
	if parent.Valid() && d.IsDescendantOrSelf(parent, id) {
		return false
	}
	oldParent, oldIndex := d.ParentOf(id), d.IndexOf(id)
	d.detach(id)
	idx := slices.Index(*d.siblings(parent), target)
	if after {
		idx++
	}
	d.insertAt(id, parent, idx)
	return oldParent != parent || d.IndexOf(id) != oldIndex
}

// SetParent re-parents id as the last child of parent (NoTask = last root).
func (d *Document) SetParent(id, parent model.TaskID) bool {
	return d.Place(id, parent, -1)
}

// IsDescendantOrSelf reports whether x == y or x is reachable from y through
// children lists. The walk uses an explicit stack and never visits more nodes
// than the arena holds.
func (d *Document) IsDescendantOrSelf(x, y model.TaskID) bool {
	if !x.Valid() || !y.Valid() {
		return false
	}
	if x == y {
		return d.Has(x)
	}
	root, ok := d.Get(y)
	if !ok {
		return false
	}
	seen := make(map[model.TaskID]bool, len(d.Tasks))
	stack := slices.Clone(root.Children)
	for len(stack) > 0 && len(seen) <= len(d.Tasks) {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == x {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		if t, ok := d.Get(id); ok {
			stack = append(stack, t.Children...)
		}
	}
	return false
}

// Subtree returns id and all its descendants in pre-order.
func (d *Document) Subtree(id model.TaskID) []model.TaskID {
	if !d.Has(id) {
		return nil
	}
	var out []model.TaskID
	seen := map[model.TaskID]bool{}
	stack := []model.TaskID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		t, ok := d.Get(cur)
		if !ok {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		for i := len(t.Children) - 1; i >= 0; i-- {
			stack = append(stack, t.Children[i])
		}
	}
	return out
}

// DeleteSubtree removes id and every descendant, children before parents, and
// clears the selection if it pointed into the removed set. It returns the
// removed ids in removal order.
func (d *Document) DeleteSubtree(id model.TaskID) []model.TaskID {
	if !d.Has(id) {
		return nil
	}
	post := postOrder(d, id)
	removed := make([]model.TaskID, 0, len(post))
	gone := make(map[model.TaskID]bool, len(post))
	for _, cur := range post {
		d.detach(cur)
		delete(d.Tasks, cur)
		gone[cur] = true
		removed = append(removed, cur)
	}
	if gone[d.Selected] {
		d.Selected = model.NoTask
	}
	return removed
}

func postOrder(d *Document, id model.TaskID) []model.TaskID {
	type frame struct {
		id       model.TaskID
		expanded bool
	}
	var out []model.TaskID
	seen := map[model.TaskID]bool{}
	stack := []frame{{id: id}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.expanded {
			out = append(out, top.id)
			stack = stack[:len(stack)-1]
			continue
		}
		top.expanded = true
		t, ok := d.Get(top.id)
		if !ok {
			continue
		}
		seen[top.id] = true
		for i := len(t.Children) - 1; i >= 0; i-- {
			if c := t.Children[i]; !seen[c] && d.Has(c) {
				stack = append(stack, frame{id: c})
			}
		}
	}
	return out
}

// Renumber rewrites every order value with a single pre-order walk from the
// roots so that orders become 0..n-1 in tree order.
func (d *Document) Renumber() {
	next := 0
	seen := make(map[model.TaskID]bool, len(d.Tasks))
	stack := make([]model.TaskID, 0, len(d.Roots))
	for i := len(d.Roots) - 1; i >= 0; i-- {
		stack = append(stack, d.Roots[i])
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t, ok := d.Get(id)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		t.Order = next
		next++
		for i := len(t.Children) - 1; i >= 0; i-- {
			stack = append(stack, t.Children[i])
		}
	}
}

// Ancestors returns id's ancestors from the parent up to the root.
func (d *Document) Ancestors(id model.TaskID) []model.TaskID {
	var out []model.TaskID
	seen := map[model.TaskID]bool{id: true}
	for p := d.ParentOf(id); p.Valid() && !seen[p]; p = d.ParentOf(p) {
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Select points the selection at id when it exists (NoTask clears it).
func (d *Document) Select(id model.TaskID) bool {
	if id.Valid() && !d.Has(id) {
		return false
	}
	if d.Selected == id {
		return false
	}
	d.Selected = id
	return true
}

// Clone deep-copies the document. The copy shares no task or slice memory
// with d, so mutating either side never affects the other.
func (d *Document) Clone() *Document {
	c := &Document{
		Tasks:    make(map[model.TaskID]*model.Task, len(d.Tasks)),
		Roots:    slices.Clone(d.Roots),
		NextID:   d.NextID,
		Selected: d.Selected,
	}
	for id, t := range d.Tasks {
		if t != nil {
			c.Tasks[id] = t.Clone()
		}
	}
	return c
}

// Restore replaces d's contents with src's, keeping d's identity so holders
// of the pointer see the restored state. src must not be used afterwards.
func (d *Document) Restore(src *Document) {
	if src == nil {
		return
	}
	d.Tasks = src.Tasks
	d.Roots = src.Roots
	d.NextID = src.NextID
	d.Selected = src.Selected
	if d.Tasks == nil {
		d.Tasks = map[model.TaskID]*model.Task{}
	}
}
