// Package projection flattens the task tree into the visible, filtered and
// sorted display list used for rendering and hit-testing.
package projection

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"nestdo/internal/model"
	"nestdo/internal/store"
)

// DefaultRowHeight is the height of a row that needs no wrapping.
const DefaultRowHeight = 1

// HeightFunc returns the rendered height of a task row at depth.
type HeightFunc func(t *model.Task, depth int) int

// Cache memoizes the display list of one document. It is rebuilt lazily on
// the first read after Invalidate.
type Cache struct {
	doc      *store.Document
	settings store.Settings
	height   HeightFunc

	rows  []model.DisplayRow
	index map[model.TaskID]int
	dirty bool

	builds int
}

func New(doc *store.Document, settings store.Settings) *Cache {
	return &Cache{
		doc:      doc,
		settings: settings,
		dirty:    true,
	}
}

func (c *Cache) Invalidate() { c.dirty = true }
func (c *Cache) Dirty() bool { return c.dirty }

// Builds counts how many times the list was recomputed.
func (c *Cache) Builds() int { return c.builds }

func (c *Cache) Settings() store.Settings { return c.settings }

func (c *Cache) SetSettings(s store.Settings) {
	if s.SortMode == "" {
		s.SortMode = model.SortCustom
	}
	c.settings = s
	c.dirty = true
}

func (c *Cache) SetShowCompleted(show bool) {
	if c.settings.ShowCompleted == show {
		return
	}
	c.settings.ShowCompleted = show
	c.dirty = true
}

func (c *Cache) SetSortMode(mode model.SortMode) {
	if c.settings.SortMode == mode {
		return
	}
	c.settings.SortMode = mode
	c.dirty = true
}

// SetRowHeight installs the height hook (nil restores fixed heights).
func (c *Cache) SetRowHeight(fn HeightFunc) {
	c.height = fn
	c.dirty = true
}

// Rows returns the display list. The slice is shared until the next rebuild;
// callers must not modify it.
func (c *Cache) Rows() []model.DisplayRow {
	if c.dirty || c.rows == nil {
		c.rebuild()
	}
	return c.rows
}

// Index returns the row index of id, or -1 if it is not visible.
func (c *Cache) Index(id model.TaskID) int {
	c.Rows()
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

func (c *Cache) Visible(id model.TaskID) bool { return c.Index(id) >= 0 }

// TotalHeight is the sum of all row heights.
func (c *Cache) TotalHeight() int {
	h := 0
	for _, r := range c.Rows() {
		h += r.Height
	}
	return h
}

func (c *Cache) rebuild() {
	c.builds++
	c.dirty = false
	c.rows = make([]model.DisplayRow, 0, c.doc.Len())
	c.index = make(map[model.TaskID]int, c.doc.Len())

	type frame struct {
		id    model.TaskID
		depth int
	}
	roots := c.ordered(c.doc.Roots)
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: roots[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t, ok := c.doc.Get(f.id)
		if !ok {
			continue
		}
		if _, dup := c.index[f.id]; dup {
			continue
		}
		if t.Done && !c.settings.ShowCompleted {
			continue
		}
		c.index[f.id] = len(c.rows)
		c.rows = append(c.rows, model.DisplayRow{ID: f.id, Depth: f.depth, Height: c.rowHeight(t, f.depth)})
		if t.Collapsed {
			continue
		}
		kids := c.ordered(t.Children)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: kids[i], depth: f.depth + 1})
		}
	}
}

func (c *Cache) rowHeight(t *model.Task, depth int) int {
	if c.height == nil {
		return DefaultRowHeight
	}
	if h := c.height(t, depth); h > 0 {
		return h
	}
	return DefaultRowHeight
}

// ordered returns a sorted copy of a sibling list; stored orders are never
// touched.
func (c *Cache) ordered(ids []model.TaskID) []model.TaskID {
	out := make([]model.TaskID, 0, len(ids))
	for _, id := range ids {
		if c.doc.Has(id) {
			out = append(out, id)
		}
	}
	switch c.settings.SortMode {
	case model.SortAlphabetical:
		fold := cases.Fold()
		keys := make(map[model.TaskID]string, len(out))
		for _, id := range out {
			t, _ := c.doc.Get(id)
			keys[id] = fold.String(t.Text)
		}
		slices.SortStableFunc(out, func(a, b model.TaskID) int {
			if k := strings.Compare(keys[a], keys[b]); k != 0 {
				return k
			}
			return c.compareOrder(a, b)
		})
	default:
		slices.SortStableFunc(out, c.compareOrder)
	}
	return out
}

func (c *Cache) compareOrder(a, b model.TaskID) int {
	ta, _ := c.doc.Get(a)
	tb, _ := c.doc.Get(b)
	return cmp.Compare(ta.Order, tb.Order)
}
