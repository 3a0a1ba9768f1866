// Package drop turns a pointer position over the display list into a drop
// intent for drag-and-drop reordering.
package drop

import "nestdo/internal/model"

// DefaultThreshold is the share of a row's height, at its top and at its
// bottom, that means "drop before" and "drop after".
const DefaultThreshold = 0.25

type Resolver struct {
	// Threshold is clamped to (0, 0.5]; values outside fall back to
	// DefaultThreshold.
	Threshold float64
}

func New(threshold float64) Resolver {
	return Resolver{Threshold: threshold}
}

func (r Resolver) threshold() float64 {
	if r.Threshold <= 0 || r.Threshold > 0.5 {
		return DefaultThreshold
	}
	return r.Threshold
}

// Resolve walks rows from originY (the scroll-adjusted top of the first row)
// and finds the row whose span [top, top+height) holds pointerY. The top
// fraction of that row resolves to Before, the bottom fraction to After and
// the middle to Child, reported one level deeper than the row.
func (r Resolver) Resolve(pointerY, originY float64, rows []model.DisplayRow) (model.DropTarget, bool) {
	if pointerY < originY {
		return model.DropTarget{}, false
	}
	th := r.threshold()
	top := originY
	for _, row := range rows {
		h := float64(row.Height)
		if h <= 0 {
			h = 1
		}
		if pointerY >= top && pointerY < top+h {
			return zone(row, (pointerY-top)/h, th), true
		}
		top += h
	}
	return model.DropTarget{}, false
}

// ResolveCell is Resolve for character-cell surfaces, where a pointer only
// reports whole cells. Rows of three or more lines split by line: the first
// line is Before, the last is After and the rest is Child. Shorter rows are
// split by column over the indented text instead, with the same threshold
// shares.
func (r Resolver) ResolveCell(x, y, originY int, rows []model.DisplayRow, indent, width int) (model.DropTarget, bool) {
	top := originY
	for _, row := range rows {
		h := row.Height
		if h <= 0 {
			h = 1
		}
		if y >= top && y < top+h {
			if h >= 3 {
				switch y - top {
				case 0:
					return zone(row, 0, r.threshold()), true
				case h - 1:
					return zone(row, 1, r.threshold()), true
				default:
					return zone(row, 0.5, r.threshold()), true
				}
			}
			start := row.Depth * indent
			span := width - start
			if span < 3 {
				span = 3
			}
			return zone(row, float64(x-start)/float64(span), r.threshold()), true
		}
		top += h
	}
	return model.DropTarget{}, false
}

func zone(row model.DisplayRow, frac, th float64) model.DropTarget {
	switch {
	case frac < th:
		return model.DropTarget{ID: row.ID, Position: model.Before, Depth: row.Depth}
	case frac >= 1-th:
		return model.DropTarget{ID: row.ID, Position: model.After, Depth: row.Depth}
	default:
		return model.DropTarget{ID: row.ID, Position: model.Child, Depth: row.Depth + 1}
	}
}
