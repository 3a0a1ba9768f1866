package model

import "strings"

// TaskID identifies a task within one document. IDs are assigned from 1 and
// never reused; NoTask (0) means "absent".
type TaskID int

const NoTask TaskID = 0

// Valid reports whether id can refer to a task.
func (id TaskID) Valid() bool { return id > NoTask }

type Task struct {
	ID       TaskID `json:"id" yaml:"id"`
	ParentID TaskID `json:"parentId,omitempty" yaml:"parentId,omitempty"`

	Text      string `json:"text" yaml:"text"`
	Done      bool   `json:"done" yaml:"done"`
	Collapsed bool   `json:"collapsed" yaml:"collapsed"`
	Order     int    `json:"order" yaml:"order"`

	// Children is the ordered list of child ids.
	Children []TaskID `json:"children,omitempty" yaml:"children,omitempty"`
}

func (t *Task) IsRoot() bool      { return !t.ParentID.Valid() }
func (t *Task) HasChildren() bool { return len(t.Children) > 0 }

// Clone returns a copy that shares no memory with t.
func (t *Task) Clone() *Task {
	c := *t
	if t.Children != nil {
		c.Children = append(make([]TaskID, 0, len(t.Children)), t.Children...)
	}
	return &c
}

// Placement selects where Add inserts a new task relative to the selection.
type Placement int

const (
	// PlaceSibling inserts right after the selection in its sibling list.
	PlaceSibling Placement = iota
	// PlaceChild appends the new task as the last child of the selection.
	PlaceChild
	// PlaceParentLevel inserts after the selection's parent, one level up.
	PlaceParentLevel
)

func (p Placement) String() string {
	switch p {
	case PlaceChild:
		return "child"
	case PlaceParentLevel:
		return "parent-level"
	default:
		return "sibling"
	}
}

func ParsePlacement(s string) (Placement, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sibling", "after":
		return PlaceSibling, true
	case "child":
		return PlaceChild, true
	case "parent-level", "parent", "outdent":
		return PlaceParentLevel, true
	default:
		return PlaceSibling, false
	}
}

// Position is the relation between a moved task and its target.
type Position int

const (
	Before Position = iota
	After
	Child
)

func (p Position) String() string {
	switch p {
	case Before:
		return "before"
	case After:
		return "after"
	case Child:
		return "child"
	default:
		return "unknown"
	}
}

func (p Position) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func ParsePosition(s string) (Position, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "before":
		return Before, true
	case "after":
		return After, true
	case "child":
		return Child, true
	default:
		return Before, false
	}
}

type SortMode string

const (
	SortCustom       SortMode = "custom"
	SortAlphabetical SortMode = "alphabetical"
)

// ParseSortMode accepts the persisted names plus a couple of short aliases.
func ParseSortMode(s string) (SortMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "custom", "manual":
		return SortCustom, true
	case "alphabetical", "alpha", "az":
		return SortAlphabetical, true
	default:
		return SortCustom, false
	}
}

// DisplayRow is one visible line of the projected tree.
type DisplayRow struct {
	ID     TaskID `json:"id" yaml:"id"`
	Depth  int    `json:"depth" yaml:"depth"`
	Height int    `json:"height" yaml:"height"`
}

// DropTarget is the resolved intent of a drag at a pointer position.
type DropTarget struct {
	ID       TaskID   `json:"id" yaml:"id"`
	Position Position `json:"position" yaml:"position"`
	Depth    int      `json:"depth" yaml:"depth"`
}

// SanitizeText makes text safe for the line-oriented task file: one line, no
// field delimiter.
func SanitizeText(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", ":", ";").Replace(s)
	return strings.TrimSpace(s)
}
