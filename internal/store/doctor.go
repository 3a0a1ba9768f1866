package store

import (
	"errors"
	"fmt"
	"slices"

	"nestdo/internal/model"
)

var ErrDoctorIssuesFound = errors.New("doctor found issues")

type DoctorIssueLevel string

const (
	DoctorIssueLevelError DoctorIssueLevel = "error"
	DoctorIssueLevelWarn  DoctorIssueLevel = "warn"
)

type DoctorIssue struct {
	Level   DoctorIssueLevel `json:"level" yaml:"level"`
	Code    string           `json:"code" yaml:"code"`
	Message string           `json:"message" yaml:"message"`
	TaskID  model.TaskID     `json:"taskId,omitempty" yaml:"taskId,omitempty"`
	Line    int              `json:"line,omitempty" yaml:"line,omitempty"`
}

type DoctorReport struct {
	Issues []DoctorIssue `json:"issues" yaml:"issues"`
}

func (r DoctorReport) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == DoctorIssueLevelError {
			return true
		}
	}
	return false
}

func (r *DoctorReport) add(level DoctorIssueLevel, code string, id model.TaskID, format string, args ...any) {
	r.Issues = append(r.Issues, DoctorIssue{
		Level:   level,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		TaskID:  id,
	})
}

// Doctor checks the document's structural invariants: parent/child links agree
// in both directions, lists hold each id once, every task is reachable from
// the roots exactly once, and the id counter and selection are sane.
func Doctor(doc *Document) DoctorReport {
	var rep DoctorReport
	if doc == nil {
		rep.add(DoctorIssueLevelError, "nil_document", model.NoTask, "document is nil")
		return rep
	}

	inList := map[model.TaskID]int{}
	for _, id := range doc.Roots {
		inList[id]++
		t, ok := doc.Get(id)
		if !ok {
			rep.add(DoctorIssueLevelError, "dangling_root", id, "root %d does not exist", id)
			continue
		}
		if t.ParentID.Valid() {
			rep.add(DoctorIssueLevelError, "root_has_parent", id, "root %d has parent %d", id, t.ParentID)
		}
	}

	ids := make([]model.TaskID, 0, len(doc.Tasks))
	for id := range doc.Tasks {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		t := doc.Tasks[id]
		if t == nil || t.ID != id {
			rep.add(DoctorIssueLevelError, "id_mismatch", id, "task stored under %d has a different id", id)
			continue
		}
		if id >= doc.NextID {
			rep.add(DoctorIssueLevelError, "next_id_too_low", id, "next id %d is not above task %d", doc.NextID, id)
		}
		dup := map[model.TaskID]bool{}
		for _, c := range t.Children {
			if dup[c] {
				rep.add(DoctorIssueLevelError, "duplicate_child", id, "task %d lists child %d twice", id, c)
				continue
			}
			dup[c] = true
			inList[c]++
			ct, ok := doc.Get(c)
			if !ok {
				rep.add(DoctorIssueLevelError, "dangling_child", id, "task %d lists missing child %d", id, c)
				continue
			}
			if ct.ParentID != id {
				rep.add(DoctorIssueLevelError, "parent_mismatch", c, "task %d is listed under %d but names parent %d", c, id, ct.ParentID)
			}
		}
		if t.ParentID.Valid() && !doc.Has(t.ParentID) {
			rep.add(DoctorIssueLevelError, "dangling_parent", id, "task %d names missing parent %d", id, t.ParentID)
		}
		if onParentCycle(doc, id) {
			rep.add(DoctorIssueLevelError, "cycle", id, "task %d is its own ancestor", id)
		}
	}

	for _, id := range ids {
		switch n := inList[id]; {
		case n == 0:
			rep.add(DoctorIssueLevelError, "unreachable", id, "task %d is in no list", id)
		case n > 1:
			rep.add(DoctorIssueLevelError, "listed_twice", id, "task %d appears in %d lists", id, n)
		}
	}

	reach := 0
	for _, r := range doc.Roots {
		reach += len(doc.Subtree(r))
	}
	if reach != len(doc.Tasks) {
		rep.add(DoctorIssueLevelError, "reachability", model.NoTask, "%d of %d tasks reachable from roots", reach, len(doc.Tasks))
	}

	if doc.Selected.Valid() && !doc.Has(doc.Selected) {
		rep.add(DoctorIssueLevelWarn, "selection_missing", doc.Selected, "selection %d does not exist", doc.Selected)
	}
	return rep
}

// DoctorDecode adds one warning per skipped line of a load.
func DoctorDecode(rep *DoctorReport, dec DecodeReport) {
	for _, s := range dec.Skipped {
		rep.Issues = append(rep.Issues, DoctorIssue{
			Level:   DoctorIssueLevelWarn,
			Code:    "malformed_line",
			Message: s.Reason,
			Line:    s.Line,
		})
	}
}

// onParentCycle follows parent ids from id and reports whether it comes back.
func onParentCycle(doc *Document, id model.TaskID) bool {
	cur := doc.ParentOf(id)
	for steps := 0; cur.Valid() && steps <= len(doc.Tasks); steps++ {
		if cur == id {
			return true
		}
		cur = doc.ParentOf(cur)
	}
	return false
}
