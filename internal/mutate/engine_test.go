package mutate

import (
	"errors"
	"reflect"
	"testing"

	"nestdo/internal/history"
	"nestdo/internal/model"
	"nestdo/internal/store"
)

func newEngine() *Engine {
	return New(store.NewDocument(), store.DefaultSettings())
}

type rowView struct {
	text  string
	depth int
}

func visible(e *Engine) []rowView {
	var out []rowView
	for _, r := range e.Rows() {
		t, _ := e.Task(r.ID)
		out = append(out, rowView{t.Text, r.Depth})
	}
	return out
}

// buildABC adds A, B as a sibling after A and C as a child of B.
func buildABC(t *testing.T, e *Engine) (a, b, c model.TaskID) {
	t.Helper()
	a = e.Add("A", model.PlaceSibling)
	b = e.Add("B", model.PlaceSibling)
	if e.Selected() != b {
		t.Fatalf("expected selection on B; got %d", e.Selected())
	}
	c = e.Add("C", model.PlaceChild)
	if e.Selected() != b {
		t.Fatalf("expected selection to stay on B after child add; got %d", e.Selected())
	}
	return a, b, c
}

func TestAdd_SiblingAndChildBuildDisplayList(t *testing.T) {
	e := newEngine()
	buildABC(t, e)

	want := []rowView{{"A", 0}, {"B", 0}, {"C", 1}}
	if got := visible(e); !reflect.DeepEqual(got, want) {
		t.Fatalf("display list: got %v want %v", got, want)
	}
	if !e.Dirty() {
		t.Fatalf("expected dirty after adds")
	}
	if got := e.History().Len(); got != 3 {
		t.Fatalf("expected 3 history entries; got %d", got)
	}
}

func TestAdd_NoSelectionAppendsRoot(t *testing.T) {
	e := newEngine()
	a := e.Add("A", model.PlaceChild)
	e.Select(model.NoTask)
	b := e.Add("B", model.PlaceChild)

	if got := e.Document().RootIDs(); !reflect.DeepEqual(got, []model.TaskID{a, b}) {
		t.Fatalf("roots: got %v", got)
	}
	if e.Selected() != b {
		t.Fatalf("expected new task selected")
	}
}

func TestAdd_ParentLevel(t *testing.T) {
	e := newEngine()
	a, b, c := buildABC(t, e)
	e.Select(c)
	d := e.Add("D", model.PlaceParentLevel)

	if got := e.Document().RootIDs(); !reflect.DeepEqual(got, []model.TaskID{a, b, d}) {
		t.Fatalf("roots: got %v", got)
	}
	// At root level parent-level behaves like sibling.
	e.Select(a)
	x := e.Add("X", model.PlaceParentLevel)
	if got := e.Document().RootIDs(); !reflect.DeepEqual(got, []model.TaskID{a, x, b, d}) {
		t.Fatalf("roots: got %v", got)
	}
}

func TestAdd_OrderIsRenumberedPreOrder(t *testing.T) {
	e := newEngine()
	a, b, c := buildABC(t, e)
	e.Select(a)
	d := e.Add("D", model.PlaceSibling)

	for want, id := range []model.TaskID{a, d, b, c} {
		task, _ := e.Task(id)
		if task.Order != want {
			t.Fatalf("task %q: order %d, want %d", task.Text, task.Order, want)
		}
	}
}

func TestAdd_SanitizesText(t *testing.T) {
	e := newEngine()
	id := e.Add("a:b\nc", model.PlaceSibling)
	task, _ := e.Task(id)
	if task.Text != "a;b c" {
		t.Fatalf("got %q", task.Text)
	}
}

func TestToggleCollapsed_HidesChildren(t *testing.T) {
	e := newEngine()
	_, b, c := buildABC(t, e)
	e.Select(c)

	if !e.ToggleCollapsed(b) {
		t.Fatalf("expected collapse to apply")
	}
	want := []rowView{{"A", 0}, {"B", 0}}
	if got := visible(e); !reflect.DeepEqual(got, want) {
		t.Fatalf("display list: got %v want %v", got, want)
	}
	if e.Selected() != b {
		t.Fatalf("expected hidden selection to move to B; got %d", e.Selected())
	}
}

func TestToggleCollapsed_LeafIsNoop(t *testing.T) {
	e := newEngine()
	a, _, _ := buildABC(t, e)
	before := e.History().Len()
	e.MarkSaved()

	if e.ToggleCollapsed(a) {
		t.Fatalf("expected no-op on leaf")
	}
	if e.History().Len() != before || e.Dirty() {
		t.Fatalf("no-op must not snapshot or mark dirty")
	}
	if e.ToggleCollapsed(99) || e.ToggleDone(99) || e.Delete(99) || e.SetText(99, "x") {
		t.Fatalf("missing ids must be no-ops")
	}
	if e.History().Len() != before {
		t.Fatalf("missing ids must not snapshot")
	}
}

func TestMove_ChildAppendsLastThenUndo(t *testing.T) {
	e := newEngine()
	a, b, c := buildABC(t, e)

	changed, err := e.Move(a, b, model.Child)
	if err != nil || !changed {
		t.Fatalf("expected accepted move; changed=%v err=%v", changed, err)
	}
	doc := e.Document()
	if got := doc.RootIDs(); !reflect.DeepEqual(got, []model.TaskID{b}) {
		t.Fatalf("roots: got %v", got)
	}
	if got := doc.ChildrenOf(b); !reflect.DeepEqual(got, []model.TaskID{c, a}) {
		t.Fatalf("children of B: got %v", got)
	}
	if ta, _ := e.Task(a); ta.ParentID != b {
		t.Fatalf("parent of A: got %d", ta.ParentID)
	}

	label, ok := e.Undo()
	if !ok || label != "move" {
		t.Fatalf("undo: label=%q ok=%v", label, ok)
	}
	if got := doc.RootIDs(); !reflect.DeepEqual(got, []model.TaskID{a, b}) {
		t.Fatalf("roots after undo: got %v", got)
	}
	if got := doc.ChildrenOf(b); !reflect.DeepEqual(got, []model.TaskID{c}) {
		t.Fatalf("children of B after undo: got %v", got)
	}
}

func TestMove_BeforeAndAfter(t *testing.T) {
	e := newEngine()
	a, b, c := buildABC(t, e)

	if _, err := e.Move(a, c, model.After); err != nil {
		t.Fatalf("move after: %v", err)
	}
	if got := e.Document().ChildrenOf(b); !reflect.DeepEqual(got, []model.TaskID{c, a}) {
		t.Fatalf("children: got %v", got)
	}
	if _, err := e.Move(a, c, model.Before); err != nil {
		t.Fatalf("move before: %v", err)
	}
	if got := e.Document().ChildrenOf(b); !reflect.DeepEqual(got, []model.TaskID{a, c}) {
		t.Fatalf("children: got %v", got)
	}
	if _, err := e.Move(c, b, model.Before); err != nil {
		t.Fatalf("move to root: %v", err)
	}
	if got := e.Document().RootIDs(); !reflect.DeepEqual(got, []model.TaskID{c, b}) {
		t.Fatalf("roots: got %v", got)
	}
	if tc, _ := e.Task(c); !tc.IsRoot() {
		t.Fatalf("expected C to be a root")
	}
}

func TestMove_RejectedLeavesStateAndHistory(t *testing.T) {
	e := newEngine()
	a, b, c := buildABC(t, e)
	e.Move(a, b, model.Child)

	snap := e.Document().Clone()
	depth := e.History().Len()

	cases := []struct {
		id, target model.TaskID
		pos        model.Position
		reason     RejectReason
	}{
		{b, b, model.Child, RejectSelf},
		{b, c, model.Child, RejectCycle},
		{b, a, model.After, RejectCycle},
		{b, c, model.Before, RejectCycle},
	}
	for _, tc := range cases {
		changed, err := e.Move(tc.id, tc.target, tc.pos)
		if changed {
			t.Fatalf("move %d %s %d: expected no change", tc.id, tc.pos, tc.target)
		}
		var rej MoveRejectedError
		if !errors.As(err, &rej) {
			t.Fatalf("move %d %s %d: expected rejection; got %v", tc.id, tc.pos, tc.target, err)
		}
		if !IsMoveRejected(err) {
			t.Fatalf("IsMoveRejected(%v) = false", err)
		}
		if rej.Reason != tc.reason {
			t.Fatalf("reason: got %q want %q", rej.Reason, tc.reason)
		}
	}
	if !reflect.DeepEqual(e.Document(), snap) {
		t.Fatalf("rejected moves changed the document")
	}
	if e.History().Len() != depth {
		t.Fatalf("rejected moves touched history")
	}
}

func TestMove_MissingIDsAndNoops(t *testing.T) {
	e := newEngine()
	a, b, c := buildABC(t, e)
	depth := e.History().Len()

	if changed, err := e.Move(a, 42, model.Child); changed || err != nil {
		t.Fatalf("missing target: changed=%v err=%v", changed, err)
	}
	if changed, err := e.Move(c, b, model.Child); changed || err != nil {
		t.Fatalf("already last child: changed=%v err=%v", changed, err)
	}
	if changed, err := e.Move(a, b, model.Before); changed || err != nil {
		t.Fatalf("already before: changed=%v err=%v", changed, err)
	}
	if e.History().Len() != depth {
		t.Fatalf("no-op moves must not snapshot")
	}
}

func TestDelete_RemovesSubtreeAndClearsSelection(t *testing.T) {
	e := newEngine()
	a, b, c := buildABC(t, e)
	e.Select(c)

	if !e.Delete(b) {
		t.Fatalf("expected delete")
	}
	doc := e.Document()
	if doc.Has(b) || doc.Has(c) {
		t.Fatalf("subtree still present")
	}
	if e.Selected() != model.NoTask {
		t.Fatalf("expected selection cleared")
	}
	if got := doc.RootIDs(); !reflect.DeepEqual(got, []model.TaskID{a}) {
		t.Fatalf("roots: got %v", got)
	}

	e.Undo()
	if !doc.Has(b) || !doc.Has(c) || e.Selected() != c {
		t.Fatalf("undo did not restore subtree and selection")
	}
}

func TestToggleDone_HiddenWhenFiltered(t *testing.T) {
	e := newEngine()
	_, b, c := buildABC(t, e)
	e.SetShowCompleted(false)
	e.Select(c)

	e.ToggleDone(b)
	want := []rowView{{"A", 0}}
	if got := visible(e); !reflect.DeepEqual(got, want) {
		t.Fatalf("display list: got %v want %v", got, want)
	}
	if e.Selected() != model.NoTask {
		t.Fatalf("expected selection cleared when no ancestor is visible; got %d", e.Selected())
	}

	e.SetShowCompleted(true)
	if len(e.Rows()) != 3 {
		t.Fatalf("expected all rows back")
	}
	if tb, _ := e.Task(b); !tb.Done {
		t.Fatalf("expected B done")
	}
}

func TestSelectionRepair_AfterFreshDisplayListRead(t *testing.T) {
	e := newEngine()
	_, b, c := buildABC(t, e)
	e.Select(c)
	e.Rows()

	e.ToggleCollapsed(b)
	if e.Selected() != b {
		t.Fatalf("collapse: selected %d, want parent %d", e.Selected(), b)
	}
	if !e.View().Visible(e.Selected()) {
		t.Fatalf("collapse: selection %d is hidden", e.Selected())
	}
}

func TestSelectionRepair_DoneWhileFilteredAfterRead(t *testing.T) {
	e := newEngine()
	a, _, _ := buildABC(t, e)
	e.SetShowCompleted(false)
	e.Select(a)
	e.Rows()

	e.ToggleDone(a)
	if e.Selected() != model.NoTask {
		t.Fatalf("selected %d, want none", e.Selected())
	}
}

func TestSelectionRepair_MoveUnderCollapsedParentAfterRead(t *testing.T) {
	e := newEngine()
	a, b, _ := buildABC(t, e)
	e.ToggleCollapsed(b)
	e.Select(a)
	e.Rows()

	if ok, err := e.Move(a, b, model.Child); !ok || err != nil {
		t.Fatalf("move: ok=%v err=%v", ok, err)
	}
	if e.Selected() != b {
		t.Fatalf("selected %d, want collapsed parent %d", e.Selected(), b)
	}
}

func TestUndo_RepairsSelectionHiddenByFilter(t *testing.T) {
	e := newEngine()
	a, b, _ := buildABC(t, e)
	e.ToggleDone(a)
	e.Select(a)
	e.ToggleCollapsed(b)
	e.SetShowCompleted(false)
	if e.Selected() != model.NoTask {
		t.Fatalf("filter: selected %d, want none", e.Selected())
	}

	if _, ok := e.Undo(); !ok {
		t.Fatalf("expected undo")
	}
	if sel := e.Selected(); sel.Valid() && !e.View().Visible(sel) {
		t.Fatalf("undo left selection %d on a hidden task", sel)
	}
}

func TestSetText(t *testing.T) {
	e := newEngine()
	a := e.Add("A", model.PlaceSibling)
	if e.SetText(a, "A") {
		t.Fatalf("same text must be a no-op")
	}
	if !e.SetText(a, "renamed") {
		t.Fatalf("expected change")
	}
	if ta, _ := e.Task(a); ta.Text != "renamed" {
		t.Fatalf("got %q", ta.Text)
	}
}

func TestUndo_EmptyHistory(t *testing.T) {
	e := newEngine()
	if _, ok := e.Undo(); ok {
		t.Fatalf("expected ok=false")
	}
}

func TestUndo_RestoresExactPriorState(t *testing.T) {
	e := newEngine()
	buildABC(t, e)
	before := e.Document().Clone()

	e.Add("D", model.PlaceChild)
	e.Undo()

	if !reflect.DeepEqual(e.Document(), before) {
		t.Fatalf("undo did not restore prior state")
	}
}

func TestHistory_BoundedDepth(t *testing.T) {
	e := New(store.NewDocument(), store.DefaultSettings(), WithHistory(history.New(3)))
	for i := 0; i < 10; i++ {
		e.Add("t", model.PlaceSibling)
	}
	undone := 0
	for {
		if _, ok := e.Undo(); !ok {
			break
		}
		undone++
	}
	if undone != 3 {
		t.Fatalf("expected 3 undos; got %d", undone)
	}
	if got := e.Document().Len(); got != 7 {
		t.Fatalf("expected 7 tasks left; got %d", got)
	}
}

func TestSelectionChangesDoNotSnapshot(t *testing.T) {
	e := newEngine()
	buildABC(t, e)
	depth := e.History().Len()
	e.MarkSaved()

	e.SelectFirst()
	e.SelectRelative(1)
	e.SelectLast()
	e.CycleSortMode()
	e.SetShowCompleted(false)

	if e.History().Len() != depth || e.Dirty() {
		t.Fatalf("selection and settings must not snapshot or mark dirty")
	}
}

func TestSelectRelative_Clamps(t *testing.T) {
	e := newEngine()
	a, b, c := buildABC(t, e)
	e.Select(model.NoTask)

	e.SelectRelative(1)
	if e.Selected() != a {
		t.Fatalf("expected first row; got %d", e.Selected())
	}
	e.SelectRelative(10)
	if e.Selected() != c {
		t.Fatalf("expected last row; got %d", e.Selected())
	}
	e.SelectRelative(-1)
	if e.Selected() != b {
		t.Fatalf("expected B; got %d", e.Selected())
	}
}

func TestIndentOutdentAndReorder(t *testing.T) {
	e := newEngine()
	a, b, c := buildABC(t, e)
	doc := e.Document()

	if ok, err := e.Indent(b); !ok || err != nil {
		t.Fatalf("indent: ok=%v err=%v", ok, err)
	}
	if got := doc.ChildrenOf(a); !reflect.DeepEqual(got, []model.TaskID{b}) {
		t.Fatalf("children of A: got %v", got)
	}
	if ok, _ := e.Indent(a); ok {
		t.Fatalf("first root cannot indent")
	}
	if ok, err := e.Outdent(b); !ok || err != nil {
		t.Fatalf("outdent: ok=%v err=%v", ok, err)
	}
	if got := doc.RootIDs(); !reflect.DeepEqual(got, []model.TaskID{a, b}) {
		t.Fatalf("roots: got %v", got)
	}
	if ok, _ := e.Outdent(a); ok {
		t.Fatalf("root cannot outdent")
	}
	if ok, _ := e.MoveUp(b); !ok {
		t.Fatalf("move up")
	}
	if got := doc.RootIDs(); !reflect.DeepEqual(got, []model.TaskID{b, a}) {
		t.Fatalf("roots: got %v", got)
	}
	if ok, _ := e.MoveDown(b); !ok {
		t.Fatalf("move down")
	}
	if ok, _ := e.MoveDown(b); ok {
		t.Fatalf("last sibling cannot move down")
	}
	if got := doc.ChildrenOf(b); !reflect.DeepEqual(got, []model.TaskID{c}) {
		t.Fatalf("children of B: got %v", got)
	}
}

func TestReplace_ClearsHistoryAndDirty(t *testing.T) {
	e := newEngine()
	a, _, _ := buildABC(t, e)
	e.Select(a)

	next := store.NewDocument()
	next.Create("fresh")
	e.Replace(next)

	if e.History().Len() != 0 || e.Dirty() {
		t.Fatalf("expected clean state after replace")
	}
	if e.Document().Len() != 1 {
		t.Fatalf("expected replaced document")
	}
	if e.Selected() != a {
		t.Fatalf("expected selection kept when the id still exists; got %d", e.Selected())
	}
}
