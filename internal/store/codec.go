package store

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"nestdo/internal/model"
)

// Task file schema, one task per line:
//
//	id:parent_id_or_empty:text:done:order:collapsed
//
// Text sits in the middle, so the two leading and three trailing fields are
// split off first.
const (
	fieldSep    = ":"
	fieldCount  = 6
	maxLineSize = 1 << 20
)

// SkippedLine records a line that did not match the schema.
type SkippedLine struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type DecodeReport struct {
	Tasks   int           `json:"tasks"`
	Skipped []SkippedLine `json:"skipped,omitempty"`
}

// record is a task as it appears in persisted form, before tree assembly.
type record struct {
	id        model.TaskID
	parent    model.TaskID
	text      string
	done      bool
	order     int
	collapsed bool
	seq       int
}

func parseRecord(line string) (record, error) {
	parts := strings.Split(line, fieldSep)
	if len(parts) < fieldCount {
		return record{}, fmt.Errorf("expected %d fields, got %d", fieldCount, len(parts))
	}
	n := len(parts)
	var r record

	id, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || id <= 0 {
		return record{}, fmt.Errorf("invalid id %q", parts[0])
	}
	r.id = model.TaskID(id)

	if p := strings.TrimSpace(parts[1]); p != "" {
		pid, err := strconv.Atoi(p)
		if err != nil {
			return record{}, fmt.Errorf("invalid parent id %q", parts[1])
		}
		r.parent = model.TaskID(pid)
	}

	r.text = strings.Join(parts[2:n-3], fieldSep)

	if r.done, err = parseBoolField(parts[n-3]); err != nil {
		return record{}, fmt.Errorf("done: %w", err)
	}
	if r.order, err = strconv.Atoi(strings.TrimSpace(parts[n-2])); err != nil {
		return record{}, fmt.Errorf("invalid order %q", parts[n-2])
	}
	if r.collapsed, err = parseBoolField(parts[n-1]); err != nil {
		return record{}, fmt.Errorf("collapsed: %w", err)
	}
	return r, nil
}

func parseBoolField(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("expected true|false, got %q", s)
	}
}

// DecodeLines builds a document from raw task lines. Lines that do not match
// the schema are skipped and listed in the report; they never fail the load.
func DecodeLines(lines []string) (*Document, DecodeReport) {
	var rep DecodeReport
	recs := make([]record, 0, len(lines))
	seen := map[model.TaskID]bool{}
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		r, err := parseRecord(line)
		if err != nil {
			rep.Skipped = append(rep.Skipped, SkippedLine{Line: i + 1, Reason: err.Error()})
			continue
		}
		if seen[r.id] {
			rep.Skipped = append(rep.Skipped, SkippedLine{Line: i + 1, Reason: fmt.Sprintf("duplicate id %d", r.id)})
			continue
		}
		seen[r.id] = true
		r.seq = i
		recs = append(recs, r)
	}
	doc := assemble(recs)
	rep.Tasks = doc.Len()
	return doc, rep
}

// Decode reads task lines from r. Only read failures are returned as errors.
func Decode(r io.Reader) (*Document, DecodeReport, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, DecodeReport{}, fmt.Errorf("read tasks: %w", err)
	}
	doc, rep := DecodeLines(lines)
	return doc, rep, nil
}

// assemble runs the two-pass load: every record becomes a task first, then
// children and roots are rebuilt purely from parent ids. Unresolvable parents
// make the task a root. Tasks caught in a parent cycle are reattached as
// roots so the tree stays acyclic.
func assemble(recs []record) *Document {
	doc := NewDocument()
	for _, r := range recs {
		doc.Tasks[r.id] = &model.Task{
			ID:        r.id,
			Text:      r.text,
			Done:      r.done,
			Order:     r.order,
			Collapsed: r.collapsed,
		}
		if r.id >= doc.NextID {
			doc.NextID = r.id + 1
		}
	}

	byOrder := func(seq map[model.TaskID]int) func(a, b model.TaskID) int {
		return func(a, b model.TaskID) int {
			ta, tb := doc.Tasks[a], doc.Tasks[b]
			if c := cmp.Compare(ta.Order, tb.Order); c != 0 {
				return c
			}
			return cmp.Compare(seq[a], seq[b])
		}
	}
	seq := make(map[model.TaskID]int, len(recs))
	for _, r := range recs {
		seq[r.id] = r.seq
		if r.parent != r.id && doc.Has(r.parent) {
			p := doc.Tasks[r.parent]
			p.Children = append(p.Children, r.id)
			doc.Tasks[r.id].ParentID = r.parent
			continue
		}
		doc.Roots = append(doc.Roots, r.id)
	}

	// Break parent cycles: anything unreachable from the roots is in one.
	reach := map[model.TaskID]bool{}
	mark := func(id model.TaskID) {
		for _, x := range doc.Subtree(id) {
			reach[x] = true
		}
	}
	for _, id := range doc.Roots {
		mark(id)
	}
	for _, r := range recs {
		if reach[r.id] {
			continue
		}
		t := doc.Tasks[r.id]
		if p, ok := doc.Get(t.ParentID); ok {
			p.Children = slices.DeleteFunc(p.Children, func(x model.TaskID) bool { return x == r.id })
		}
		t.ParentID = model.NoTask
		doc.Roots = append(doc.Roots, r.id)
		mark(r.id)
	}

	sorted := byOrder(seq)
	slices.SortStableFunc(doc.Roots, sorted)
	for _, t := range doc.Tasks {
		slices.SortStableFunc(t.Children, sorted)
	}
	return doc
}

// EncodeLine renders one task in the file schema.
func EncodeLine(t *model.Task) string {
	parent := ""
	if t.ParentID.Valid() {
		parent = strconv.Itoa(int(t.ParentID))
	}
	return strings.Join([]string{
		strconv.Itoa(int(t.ID)),
		parent,
		t.Text,
		strconv.FormatBool(t.Done),
		strconv.Itoa(t.Order),
		strconv.FormatBool(t.Collapsed),
	}, fieldSep)
}

// Encode writes every task in pre-order from the roots.
func Encode(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)
	written := map[model.TaskID]bool{}
	write := func(id model.TaskID) error {
		t, ok := doc.Get(id)
		if !ok || written[id] {
			return nil
		}
		written[id] = true
		_, err := bw.WriteString(EncodeLine(t) + "\n")
		return err
	}
	for _, root := range doc.Roots {
		for _, id := range doc.Subtree(root) {
			if err := write(id); err != nil {
				return err
			}
		}
	}
	// Anything not reachable from the roots is still persisted.
	rest := make([]model.TaskID, 0)
	for id := range doc.Tasks {
		if !written[id] {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	for _, id := range rest {
		if err := write(id); err != nil {
			return err
		}
	}
	return bw.Flush()
}
