// Package publish renders a task tree as a markdown checklist.
package publish

import (
	"bytes"
	"fmt"
	"strings"

	"nestdo/internal/model"
	"nestdo/internal/store"
)

type RenderOptions struct {
	// Root limits the output to one subtree; NoTask renders every root.
	Root model.TaskID
	// SkipDone leaves completed tasks (and their subtrees) out.
	SkipDone bool
	// Title adds a level-one heading.
	Title string
}

// RenderMarkdown writes one "- [ ] text" line per task, nested two spaces
// per level, in stored sibling order.
func RenderMarkdown(doc *store.Document, opt RenderOptions) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("missing document")
	}
	roots := doc.Roots
	if opt.Root.Valid() {
		if !doc.Has(opt.Root) {
			return "", fmt.Errorf("task not found: %d", opt.Root)
		}
		roots = []model.TaskID{opt.Root}
	}

	var buf bytes.Buffer
	if t := strings.TrimSpace(opt.Title); t != "" {
		buf.WriteString("# " + t + "\n\n")
	}

	type frame struct {
		id    model.TaskID
		depth int
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: roots[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t, ok := doc.Get(f.id)
		if !ok || (opt.SkipDone && t.Done) {
			continue
		}
		renderTaskLine(&buf, t, f.depth)
		for i := len(t.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: t.Children[i], depth: f.depth + 1})
		}
	}
	return buf.String(), nil
}

func renderTaskLine(buf *bytes.Buffer, t *model.Task, depth int) {
	box := " "
	if t.Done {
		box = "x"
	}
	fmt.Fprintf(buf, "%s- [%s] %s\n", strings.Repeat("  ", depth), box, strings.TrimSpace(t.Text))
}
