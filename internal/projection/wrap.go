package projection

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"nestdo/internal/model"
)

// WrapHeight returns a HeightFunc for a surface width columns wide: each
// depth level costs indent columns plus gutter columns of decoration, and
// text longer than the remaining width wraps onto extra lines. The height is
// always the line count WrapLines produces for the same width.
func WrapHeight(width, indent, gutter int) HeightFunc {
	return func(t *model.Task, depth int) int {
		avail := width - depth*indent - gutter
		return max(DefaultRowHeight, len(WrapLines(t.Text, avail)))
	}
}

// WrapLines breaks s into lines at most width cells wide. A wide rune that
// does not fit starts the next line; a rune wider than width gets a line of
// its own.
func WrapLines(s string, width int) []string {
	width = max(1, width)
	var lines []string
	var b strings.Builder
	w := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if w > 0 && w+rw > width {
			lines = append(lines, b.String())
			b.Reset()
			w = 0
		}
		b.WriteRune(r)
		w += rw
	}
	return append(lines, b.String())
}
