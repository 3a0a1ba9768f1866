package tui

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"nestdo/internal/docs"
)

var (
	mdMu        sync.Mutex
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// renderMarkdown renders md for the help screen. Renderers are cached per
// style and width; WithAutoStyle is avoided since it queries the terminal.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	width = max(width, 20)
	style := markdownStyle()
	k := style + ":" + strconv.Itoa(width)

	mdMu.Lock()
	defer mdMu.Unlock()
	r := mdRenderers[k]
	if r == nil {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers[k] = r
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// helpMarkdown documents the keys, then the mouse from the drag-drop topic.
func helpMarkdown(k keyMap) string {
	var b strings.Builder
	b.WriteString("# nestdo\n\n")
	b.WriteString("| key | action |\n|---|---|\n")
	for _, group := range k.FullHelp() {
		for _, kb := range group {
			h := kb.Help()
			b.WriteString("| `" + h.Key + "` | " + h.Desc + " |\n")
		}
	}
	if body, ok := docs.Get("drag-drop"); ok {
		// Demote the topic heading under the key table.
		b.WriteString("\n#" + strings.TrimSpace(body) + "\n\n")
	}
	b.WriteString("Press `?` or `esc` to close.\n")
	return b.String()
}
