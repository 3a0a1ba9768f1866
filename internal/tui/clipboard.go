package tui

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"

	"nestdo/internal/publish"
)

// copyToClipboard is a variable so tests can capture the text.
var copyToClipboard = func(s string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard program found")
	}
	return clipboard.WriteAll(strings.ReplaceAll(s, "\r\n", "\n"))
}

// copySelection puts the selected subtree on the clipboard as a markdown
// checklist.
func (m *appModel) copySelection() {
	sel := m.eng.Selected()
	if !sel.Valid() {
		m.setStatus("nothing selected")
		return
	}
	md, err := publish.RenderMarkdown(m.eng.Document(), publish.RenderOptions{Root: sel})
	if err != nil {
		m.setWarn("copy: %v", err)
		return
	}
	if err := copyToClipboard(md); err != nil {
		m.setWarn("copy: %v", err)
		return
	}
	m.setStatus("copied %d lines", strings.Count(md, "\n"))
}
