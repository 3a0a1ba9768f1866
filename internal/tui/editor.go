package tui

import (
	"os"
	"os/exec"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"nestdo/internal/model"
)

type externalEditorDoneMsg struct {
	id   model.TaskID
	path string
	err  error
}

func externalEditorName() string {
	for _, k := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return "vi"
}

// openExternalEditor writes the selected task's text to a temp file and
// hands the terminal to $VISUAL/$EDITOR until it exits.
func (m *appModel) openExternalEditor() tea.Cmd {
	id := m.eng.Selected()
	t, ok := m.eng.Task(id)
	if !ok {
		return nil
	}
	args := splitShellWords(externalEditorName())
	if len(args) == 0 {
		args = []string{"vi"}
	}
	f, err := os.CreateTemp("", "nestdo-task-*.txt")
	if err != nil {
		m.setWarn("editor: %v", err)
		return nil
	}
	path := f.Name()
	_, err = f.WriteString(t.Text + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		m.setWarn("editor: %v", err)
		return nil
	}

	cmd := exec.Command(args[0], append(args[1:], path)...)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return externalEditorDoneMsg{id: id, path: path, err: err}
	})
}

// applyExternalEditorResult sets the task text from the edited file. Lines
// are joined with spaces; an empty result leaves the task unchanged.
func (m *appModel) applyExternalEditorResult(msg externalEditorDoneMsg) {
	defer func() { _ = os.Remove(msg.path) }()
	if msg.err != nil {
		m.setWarn("%s failed: %v", externalEditorName(), msg.err)
		return
	}
	b, err := os.ReadFile(msg.path)
	if err != nil {
		m.setWarn("editor read failed: %v", err)
		return
	}
	text := strings.Join(strings.Fields(string(b)), " ")
	switch {
	case text == "":
		m.setStatus("empty text; task unchanged")
	case m.eng.SetText(msg.id, text):
		m.setStatus("updated from %s", externalEditorName())
	default:
		m.setStatus("no changes from %s", externalEditorName())
	}
}

// splitShellWords splits a command line into argv. It understands single
// quotes, double quotes and backslash escapes outside single quotes.
func splitShellWords(s string) []string {
	var (
		out            []string
		cur            strings.Builder
		inWord         bool
		single, double bool
		escaped        bool
	)
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && !single:
			escaped, inWord = true, true
		case r == '\'' && !double:
			single, inWord = !single, true
		case r == '"' && !single:
			double, inWord = !double, true
		case unicode.IsSpace(r) && !single && !double:
			if cur.Len() > 0 {
				out = append(out, cur.String())
			}
			cur.Reset()
			inWord = false
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if inWord && cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
