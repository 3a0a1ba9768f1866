package tui

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSplitShellWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"vim", []string{"vim"}},
		{"code --wait", []string{"code", "--wait"}},
		{"  hx   ", []string{"hx"}},
		{"vim -u 'foo bar'", []string{"vim", "-u", "foo bar"}},
		{"vim -c \"set ft=text\"", []string{"vim", "-c", "set ft=text"}},
		{"vim\\ -u\\ foo", []string{"vim -u foo"}},
	}

	for _, tt := range tests {
		if got := splitShellWords(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("splitShellWords(%q)=%v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestApplyExternalEditorResult(t *testing.T) {
	m := newTestModel(t)
	m.addTask("a", "before")
	id := m.eng.Selected()

	path := filepath.Join(t.TempDir(), "edited.txt")
	if err := os.WriteFile(path, []byte("after\nsecond line\n"), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	m.Update(externalEditorDoneMsg{id: id, path: path})

	if tk, _ := m.eng.Task(id); tk.Text != "after second line" {
		t.Fatalf("text = %q", tk.Text)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be removed, stat err=%v", err)
	}
	if label, ok := m.eng.Undo(); !ok || label != "edit" {
		t.Fatalf("editor result should be undoable, got %q %v", label, ok)
	}
}

func TestApplyExternalEditorResult_ErrorKeepsText(t *testing.T) {
	m := newTestModel(t)
	m.addTask("a", "keep")
	id := m.eng.Selected()
	path := filepath.Join(t.TempDir(), "x.txt")
	_ = os.WriteFile(path, []byte("changed"), 0o600)

	m.Update(externalEditorDoneMsg{id: id, path: path, err: errors.New("exit status 1")})
	if tk, _ := m.eng.Task(id); tk.Text != "keep" || !m.warn {
		t.Fatalf("text = %q warn=%v", tk.Text, m.warn)
	}
}

func TestCopySelection_UsesMarkdown(t *testing.T) {
	var got string
	orig := copyToClipboard
	copyToClipboard = func(s string) error { got = s; return nil }
	t.Cleanup(func() { copyToClipboard = orig })

	m := newTestModel(t)
	m.addTask("a", "parent")
	m.addTask("A", "kid")
	m.typeKeys("y")
	if got != "- [ ] parent\n  - [ ] kid\n" {
		t.Fatalf("clipboard = %q", got)
	}
	if m.status != "copied 2 lines" {
		t.Fatalf("status = %q", m.status)
	}
}
