package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down, Top, Bottom       key.Binding
	AddSibling, AddChild, AddUp key.Binding
	Edit, Done, Collapse        key.Binding
	ExternalEdit, Copy          key.Binding
	Delete, Undo                key.Binding
	MoveUp, MoveDown            key.Binding
	Indent, Outdent             key.Binding
	ShowCompleted, Sort         key.Binding
	Save, Help, Quit            key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:            key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:          key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Top:           key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "first")),
		Bottom:        key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last")),
		AddSibling:    key.NewBinding(key.WithKeys("a", "o"), key.WithHelp("a", "add below")),
		AddChild:      key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "add child")),
		AddUp:         key.NewBinding(key.WithKeys("O"), key.WithHelp("O", "add at parent level")),
		Edit:          key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		ExternalEdit:  key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "edit in $EDITOR")),
		Done:          key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x", "toggle done")),
		Collapse:      key.NewBinding(key.WithKeys("z", "tab"), key.WithHelp("z", "fold")),
		Delete:        key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Undo:          key.NewBinding(key.WithKeys("u", "ctrl+z"), key.WithHelp("u", "undo")),
		MoveUp:        key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
		MoveDown:      key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
		Indent:        key.NewBinding(key.WithKeys(">", "l"), key.WithHelp(">", "indent")),
		Outdent:       key.NewBinding(key.WithKeys("<", "h"), key.WithHelp("<", "outdent")),
		ShowCompleted: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "show/hide done")),
		Sort:          key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Copy:          key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy subtree as markdown")),
		Save:          key.NewBinding(key.WithKeys("w", "ctrl+s"), key.WithHelp("w", "save")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "save & quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.AddSibling, k.Edit, k.Done, k.Delete, k.Undo, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.AddSibling, k.AddChild, k.AddUp, k.Edit, k.ExternalEdit},
		{k.Done, k.Collapse, k.Delete, k.Undo},
		{k.MoveUp, k.MoveDown, k.Indent, k.Outdent},
		{k.ShowCompleted, k.Sort, k.Copy, k.Save, k.Quit},
	}
}
