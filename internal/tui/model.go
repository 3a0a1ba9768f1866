package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"nestdo/internal/drop"
	"nestdo/internal/logging"
	"nestdo/internal/model"
	"nestdo/internal/mutate"
	"nestdo/internal/projection"
	"nestdo/internal/store"
	"nestdo/internal/watcher"
)

const (
	indentWidth = 2
	// glyph (2) + checkbox (4)
	gutterWidth = 6
	headerLines = 1
	footerLines = 2
)

type mode int

const (
	modeNormal mode = iota
	modeAdd
	modeEdit
	modeHelp
)

type fileChangedMsg struct{}

type appModel struct {
	eng     *mutate.Engine
	store   store.Store
	watch   *watcher.Watcher
	log     *slog.Logger
	resolve drop.Resolver

	keys  keyMap
	help  help.Model
	input textinput.Model
	st    styles

	mode      mode
	placement model.Placement
	width     int
	height    int
	scroll    int // first visible line of the body
	status    string
	warn      bool
	savedMod  int64
	rowHeight int
	drag      dragState
	quitting  bool
}

// Options wires the TUI to an engine and its backing files.
type Options struct {
	Engine        *mutate.Engine
	Store         store.Store
	Watcher       *watcher.Watcher
	Logger        *slog.Logger
	DropThreshold float64
	// RowHeight is the minimum number of lines per row.
	RowHeight int
}

func newAppModel(o Options) *appModel {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 500
	log := o.Logger
	if log == nil {
		log = logging.Discard()
	}
	m := &appModel{
		eng:       o.Engine,
		store:     o.Store,
		watch:     o.Watcher,
		log:       log,
		resolve:   drop.New(o.DropThreshold),
		keys:      defaultKeyMap(),
		help:      help.New(),
		input:     in,
		st:        newStyles(),
		width:     80,
		height:    24,
		savedMod:  o.Store.ModTime(),
		rowHeight: max(1, o.RowHeight),
	}
	m.eng.SelectFirst()
	m.setWidth(m.width)
	return m
}

func (m *appModel) Init() tea.Cmd {
	return m.waitForChange()
}

func (m *appModel) waitForChange() tea.Cmd {
	if m.watch == nil {
		return nil
	}
	ch := m.watch.Changed()
	return func() tea.Msg {
		<-ch
		return fileChangedMsg{}
	}
}

func (m *appModel) setWidth(w int) {
	m.width = w
	m.help.Width = w
	m.input.Width = max(10, w-12)
	wrap, minH := projection.WrapHeight(w, indentWidth, gutterWidth), m.rowHeight
	m.eng.View().SetRowHeight(func(t *model.Task, depth int) int {
		return max(minH, wrap(t, depth))
	})
}

func (m *appModel) bodyHeight() int {
	return max(1, m.height-headerLines-footerLines)
}

func (m *appModel) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.warn = false
}

func (m *appModel) setWarn(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.warn = true
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.setWidth(msg.Width)
		m.ensureVisible()
		return m, nil
	case fileChangedMsg:
		m.reloadFromDisk()
		return m, m.waitForChange()
	case externalEditorDoneMsg:
		m.applyExternalEditorResult(msg)
		m.ensureVisible()
		return m, nil
	case tea.MouseMsg:
		if m.mode == modeNormal {
			m.updateMouse(msg)
		}
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeAdd, modeEdit:
			return m.updateInput(msg)
		case modeHelp:
			if msg.String() == "esc" || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
				m.mode = modeNormal
			}
			return m, nil
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m *appModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel := m.eng.Selected()
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		if err := m.save(); err != nil {
			m.setWarn("save failed: %v", err)
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.eng.SelectRelative(-1)
	case key.Matches(msg, m.keys.Down):
		m.eng.SelectRelative(1)
	case key.Matches(msg, m.keys.Top):
		m.eng.SelectFirst()
	case key.Matches(msg, m.keys.Bottom):
		m.eng.SelectLast()
	case key.Matches(msg, m.keys.AddSibling):
		return m, m.startInput(modeAdd, model.PlaceSibling, "")
	case key.Matches(msg, m.keys.AddChild):
		return m, m.startInput(modeAdd, model.PlaceChild, "")
	case key.Matches(msg, m.keys.AddUp):
		return m, m.startInput(modeAdd, model.PlaceParentLevel, "")
	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.eng.Task(sel); ok {
			return m, m.startInput(modeEdit, 0, t.Text)
		}
	case key.Matches(msg, m.keys.ExternalEdit):
		return m, m.openExternalEditor()
	case key.Matches(msg, m.keys.Copy):
		m.copySelection()
	case key.Matches(msg, m.keys.Done):
		m.eng.ToggleDone(sel)
	case key.Matches(msg, m.keys.Collapse):
		m.eng.ToggleCollapsed(sel)
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.eng.Task(sel); ok {
			text := t.Text
			next := m.neighbor(sel)
			if m.eng.Delete(sel) {
				m.eng.Select(next)
				m.setStatus("deleted %q (u to undo)", text)
			}
		}
	case key.Matches(msg, m.keys.Undo):
		if label, ok := m.eng.Undo(); ok {
			m.setStatus("undid %s", label)
		} else {
			m.setStatus("nothing to undo")
		}
	case key.Matches(msg, m.keys.MoveUp):
		m.report(m.eng.MoveUp(sel))
	case key.Matches(msg, m.keys.MoveDown):
		m.report(m.eng.MoveDown(sel))
	case key.Matches(msg, m.keys.Indent):
		m.report(m.eng.Indent(sel))
	case key.Matches(msg, m.keys.Outdent):
		m.report(m.eng.Outdent(sel))
	case key.Matches(msg, m.keys.ShowCompleted):
		show := !m.eng.Settings().ShowCompleted
		m.eng.SetShowCompleted(show)
		m.saveSettings()
		if show {
			m.setStatus("showing completed tasks")
		} else {
			m.setStatus("hiding completed tasks")
		}
	case key.Matches(msg, m.keys.Sort):
		next := m.eng.CycleSortMode()
		m.saveSettings()
		m.setStatus("sort: %s", next)
	case key.Matches(msg, m.keys.Save):
		if err := m.save(); err != nil {
			m.setWarn("save failed: %v", err)
		} else {
			m.setStatus("saved %s", m.store.Path)
		}
	case key.Matches(msg, m.keys.Help):
		m.mode = modeHelp
	}
	m.ensureVisible()
	return m, nil
}

// neighbor picks the row to select after id disappears: the next visible
// row outside id's subtree, else the one before it.
func (m *appModel) neighbor(id model.TaskID) model.TaskID {
	rows := m.eng.Rows()
	i := m.eng.View().Index(id)
	if i < 0 {
		return model.NoTask
	}
	doc := m.eng.Document()
	for j := i + 1; j < len(rows); j++ {
		if !doc.IsDescendantOrSelf(rows[j].ID, id) {
			return rows[j].ID
		}
	}
	if i > 0 {
		return rows[i-1].ID
	}
	return model.NoTask
}

func (m *appModel) report(changed bool, err error) {
	if err != nil {
		m.setWarn("%v", err)
		return
	}
	if !changed {
		m.setStatus("nothing to move")
	}
}

func (m *appModel) startInput(md mode, p model.Placement, value string) tea.Cmd {
	m.mode = md
	m.placement = p
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *appModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.input.Blur()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		switch {
		case text == "":
		case m.mode == modeAdd:
			m.eng.Add(text, m.placement)
		case m.mode == modeEdit:
			m.eng.SetText(m.eng.Selected(), text)
		}
		m.mode = modeNormal
		m.input.Blur()
		m.ensureVisible()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *appModel) save() error {
	if !m.eng.Dirty() {
		return nil
	}
	if err := m.store.Save(m.eng.Document()); err != nil {
		return err
	}
	m.eng.MarkSaved()
	m.savedMod = m.store.ModTime()
	m.log.Info("saved", "path", m.store.Path, "tasks", m.eng.Document().Len())
	return nil
}

func (m *appModel) saveSettings() {
	if err := m.store.SaveSettings(m.eng.Settings()); err != nil {
		m.setWarn("save settings: %v", err)
		m.log.Warn("save settings", "error", err)
	}
}

// reloadFromDisk picks up edits made by another program. Unsaved local
// changes win; the user is told instead.
func (m *appModel) reloadFromDisk() {
	mod := m.store.ModTime()
	if mod == m.savedMod {
		return
	}
	if m.eng.Dirty() {
		m.setWarn("file changed on disk; w overwrites it")
		return
	}
	doc, rep, err := m.store.Load()
	if err != nil {
		m.setWarn("reload: %v", err)
		m.log.Warn("reload", "error", err)
		return
	}
	m.eng.Replace(doc)
	m.savedMod = mod
	if len(rep.Skipped) > 0 {
		m.setWarn("reloaded; skipped %d malformed lines", len(rep.Skipped))
	} else {
		m.setStatus("reloaded %d tasks", rep.Tasks)
	}
	m.log.Info("reloaded", "path", m.store.Path, "tasks", rep.Tasks, "skipped", len(rep.Skipped))
	m.ensureVisible()
}

// rowTop returns the body line where row i starts.
func rowTop(rows []model.DisplayRow, i int) int {
	top := 0
	for _, r := range rows[:i] {
		top += r.Height
	}
	return top
}

func (m *appModel) ensureVisible() {
	rows := m.eng.Rows()
	i := m.eng.View().Index(m.eng.Selected())
	if i < 0 {
		m.scroll = min(m.scroll, max(0, m.eng.View().TotalHeight()-m.bodyHeight()))
		return
	}
	top := rowTop(rows, i)
	bottom := top + rows[i].Height
	switch {
	case top < m.scroll:
		m.scroll = top
	case bottom > m.scroll+m.bodyHeight():
		m.scroll = bottom - m.bodyHeight()
	}
	m.scroll = max(0, m.scroll)
}

func (m *appModel) View() string {
	if m.quitting {
		return ""
	}
	if m.mode == modeHelp {
		return renderMarkdown(helpMarkdown(m.keys), m.width)
	}
	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteByte('\n')
	b.WriteString(m.viewBody())
	b.WriteByte('\n')
	b.WriteString(m.viewFooter())
	return b.String()
}

func (m *appModel) viewHeader() string {
	s := m.eng.Settings()
	title := m.st.header.Render("nestdo")
	sortTag := m.st.headerTag.Render(string(s.SortMode))
	doneTag := "done: shown"
	if !s.ShowCompleted {
		doneTag = "done: hidden"
	}
	dirty := ""
	if m.eng.Dirty() {
		dirty = " " + glyphDirty()
	}
	line := title + dirty + "  " + sortTag + " " + m.st.status.Render(doneTag)
	return xansi.Truncate(line, m.width, "…")
}

func (m *appModel) viewBody() string {
	rows := m.eng.Rows()
	var lines []string
	if len(rows) == 0 {
		lines = append(lines, m.st.status.Render("no tasks; press a to add one"))
	}
	for _, r := range rows {
		t, ok := m.eng.Task(r.ID)
		if !ok {
			continue
		}
		lines = append(lines, m.renderRow(t, r)...)
	}
	h := m.bodyHeight()
	start := min(m.scroll, len(lines))
	end := min(start+h, len(lines))
	visible := lines[start:end]
	for len(visible) < h {
		visible = append(visible, "")
	}
	return strings.Join(visible, "\n")
}

func (m *appModel) renderRow(t *model.Task, r model.DisplayRow) []string {
	indent := strings.Repeat(" ", r.Depth*indentWidth)
	glyph := "  "
	switch {
	case t.HasChildren() && t.Collapsed:
		glyph = glyphTwistyCollapsed() + " "
	case t.HasChildren():
		glyph = glyphTwistyExpanded() + " "
	}
	box := glyphCheckbox(t.Done) + " "
	avail := max(1, m.width-r.Depth*indentWidth-gutterWidth)
	wrapped := projection.WrapLines(t.Text, avail)
	for len(wrapped) < r.Height {
		wrapped = append(wrapped, "")
	}
	wrapped = wrapped[:max(1, r.Height)]

	textStyle := m.st.row
	switch {
	case m.drag.active && m.drag.id == t.ID:
		textStyle = m.st.dragged
	case t.Done:
		textStyle = m.st.done
	}
	target, hasTarget := m.drag.target, m.drag.active && m.drag.hasTarget && m.drag.target.ID == t.ID
	if hasTarget && target.Position == model.Child {
		textStyle = m.st.dropChild
	}

	out := make([]string, 0, len(wrapped))
	for i, part := range wrapped {
		prefix := indent + strings.Repeat(" ", gutterWidth)
		if i == 0 {
			prefix = indent + m.st.glyph.Render(glyph) + box
		}
		line := prefix + textStyle.Render(part)
		if t.ID == m.eng.Selected() {
			line = m.st.selected.Render(xansi.Strip(prefix) + part)
			if pad := m.width - xansi.StringWidth(line); pad > 0 {
				line += m.st.selected.Render(strings.Repeat(" ", pad))
			}
		}
		out = append(out, xansi.Truncate(line, m.width, ""))
	}
	if hasTarget {
		marker := m.st.dropLine.Render(indent + strings.Repeat(glyphHRule(), max(1, m.width-len(indent))))
		switch target.Position {
		case model.Before:
			out[0] = xansi.Truncate(marker, m.width, "")
		case model.After:
			out[len(out)-1] = xansi.Truncate(marker, m.width, "")
		}
	}
	return out
}

func (m *appModel) viewFooter() string {
	var line string
	switch m.mode {
	case modeAdd:
		line = m.st.prompt.Render(m.placement.String()+": ") + m.input.View()
	case modeEdit:
		line = m.st.prompt.Render("edit: ") + m.input.View()
	default:
		if m.status != "" {
			st := m.st.status
			if m.warn {
				st = m.st.warn
			}
			line = st.Render(m.status)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		xansi.Truncate(line, m.width, "…"),
		m.help.View(m.keys),
	)
}

// Run starts the interactive outliner and saves on quit.
func Run(ctx context.Context, o Options) error {
	applyThemePreference()
	applyColorProfilePreference()
	applyGlyphPreference()
	if o.Watcher != nil {
		if err := o.Watcher.Start(ctx); err != nil {
			return err
		}
		defer o.Watcher.Stop()
	}
	m := newAppModel(o)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)).Run()
	return err
}
