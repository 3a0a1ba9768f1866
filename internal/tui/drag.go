package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"nestdo/internal/model"
	"nestdo/internal/mutate"
)

// dragState tracks a mouse drag from press to release.
type dragState struct {
	active    bool
	moved     bool
	id        model.TaskID
	target    model.DropTarget
	hasTarget bool
}

// originY is the screen line of the first row's top, scroll included.
func (m *appModel) originY() int {
	return headerLines - m.scroll
}

func (m *appModel) rowAt(y int) (model.TaskID, bool) {
	rows := m.eng.Rows()
	top := m.originY()
	for _, r := range rows {
		if y >= top && y < top+r.Height {
			return r.ID, true
		}
		top += r.Height
	}
	return model.NoTask, false
}

func (m *appModel) updateMouse(msg tea.MouseMsg) {
	bodyTop, bodyBottom := headerLines, headerLines+m.bodyHeight()
	inBody := msg.Y >= bodyTop && msg.Y < bodyBottom

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scroll = max(0, m.scroll-1)
	case msg.Button == tea.MouseButtonWheelDown:
		m.scroll = min(m.scroll+1, max(0, m.eng.View().TotalHeight()-m.bodyHeight()))

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if !inBody {
			return
		}
		if id, ok := m.rowAt(msg.Y); ok {
			m.eng.Select(id)
			m.drag = dragState{active: true, id: id}
		}

	case msg.Action == tea.MouseActionMotion && m.drag.active:
		m.drag.moved = true
		m.drag.target, m.drag.hasTarget = model.DropTarget{}, false
		if inBody {
			m.drag.target, m.drag.hasTarget = m.resolve.ResolveCell(msg.X, msg.Y, m.originY(), m.eng.Rows(), indentWidth, m.width)
		}

	case msg.Action == tea.MouseActionRelease && m.drag.active:
		d := m.drag
		m.drag = dragState{}
		if !d.moved || !d.hasTarget || d.target.ID == d.id {
			return
		}
		m.dropOn(d.id, d.target)
	}
}

func (m *appModel) dropOn(id model.TaskID, target model.DropTarget) {
	changed, err := m.eng.Move(id, target.ID, target.Position)
	switch {
	case mutate.IsMoveRejected(err):
		m.setWarn("can't drop a task into its own subtree")
	case err != nil:
		m.setWarn("%v", err)
	case changed:
		m.eng.Select(id)
		m.setStatus("moved %s", target.Position)
	}
	m.ensureVisible()
}
