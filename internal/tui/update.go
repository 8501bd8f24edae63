package tui

import (
	"fmt"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

const panelWidth = 36

// chrome returns the rows taken by the header and the footer. The status
// line is always shown; the header and the key help follow the view's
// showHeader and showFooter settings.
func (m Model) chrome() (header, footer int) {
	vs := m.app.view.Settings()
	footer = 1
	if vs.Bool("showHeader") {
		header = 1
	}
	if vs.Bool("showFooter") && m.helpVisible {
		footer++
	}
	return header, footer
}

// layout returns the map origin and size in terminal cells and the width of
// the right panel (zero when hidden).
func (m Model) layout() (x, y, w, h, right int) {
	headerHeight, footerHeight := m.chrome()
	contentHeight := max(4, m.height-headerHeight-footerHeight)
	contentWidth := max(10, m.width)
	left := 0
	if m.showSidebar {
		left = sidebarWidth + 1
	}
	if (m.showLegend && !m.app.legend.Empty()) || m.app.surface.InfoItems() != nil {
		if contentWidth-left-panelWidth-1 >= 20 {
			right = panelWidth
		}
	}
	w = contentWidth - left
	if right > 0 {
		w -= right + 1
	}
	return left, headerHeight, max(10, w), contentHeight, right
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	_, _, w, h, _ := m.layout()
	m.app.surface.Resize(w, h)
	m.refreshInfo()
	return m, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case postMsg:
		loading, lastErr := m.app.loading, m.app.lastErr
		msg()
		if m.app.loading != loading || m.app.lastErr != lastErr {
			m.status = m.app.loadStatus()
		}
		return m, m.app.loop.wait()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		_, _, _, h, _ := m.layout()
		m.l.SetSize(sidebarWidth-2, h-2)
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.pasteMode {
			return m.updatePaste(msg)
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		return m.updateKey(msg)
	case tea.MouseMsg:
		return m.updateMouse(msg)
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updatePaste(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.pasteMode = false
		m.ta.Blur()
		m.status = "view mode"
		return m, nil
	case "ctrl+s":
		text := strings.TrimSpace(m.ta.Value())
		if text == "" {
			m.status = "paste: empty"
			return m, nil
		}
		n, err := m.app.paste(text)
		if err != nil {
			m.status = "paste error: " + err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("imported %d pasted item(s)", n)
		m.pasteMode = false
		m.ta.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filterMode = false
		m.fi.Blur()
		return m, nil
	case "enter":
		m.filterMode = false
		m.fi.Blur()
		m.app.coll.SetFilter(m.fi.Value())
		m.cursor = -1
		if f := m.app.coll.Filter(); f != "" {
			m.status = fmt.Sprintf("filter %q: %d items", f, m.app.coll.CountRestricted())
		} else {
			m.status = "filter cleared"
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.fi, cmd = m.fi.Update(msg)
	return m, cmd
}

func (m Model) updateKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	s := m.app.surface
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "+", "=":
		s.SetZoom(s.Zoom() + 1)
		m.status = fmt.Sprintf("zoom: %.0f", s.Zoom())
	case "-", "_":
		s.SetZoom(s.Zoom() - 1)
		m.status = fmt.Sprintf("zoom: %.0f", s.Zoom())
	case "tab":
		m.showSidebar = !m.showSidebar
		if m.showSidebar {
			m.refreshDir()
		}
	case "p":
		m.pasteMode = true
		m.ta.SetValue("")
		m.ta.Focus()
		m.status = "paste mode"
	case "/":
		m.filterMode = true
		m.fi.SetValue(m.app.coll.Filter())
		m.fi.CursorEnd()
		m.fi.Focus()
	case "c":
		m.app.coll.SetFilter("")
		m.status = "filter cleared"
	case "h":
		m.helpVisible = !m.helpVisible
	case "l":
		m.showLegend = !m.showLegend
	case "r":
		res := m.app.view.Reconstruct()
		m.status = fmt.Sprintf("replotted %d of %d items", res.Plotted(), res.Total)
	case "n", "N":
		ids := m.app.plotted()
		if len(ids) == 0 {
			m.status = "nothing plotted"
			return m, nil
		}
		if msg.String() == "n" {
			m.cursor = (m.cursor + 1) % len(ids)
		} else {
			m.cursor = (m.cursor - 1 + len(ids)) % len(ids)
		}
		id := ids[m.cursor]
		m.app.selectItem(id)
		if ov, ok := m.app.view.OverlayFor(id); ok {
			if mk, ok := ov.(*markerOverlay); ok {
				s.SetCenter(mk.opts.Position)
			}
		}
		m.status = fmt.Sprintf("%d/%d %s", m.cursor+1, len(ids), m.app.label(id))
	case "esc":
		s.CloseInfo()
		m.app.selected = nil
	case "j", "k":
		if s.InfoItems() != nil {
			var cmd tea.Cmd
			m.tbl, cmd = m.tbl.Update(msg)
			return m, cmd
		}
	case "enter":
		if m.showSidebar {
			if it, ok := m.l.SelectedItem().(fileItem); ok {
				m.loadPath(it.path)
			}
		}
	case "up":
		s.Pan(0, -1)
	case "down":
		s.Pan(0, 1)
	case "left":
		s.Pan(-2, 0)
	case "right":
		s.Pan(2, 0)
	default:
		if m.showSidebar {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) updateMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	x, y, w, h, _ := m.layout()
	cx, cy := msg.X-x, msg.Y-y
	if cx < 0 || cy < 0 || cx >= w || cy >= h {
		m.hovering = false
		m.hoverHasGeo = false
		return m, nil
	}
	s := m.app.surface
	m.hovering = true
	p := s.CellToLonLat(cx, cy)
	m.hoverLon, m.hoverLat, m.hoverHasGeo = p.Lon(), p.Lat(), true

	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonLeft:
		if s.Click(cx, cy) {
			if items := s.InfoItems(); len(items) == 1 {
				m.status = "selected: " + m.app.label(items[0])
			} else if len(items) > 1 {
				m.status = fmt.Sprintf("%d items here", len(items))
			}
		} else {
			s.CloseInfo()
		}
	case tea.MouseButtonWheelUp:
		if m.app.view.Settings().Bool("scrollWheelZoom") {
			s.SetZoom(s.Zoom() + 1)
		}
	case tea.MouseButtonWheelDown:
		if m.app.view.Settings().Bool("scrollWheelZoom") {
			s.SetZoom(s.Zoom() - 1)
		}
	}
	return m, nil
}
