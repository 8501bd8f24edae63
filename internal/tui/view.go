package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	_, _, mapWidth, mapHeight, right := m.layout()
	contentWidth := max(10, m.width)

	vs := m.app.view.Settings()
	var rows []string

	// Header
	if vs.Bool("showHeader") {
		header := titleStyle.Render(" geoplot ─ terminal map view ")
		if f := m.app.coll.Filter(); f != "" {
			header += dimStyle.Render(fmt.Sprintf("  filter: %s", f))
		}
		rows = append(rows, lipgloss.NewStyle().Width(contentWidth).Render(header))
	}

	// Map viewport
	var mapView string
	switch {
	case m.pasteMode:
		m.ta.SetWidth(mapWidth)
		m.ta.SetHeight(min(mapHeight, 12))
		mapView = m.ta.View()
	default:
		mapView = m.app.surface.Render()
	}
	mapView = lipgloss.NewStyle().Width(mapWidth).Height(mapHeight).MaxHeight(mapHeight).Render(mapView)

	cols := []string{}
	if m.showSidebar {
		cols = append(cols, lipgloss.NewStyle().Width(sidebarWidth).Render(m.l.View()), " ")
	}
	cols = append(cols, mapView)
	if right > 0 {
		cols = append(cols, " ", m.renderPanel(right, mapHeight))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	// Footer / help
	var statusLine string
	switch {
	case m.filterMode:
		statusLine = m.fi.View()
	default:
		statusLine = dimStyle.Render(" " + m.status + " ")
		if msg := m.app.result.Message(); msg != "" && vs.Bool("showSummary") {
			statusLine += warnStyle.Render(" " + msg)
		}
	}
	coords := ""
	if m.hoverHasGeo {
		coords = dimStyle.Render(fmt.Sprintf("  lat=%.5f lon=%.5f z=%.0f  ", m.hoverLat, m.hoverLon, m.app.surface.Zoom()))
	}
	spacerW := max(0, contentWidth-lipgloss.Width(statusLine)-lipgloss.Width(coords))
	rows = append(rows, body, statusLine+strings.Repeat(" ", spacerW)+coords)
	if vs.Bool("showFooter") && m.helpVisible {
		rows = append(rows, m.renderHelp())
	}

	ui := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return appStyle.Width(contentWidth).Height(m.height).Render(ui)
}

// renderPanel stacks the legend and the info window table.
func (m Model) renderPanel(width, height int) string {
	var parts []string
	if m.showLegend && !m.app.legend.Empty() {
		parts = append(parts, boxStyle.Width(width-2).Render(m.app.legend.View(width-4)))
	}
	if items := m.app.surface.InfoItems(); items != nil {
		title := m.app.label(items[0])
		if len(items) > 1 {
			title = fmt.Sprintf("%d items", len(items))
		}
		m.tbl.SetWidth(width - 4)
		info := boxStyle.Width(width-2).Render(titleStyle.Render(truncate(title, width-4)) + "\n" + m.tbl.View())
		// bubbleTip "top" puts the info window above the legend.
		if m.app.view.Settings().String("bubbleTip") == "top" {
			parts = append([]string{info}, parts...)
		} else {
			parts = append(parts, info)
		}
	}
	return lipgloss.NewStyle().Width(width).MaxHeight(height).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"↑↓←→ pan",
		"+/- zoom",
		"n/N next",
		"/ filter",
		"Tab files",
		"p paste",
		"l legend",
		"r replot",
		"esc close",
		"q quit",
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
