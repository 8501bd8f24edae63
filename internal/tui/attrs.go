package tui

import (
	"sort"
	"strconv"
	"strings"

	table "github.com/charmbracelet/bubbles/table"

	"geoplot/internal/database"
)

const maxColW = 32

// infoTable builds the info window table for items: one property/value row
// per property for a single item, one row per item otherwise.
func infoTable(db *database.Database, ids []string) ([]table.Column, []table.Row) {
	if len(ids) == 1 {
		it, ok := db.Item(ids[0])
		if !ok {
			return nil, nil
		}
		rows := []table.Row{{"id", it.ID}, {"label", it.Label}}
		if it.Type != "" {
			rows = append(rows, table.Row{"type", it.Type})
		}
		keys := make([]string, 0, len(it.Props))
		for k := range it.Props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		valW := 5
		for _, k := range keys {
			v := strings.Join(it.Props[k], ", ")
			rows = append(rows, table.Row{k, truncate(v, maxColW)})
			valW = max(valW, min(maxColW, len([]rune(v))))
		}
		keyW := 8
		for _, r := range rows {
			keyW = max(keyW, min(maxColW, len([]rune(r[0]))))
		}
		return []table.Column{{Title: "property", Width: keyW}, {Title: "value", Width: max(valW, len([]rune(it.Label)))}}, rows
	}

	cols := []table.Column{{Title: "#", Width: 3}, {Title: "label", Width: 12}, {Title: "type", Width: 8}}
	var rows []table.Row
	for i, id := range ids {
		it, ok := db.Item(id)
		if !ok {
			continue
		}
		rows = append(rows, table.Row{strconv.Itoa(i + 1), truncate(it.Label, maxColW), truncate(it.Type, maxColW)})
		cols[1].Width = max(cols[1].Width, min(maxColW, len([]rune(it.Label))))
		cols[2].Width = max(cols[2].Width, min(maxColW, len([]rune(it.Type))))
	}
	return cols, rows
}

// refreshInfo rebuilds the info table from the surface's open info window.
// Rows are cleared before columns change so the table never renders a
// row wider than its columns.
func (m *Model) refreshInfo() {
	ids := m.app.surface.InfoItems()
	key := strings.Join(ids, "\x00")
	if key == m.infoKey {
		return
	}
	m.infoKey = key
	if len(ids) == 0 {
		return
	}
	cols, rows := infoTable(m.app.db, ids)
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(cols)
	m.tbl.SetRows(rows)
	m.tbl.SetHeight(min(len(rows)+1, 12))
	m.tbl.GotoTop()
}
