package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	list "github.com/charmbracelet/bubbles/list"

	"geoplot/internal/importer"
)

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

// refreshDir lists the files in cwd an importer can read.
func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if t, ok := importer.MIMETypeForPath(name); ok {
			items = append(items, fileItem{title: name, desc: t, path: filepath.Join(m.cwd, name)})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).title < items[j].(fileItem).title })
	m.items = items
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no supported files in current directory"
	}
}

// loadPath imports p and reports the outcome in the status line once merged.
func (m *Model) loadPath(p string) {
	name := filepath.Base(p)
	m.status = "loading " + name + "…"
	app := m.app
	app.load(p, "", func(err error) {
		if err != nil {
			app.log.Warn().Err(err).Str("path", p).Msg("load_failed")
			return
		}
		app.log.Info().Str("path", p).Int("items", app.db.Size()).Msg("loaded")
	})
}

// loadStatus describes the last load for the status line.
func (a *App) loadStatus() string {
	switch {
	case a.loading > 0:
		return fmt.Sprintf("loading %d source(s)…", a.loading)
	case a.lastErr != nil:
		return "load error: " + a.lastErr.Error()
	}
	return fmt.Sprintf("%d items, %d plotted", a.db.Size(), a.result.Plotted())
}
