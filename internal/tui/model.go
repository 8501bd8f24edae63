package tui

import (
	"os"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const sidebarWidth = 28

type Model struct {
	app *App

	width  int
	height int

	showSidebar bool
	showLegend  bool
	helpVisible bool

	status string

	// File explorer
	cwd   string
	l     list.Model
	items []list.Item

	// paste mode
	pasteMode bool
	ta        textarea.Model

	// filter mode
	filterMode bool
	fi         textinput.Model

	// info window table
	tbl     table.Model
	infoKey string

	// keyboard cursor over plotted items
	cursor int

	// hover state
	hovering    bool
	hoverLon    float64
	hoverLat    float64
	hoverHasGeo bool
}

// New builds the application and the model driving it. Startup data begins
// loading immediately and is merged once the program runs.
func New(opts Options) (Model, error) {
	app, err := newApp(opts)
	if err != nil {
		return Model{}, err
	}
	m := Model{
		app:         app,
		showLegend:  true,
		helpVisible: true,
		status:      "geoplot ready",
		cursor:      -1,
	}
	m.cwd = opts.Dir
	if m.cwd == "" {
		m.cwd, _ = os.Getwd()
	}
	// list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Files"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// textarea setup
	m.ta = textarea.New()
	m.ta.Placeholder = "Paste Exhibit JSON, GeoJSON or WKT lines. Ctrl+S to import; Esc to cancel."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	// filter input setup
	m.fi = textinput.New()
	m.fi.Prompt = "/"
	m.fi.Placeholder = "filter items"
	// info table setup; columns follow the selected items
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(8)
	m.refreshDir()
	if app.loading > 0 {
		m.status = "loading…"
	}
	return m, nil
}

func (m Model) Init() tea.Cmd { return m.app.loop.wait() }

// Close releases the view and its subscriptions.
func (m Model) Close() { m.app.close() }
