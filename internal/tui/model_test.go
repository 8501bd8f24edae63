package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"geoplot/internal/config"
	"geoplot/internal/eventloop"
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// drain runs every callback posted to the loop so far.
func drain(t *testing.T, m Model) Model {
	t.Helper()
	for {
		select {
		case fn := <-m.app.loop.ch:
			m = send(t, m, postMsg(fn))
		default:
			return m
		}
	}
}

const placesCSV = "id,name,lat,lon,type\nc1,Blue Cafe,48.1,11.5,cafe\nc2,Red Bar,48.2,11.6,bar\n"

func newTestModel(t *testing.T) Model {
	t.Helper()
	return newTestModelWith(t, config.Default(), placesCSV)
}

func newTestModelWith(t *testing.T, cfg config.Config, body string) Model {
	t.Helper()
	dir := t.TempDir()
	csv := filepath.Join(dir, "places.csv")
	if err := os.WriteFile(csv, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := New(Options{
		Config: cfg,
		Log:    zerolog.Nop(),
		Files:  []string{csv},
		Spawn:  eventloop.Inline,
		Dir:    dir,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(m.Close)
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return drain(t, m)
}

func TestModel_LoadsAndPlots(t *testing.T) {
	m := newTestModel(t)
	res := m.app.result
	if res.Total != 2 || res.Markers != 2 || len(res.Unplottable) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if m.status != "2 items, 2 plotted" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if len(m.items) != 1 || m.items[0].(fileItem).desc != "text/csv" {
		t.Fatalf("expected the csv in the sidebar, got %v", m.items)
	}
	out := plain(m.View())
	for _, want := range []string{"geoplot", "●", "bar", "cafe"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in view:\n%s", want, out)
		}
	}
}

func TestModel_ClickSelectsThroughCoordinator(t *testing.T) {
	m := newTestModel(t)
	s := m.app.surface
	ov, ok := m.app.view.OverlayFor("c2")
	if !ok {
		t.Fatalf("expected c2 to be plotted")
	}
	x, y := s.markerCell(ov.(*markerOverlay))
	ox, oy, w, h, _ := m.layout()
	if x < 0 || y < 0 || x >= w || y >= h {
		t.Fatalf("marker cell %d,%d outside %dx%d map", x, y, w, h)
	}
	m = send(t, m, tea.MouseMsg{X: ox + x, Y: oy + y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})

	if got := s.InfoItems(); len(got) != 1 || got[0] != "c2" {
		t.Fatalf("expected info window for c2, got %v", got)
	}
	if len(m.app.selected) != 1 || m.app.selected[0] != "c2" {
		t.Fatalf("expected the click to publish the selection, got %v", m.app.selected)
	}
	if m.status != "selected: Red Bar" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if rows := m.tbl.Rows(); len(rows) < 3 || rows[1][1] != "Red Bar" {
		t.Fatalf("unexpected info rows %v", rows)
	}
	if !strings.Contains(plain(m.View()), "Red Bar") {
		t.Fatalf("expected info panel in view")
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	if s.InfoItems() != nil {
		t.Fatalf("expected esc to close the info window")
	}
}

func TestModel_CycleOpensInfoWindow(t *testing.T) {
	m := newTestModel(t)
	m = send(t, m, runes("n"))
	if got := m.app.surface.InfoItems(); len(got) != 1 || got[0] != "c1" {
		t.Fatalf("expected c1, got %v", got)
	}
	m = send(t, m, runes("n"))
	if got := m.app.surface.InfoItems(); len(got) != 1 || got[0] != "c2" {
		t.Fatalf("expected c2, got %v", got)
	}
	if m.status != "2/2 Red Bar" {
		t.Fatalf("unexpected status %q", m.status)
	}
	m = send(t, m, runes("N"))
	if m.cursor != 0 {
		t.Fatalf("expected cursor to wrap back, got %d", m.cursor)
	}
}

func TestModel_FilterReplots(t *testing.T) {
	m := newTestModel(t)
	m = send(t, m, runes("/"))
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m = send(t, m, runes("bar"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode || m.app.result.Total != 1 || m.app.result.Markers != 1 {
		t.Fatalf("expected one item after filtering, got %+v", m.app.result)
	}
	if !strings.Contains(m.status, `filter "bar": 1 items`) {
		t.Fatalf("unexpected status %q", m.status)
	}
	m = send(t, m, runes("c"))
	if m.app.result.Total != 2 {
		t.Fatalf("expected clearing the filter to replot all items")
	}
}

func TestModel_PasteImports(t *testing.T) {
	m := newTestModel(t)
	m = send(t, m, runes("p"))
	m = send(t, m, runes("POINT (11.55 48.15)"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.pasteMode || m.status != "imported 1 pasted item(s)" {
		t.Fatalf("unexpected paste outcome: mode=%v status=%q", m.pasteMode, m.status)
	}
	if m.app.result.Total != 3 || m.app.result.Markers != 3 {
		t.Fatalf("expected the pasted point to be plotted, got %+v", m.app.result)
	}

	m = send(t, m, runes("p"))
	m = send(t, m, runes("{not json"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.pasteMode || !strings.HasPrefix(m.status, "paste error") {
		t.Fatalf("expected paste error, got %q", m.status)
	}
}

func TestModel_LoadErrorsReachStatus(t *testing.T) {
	m := newTestModel(t)
	m.loadPath(filepath.Join(t.TempDir(), "missing.csv"))
	m = drain(t, m)
	if !strings.HasPrefix(m.status, "load error") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModel_ChromeFollowsViewSettings(t *testing.T) {
	body := placesCSV + "c3,Nowhere,,,bar\n"
	m := newTestModelWith(t, config.Default(), body)
	out := plain(m.View())
	for _, want := range []string{"terminal map view", "1 of 3 items not shown", "q quit"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in default view:\n%s", want, out)
		}
	}
	if _, y, _, h, _ := m.layout(); y != 1 || h != 27 {
		t.Fatalf("unexpected default layout y=%d h=%d", y, h)
	}

	cfg := config.Default()
	cfg.View["showHeader"] = false
	cfg.View["showSummary"] = false
	cfg.View["showFooter"] = false
	m = newTestModelWith(t, cfg, body)
	out = plain(m.View())
	for _, gone := range []string{"terminal map view", "not shown", "q quit"} {
		if strings.Contains(out, gone) {
			t.Fatalf("expected %q to be hidden:\n%s", gone, out)
		}
	}
	if !strings.Contains(out, "3 items, 2 plotted") {
		t.Fatalf("expected the status line to stay:\n%s", out)
	}
	if _, y, _, h, _ := m.layout(); y != 0 || h != 29 {
		t.Fatalf("expected the map to take the freed rows, y=%d h=%d", y, h)
	}
}

func TestModel_BubbleTipPlacesInfoWindow(t *testing.T) {
	for _, tc := range []struct {
		tip        string
		infoBefore bool
	}{{"top", true}, {"bottom", false}} {
		cfg := config.Default()
		cfg.View["bubbleTip"] = tc.tip
		m := newTestModelWith(t, cfg, placesCSV)
		m = send(t, m, runes("n"))
		out := plain(m.View())
		info, legend := strings.Index(out, "property"), strings.Index(out, "● bar")
		if info < 0 || legend < 0 {
			t.Fatalf("%s: expected info window and legend in view:\n%s", tc.tip, out)
		}
		if (info < legend) != tc.infoBefore {
			t.Fatalf("%s: unexpected order info=%d legend=%d", tc.tip, info, legend)
		}
	}
}
