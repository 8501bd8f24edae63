package tui

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"geoplot/internal/coder"
	"geoplot/internal/config"
	"geoplot/internal/database"
	"geoplot/internal/importer"
	"geoplot/internal/mapview"
	"geoplot/internal/marker"
	"geoplot/internal/registry"
	"geoplot/internal/selection"
)

// SelectionID is the coordinator the map view joins unless the config names
// another.
const SelectionID = "map"

// postMsg carries a callback posted from another goroutine.
type postMsg func()

// postLoop hands callbacks to the bubbletea loop. Post never blocks, so it
// may be called from the loop itself.
type postLoop struct {
	ch chan func()
}

func newPostLoop() *postLoop { return &postLoop{ch: make(chan func(), 256)} }

func (l *postLoop) Post(fn func()) {
	select {
	case l.ch <- fn:
	default:
		go func() { l.ch <- fn }()
	}
}

func (l *postLoop) wait() tea.Cmd {
	return func() tea.Msg { return postMsg(<-l.ch) }
}

// Options configures the application.
type Options struct {
	Config config.Config
	Log    zerolog.Logger
	// Files are loaded at startup after Config.Data.
	Files  []string
	Client *http.Client
	// Spawn runs fetches and icon loads; it defaults to new goroutines.
	Spawn func(func())
	// Dir is where the file sidebar starts.
	Dir string
}

// App is the plotting pipeline behind the terminal UI.
type App struct {
	log zerolog.Logger

	db        *database.Database
	coll      *database.Collection
	importers *importer.Registry
	coders    *coder.Components
	coords    *registry.Registry[*selection.Coordinator]
	synth     *marker.Synthesizer
	surface   *Surface
	legend    *legendPanel
	view      *mapview.View
	loop      *postLoop

	selection *selection.Listener
	selected  []string
	result    mapview.Result
	loading   int
	lastErr   error
}

func newApp(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg.View == nil {
		cfg = config.Default()
	}
	a := &App{
		log:     opts.Log.With().Str("component", "tui").Logger(),
		db:      database.New(),
		coders:  coder.NewComponents(),
		coords:  registry.New[*selection.Coordinator](),
		surface: NewSurface(80, 20),
		legend:  &legendPanel{},
		loop:    newPostLoop(),
	}
	a.coll = database.NewCollection(a.db)
	a.importers = importer.NewRegistry(importer.Options{
		Client: opts.Client,
		Log:    opts.Log,
		Loop:   a.loop,
		Spawn:  opts.Spawn,
	})
	for _, imp := range importer.Defaults(a.importers) {
		a.log.Warn().Str("type", imp.MIMEType).Msg("importer_shadowed")
	}
	for _, def := range cfg.Coders {
		if err := a.coders.Register(def); err != nil {
			a.log.Warn().Err(err).Str("coder", def.ID).Msg("coder_rejected")
		}
	}

	policy := marker.Unbounded()
	if cfg.MarkerCache > 0 {
		p, err := marker.LRU(cfg.MarkerCache, nil)
		if err != nil {
			return nil, err
		}
		policy = p
	}
	var painter *marker.Painter
	if cfg.Painter != "" {
		painter = &marker.Painter{Prefix: cfg.Painter}
	}
	synthOpts := marker.Options{
		Painter: painter,
		Cache:   marker.NewCache(policy),
		Icons:   marker.HTTPIconLoader{Client: opts.Client, Origin: cfg.Origin, AllowFiles: true},
		Loop:    a.loop,
		Spawn:   opts.Spawn,
		Log:     opts.Log,
	}
	if cfg.CanvasEnabled() {
		synthOpts.Canvas = marker.Canvas{}
	}
	a.synth = marker.NewSynthesizer(synthOpts)

	coord := selection.New()
	a.coords.Register(SelectionID, coord)
	a.selection = coord.AddListener(func(e selection.Event) { a.selected = e.ItemIDs })

	view := make(map[string]any, len(cfg.View)+1)
	for k, v := range cfg.View {
		view[k] = v
	}
	if _, ok := view["selectCoordinator"]; !ok {
		view["selectCoordinator"] = SelectionID
	}
	v, err := mapview.New(view, mapview.Deps{
		Collection: a.coll,
		Database:   a.db,
		NewMap: func(o mapview.MapOptions) mapview.Map {
			a.surface.Configure(o)
			return a.surface
		},
		Legend:        a.legend,
		Synth:         a.synth,
		Coders:        a.coders,
		Coordinators:  a.coords,
		Painter:       painter,
		Log:           opts.Log,
		OnReconstruct: func(r mapview.Result) { a.result = r },
	})
	if err != nil {
		return nil, err
	}
	a.view = v

	for _, src := range cfg.Data {
		a.load(src.Href, src.Type, nil)
	}
	for _, f := range opts.Files {
		a.load(f, "", nil)
	}
	return a, nil
}

// load imports link; done runs on the loop once it is merged or failed.
func (a *App) load(link, mimeType string, done func(error)) {
	if mimeType == "" {
		t, ok := importer.MIMETypeForPath(link)
		if !ok {
			a.lastErr = fmt.Errorf("%s: unknown data type", link)
			if done != nil {
				done(a.lastErr)
			}
			return
		}
		mimeType = t
	}
	a.loading++
	a.importers.Load(context.Background(), mimeType, link, a.db, func(err error) {
		a.loading--
		a.lastErr = err
		if done != nil {
			done(err)
		}
	})
}

// paste imports text typed or pasted by the user: JSON documents as Exhibit
// JSON or GeoJSON, anything else as WKT lines.
func (a *App) paste(text string) (int, error) {
	text = strings.TrimSpace(text)
	mimeType := importer.TypeWKT
	if strings.HasPrefix(text, "{") {
		mimeType = importer.TypeExhibitJSON
	}
	imp, ok := a.importers.Lookup(mimeType)
	if !ok {
		return 0, fmt.Errorf("%w %q", importer.ErrUnknownType, mimeType)
	}
	p, err := imp.Parser.Parse(context.Background(), "", []byte(text))
	if err != nil {
		return 0, err
	}
	return len(p.Items), a.db.LoadData(p, "")
}

// plotted lists restricted items that have an overlay, in collection order.
func (a *App) plotted() []string {
	var ids []string
	a.coll.VisitRestricted(func(id string) {
		if _, ok := a.view.OverlayFor(id); ok {
			ids = append(ids, id)
		}
	})
	return ids
}

// selectItem publishes id as the selection, which opens its info window.
func (a *App) selectItem(id string) {
	a.selected = []string{id}
	a.selection.Fire(selection.Event{ItemIDs: []string{id}})
}

func (a *App) label(id string) string {
	if it, ok := a.db.Item(id); ok {
		return it.Label
	}
	return id
}

func (a *App) close() {
	a.view.Dispose()
	a.selection.Dispose()
	a.coll.Dispose()
}
