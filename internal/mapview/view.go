// Package mapview plots a filtered item collection onto a map: it resolves
// each item's geometry, groups items sharing a coordinate into one marker,
// encodes color, size and icon through coders and keeps a legend and a
// detail popup in step with the collection.
package mapview

import (
	"context"
	"errors"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"geoplot/internal/coder"
	"geoplot/internal/marker"
	"geoplot/internal/registry"
	"geoplot/internal/selection"
	"geoplot/internal/settings"
)

// Collection is the filtered item set a view plots.
type Collection interface {
	VisitRestricted(fn func(id string))
	CountRestricted() int
	OnItemsChanged(fn func()) (unsubscribe func())
}

// Deps are the collaborators of a View. Legend, Coders, Coordinators and
// Painter are optional.
type Deps struct {
	Collection   Collection
	Database     settings.Evaluator
	NewMap       MapConstructor
	Legend       LegendWidget
	Synth        *marker.Synthesizer
	Coders       *coder.Components
	Coordinators *registry.Registry[*selection.Coordinator]
	// Painter renders legend swatches.
	Painter *marker.Painter
	Log     zerolog.Logger
	// OnReconstruct receives the result of every reconstruction.
	OnReconstruct func(Result)
}

// View is one map view. All methods, and every callback it registers, must
// run on the owner's event loop.
type View struct {
	deps     Deps
	log      zerolog.Logger
	settings settings.Values
	acc      settings.Accessors
	markers  marker.Settings

	colorCoder coder.Coder[string]
	sizeCoder  coder.Coder[float64]
	iconCoder  coder.Coder[string]

	m              Map
	selectListener *selection.Listener
	unbind         func()

	overlays []Overlay
	index    map[string]Overlay
	info     InfoWindow

	gen      uint64
	cancel   context.CancelFunc
	shown    bool
	last     Result
	disposed bool
}

// New resolves config, builds the map and plots the collection once.
// Configuration problems are logged and fall back to defaults.
func New(config map[string]any, deps Deps) (*View, error) {
	if deps.Collection == nil || deps.Database == nil {
		return nil, errors.New("mapview: collection and database are required")
	}
	if deps.Synth == nil {
		return nil, errors.New("mapview: marker synthesizer is required")
	}
	v := &View{
		deps:  deps,
		log:   deps.Log.With().Str("component", "mapview").Logger(),
		index: make(map[string]Overlay),
	}

	vals, warns := settings.Collect(config, SettingSpecs)
	acc, accWarns := settings.CreateAccessors(config, AccessorSpecs)
	for _, w := range append(warns, accWarns...) {
		v.log.Warn().Err(w).Msg("view_config_ignored")
	}
	v.settings, v.acc = vals, acc
	v.markers = markerSettings(vals)
	v.resolveCoders()
	v.bindSelection()

	newMap := deps.NewMap
	switch f := vals.Func("mapConstructor").(type) {
	case MapConstructor:
		newMap = f
	case func(MapOptions) Map:
		newMap = f
	}
	if newMap == nil {
		return nil, errors.New("mapview: no map constructor")
	}
	v.m = newMap(v.mapOptions())
	if v.m == nil {
		return nil, errors.New("mapview: map constructor returned nil")
	}

	v.unbind = deps.Collection.OnItemsChanged(func() { v.Reconstruct() })
	v.Reconstruct()
	return v, nil
}

func markerSettings(vals settings.Values) marker.Settings {
	return marker.Settings{
		Shape:       vals.String("shape"),
		ShapeWidth:  vals.Int("shapeWidth"),
		ShapeHeight: vals.Int("shapeHeight"),
		ShapeAlpha:  vals.Float("shapeAlpha"),
		Pin:         vals.Bool("pin"),
		PinWidth:    vals.Int("pinWidth"),
		PinHeight:   vals.Int("pinHeight"),
		BorderColor: vals.String("borderColor"),
		IconFit:     vals.String("iconFit"),
		IconScale:   vals.Float("iconScale"),
		IconOffsetX: vals.Float("iconOffsetX"),
		IconOffsetY: vals.Float("iconOffsetY"),
	}
}

func (v *View) mapOptions() MapOptions {
	opts := MapOptions{
		Zoom:            v.settings.Float("zoom"),
		Type:            v.settings.String("type"),
		Size:            v.settings.String("size"),
		Height:          v.settings.Int("mapHeight"),
		ScrollWheelZoom: v.settings.Bool("scrollWheelZoom"),
		ScaleControl:    v.settings.Bool("scaleControl"),
		OverviewControl: v.settings.Bool("overviewControl"),
	}
	if c := v.settings.Floats("center"); len(c) == 2 {
		opts.Center = orb.Point{c[1], c[0]}
	}
	return opts
}

// resolveCoders picks a coder for every channel that has a key accessor.
// Colors fall back to a palette coder; size and icon channels stay off
// without a named coder.
func (v *View) resolveCoders() {
	lookup := func(setting string, find func(id string) bool) {
		id := v.settings.String(setting)
		if id == "" {
			return
		}
		if v.deps.Coders == nil || !find(id) {
			v.log.Warn().Str("coder", id).Str("setting", setting).Msg("coder_not_found")
		}
	}
	if v.acc.Has(getColorKey) {
		lookup("colorCoder", func(id string) bool {
			c, ok := v.deps.Coders.Colors.Lookup(id)
			v.colorCoder = c
			return ok
		})
		if v.colorCoder == nil {
			v.colorCoder = coder.NewDefaultColorCoder()
		}
	}
	if v.acc.Has(getSizeKey) {
		lookup("sizeCoder", func(id string) bool {
			c, ok := v.deps.Coders.Sizes.Lookup(id)
			v.sizeCoder = c
			return ok
		})
	}
	if v.acc.Has(getIconKey) {
		lookup("iconCoder", func(id string) bool {
			c, ok := v.deps.Coders.Icons.Lookup(id)
			v.iconCoder = c
			return ok
		})
	}
}

func (v *View) bindSelection() {
	id := v.settings.String("selectCoordinator")
	if id == "" || v.deps.Coordinators == nil {
		return
	}
	c, ok := v.deps.Coordinators.Lookup(id)
	if !ok {
		v.log.Warn().Str("coordinator", id).Msg("coordinator_not_found")
		return
	}
	v.selectListener = c.AddListener(v.selectItems)
}

// selectItems opens the popup of the first selected item when it is on the
// map.
func (v *View) selectItems(e selection.Event) {
	if v.disposed || len(e.ItemIDs) == 0 {
		return
	}
	id := e.ItemIDs[0]
	if ov, ok := v.index[id]; ok {
		v.showInfoWindow([]string{id}, nil, ov)
	}
}

// clicked opens the popup for items and publishes them as the selection.
func (v *View) clicked(items []string, pos *orb.Point, anchor Overlay) {
	v.showInfoWindow(items, pos, anchor)
	if v.selectListener != nil {
		v.selectListener.Fire(selection.Event{ItemIDs: items})
	}
}

func (v *View) showInfoWindow(items []string, pos *orb.Point, anchor Overlay) {
	if v.info != nil {
		v.info.Close()
		v.info = nil
	}
	v.info = v.m.OpenInfoWindow(InfoWindowOptions{Items: items, Position: pos, Anchor: anchor})
}

func (v *View) clearOverlays() {
	if v.info != nil {
		v.info.Close()
		v.info = nil
	}
	for _, ov := range v.overlays {
		ov.Remove()
	}
	v.overlays = nil
}

// Reconstruct replots the restricted collection from scratch. Icon upgrades
// still pending from earlier passes are dropped.
func (v *View) Reconstruct() Result {
	if v.disposed {
		return Result{}
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel

	v.clearOverlays()
	if v.deps.Legend != nil {
		v.deps.Legend.Clear()
	}
	v.index = make(map[string]Overlay)

	res := Result{Total: v.deps.Collection.CountRestricted()}
	if res.Total > 0 {
		v.rePlot(ctx, v.gen, &res)
	}
	res.Legend.Render(v.deps.Legend)
	v.last = res

	v.log.Debug().
		Uint64("generation", v.gen).
		Int("total", res.Total).
		Int("unplottable", len(res.Unplottable)).
		Int("markers", res.Markers).
		Int("polygons", res.Polygons).
		Int("polylines", res.Polylines).
		Int("failed", res.Failed).
		Msg("reconstruct_done")
	if v.deps.OnReconstruct != nil {
		v.deps.OnReconstruct(res)
	}
	return res
}

// LastResult is the result of the latest reconstruction.
func (v *View) LastResult() Result { return v.last }

func (v *View) Settings() settings.Values { return v.settings }

func (v *View) Map() Map { return v.m }

// OverlayFor returns the overlay currently showing itemID.
func (v *View) OverlayFor(itemID string) (Overlay, bool) {
	ov, ok := v.index[itemID]
	return ov, ok
}

// Dispose detaches the view from its collection and selection coordinator
// and removes everything it drew.
func (v *View) Dispose() {
	if v.disposed {
		return
	}
	v.disposed = true
	if v.unbind != nil {
		v.unbind()
		v.unbind = nil
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	v.clearOverlays()
	if v.deps.Legend != nil {
		v.deps.Legend.Clear()
	}
	if v.selectListener != nil {
		v.selectListener.Dispose()
		v.selectListener = nil
	}
	v.index = nil
}
