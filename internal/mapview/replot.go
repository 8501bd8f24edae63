package mapview

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/paulmach/orb"

	"geoplot/internal/coder"
	"geoplot/internal/geom"
	"geoplot/internal/marker"
	"geoplot/internal/settings"
)

// Result summarizes one reconstruction.
type Result struct {
	Total          int
	Unplottable    []string
	Buckets        int
	Markers        int
	Polygons       int
	Polylines      int
	Failed         int
	AutoPositioned bool
	Legend         Legend
}

// Plotted is the number of restricted items with at least one geometry.
func (r Result) Plotted() int { return r.Total - len(r.Unplottable) }

// Message is the status line for r, empty when everything was drawn.
func (r Result) Message() string {
	var msg string
	if n := len(r.Unplottable); n > 0 {
		noun := "items"
		if r.Total == 1 {
			noun = "item"
		}
		msg = fmt.Sprintf("%d of %d %s not shown", n, r.Total, noun)
	}
	if r.Failed > 0 {
		if msg != "" {
			msg += "; "
		}
		msg += fmt.Sprintf("%d markers failed to draw", r.Failed)
	}
	return msg
}

type latlng struct {
	pos         orb.Point
	maxAutoZoom float64
	hasMaxZoom  bool
}

// bucket collects the items sharing one exact coordinate.
type bucket struct {
	key         string
	pos         orb.Point
	maxAutoZoom float64
	items       []string
	colorKeys   coder.KeySet
	sizeKeys    coder.KeySet
	iconKeys    coder.KeySet
}

// pass is the state of one reconstruction.
type pass struct {
	ctx    context.Context
	gen    uint64
	res    *Result
	color  *coder.Flags
	size   *coder.Flags
	icon   *coder.Flags
	bounds orb.Bound
	hasPos bool
}

func (p *pass) extend(pt orb.Point) {
	if !p.hasPos {
		p.bounds = orb.Bound{Min: pt, Max: pt}
		p.hasPos = true
		return
	}
	p.bounds = p.bounds.Extend(pt)
}

func (v *View) rePlot(ctx context.Context, gen uint64, res *Result) {
	p := &pass{
		ctx:   ctx,
		gen:   gen,
		res:   res,
		color: coder.NewFlags(),
		size:  coder.NewFlags(),
		icon:  coder.NewFlags(),
	}
	var (
		buckets []*bucket
		byKey   = make(map[string]*bucket)
	)

	v.deps.Collection.VisitRestricted(func(id string) {
		var points []latlng
		if v.acc.Has(getLatlng) {
			v.visitLatlng(id, func(l latlng) { points = append(points, l) })
		}
		polygons := v.strings(getPolygon, id)
		polylines := v.strings(getPolyline, id)
		if len(points) == 0 && len(polygons) == 0 && len(polylines) == 0 {
			res.Unplottable = append(res.Unplottable, id)
			return
		}

		color := v.settings.String("color")
		var colorKeys coder.KeySet
		if v.colorCoder != nil {
			colorKeys = v.keys(getColorKey, id)
			color = v.colorCoder.TranslateSet(colorKeys, p.color)
		}

		if len(points) > 0 {
			var sizeKeys, iconKeys coder.KeySet
			if v.sizeCoder != nil {
				sizeKeys = v.keys(getSizeKey, id)
			}
			if v.iconCoder != nil {
				iconKeys = v.keys(getIconKey, id)
			}
			for _, l := range points {
				key := geom.FormatLatLng(l.pos)
				b, ok := byKey[key]
				if !ok {
					b = &bucket{
						key:         key,
						pos:         l.pos,
						maxAutoZoom: math.Inf(1),
						colorKeys:   coder.NewKeySet(),
						sizeKeys:    coder.NewKeySet(),
						iconKeys:    coder.NewKeySet(),
					}
					byKey[key] = b
					buckets = append(buckets, b)
				}
				b.items = append(b.items, id)
				if l.hasMaxZoom && l.maxAutoZoom < b.maxAutoZoom {
					b.maxAutoZoom = l.maxAutoZoom
				}
				b.colorKeys.AddSet(colorKeys)
				b.sizeKeys.AddSet(sizeKeys)
				b.iconKeys.AddSet(iconKeys)
			}
		}

		for _, s := range polygons {
			if v.plotPoly(p, id, s, color, true) {
				res.Polygons++
			}
		}
		for _, s := range polylines {
			if v.plotPoly(p, id, s, color, false) {
				res.Polylines++
			}
		}
	})

	res.Buckets = len(buckets)
	maxAutoZoom := math.Inf(1)
	for _, b := range buckets {
		if err := v.addMarker(p, b); err != nil {
			res.Failed++
			v.log.Warn().Err(err).
				Str("position", b.key).
				Int("items", len(b.items)).
				Msg("marker_bucket_failed")
			continue
		}
		res.Markers++
		p.extend(b.pos)
		if b.maxAutoZoom < maxAutoZoom {
			maxAutoZoom = b.maxAutoZoom
		}
	}

	res.Legend = buildLegend(v.legendInput(p))

	if p.hasPos && v.settings.Bool("autoposition") && !v.shown {
		v.m.FitBounds(p.bounds)
		if !math.IsInf(maxAutoZoom, 1) && v.m.Zoom() > maxAutoZoom {
			v.m.SetZoom(maxAutoZoom)
		}
		res.AutoPositioned = true
	}
	if p.hasPos {
		v.shown = true
	}
}

func (v *View) legendInput(p *pass) legendInput {
	in := legendInput{shape: v.markers.Shape, painter: v.deps.Painter}
	if v.colorCoder != nil {
		in.color = &channelState[string]{coder: v.colorCoder, flags: p.color, label: v.settings.String("colorLegendLabel")}
	}
	if v.sizeCoder != nil {
		in.size = &channelState[float64]{coder: v.sizeCoder, flags: p.size, label: v.settings.String("sizeLegendLabel")}
	}
	if v.iconCoder != nil {
		in.icon = &channelState[string]{coder: v.iconCoder, flags: p.icon, label: v.settings.String("iconLegendLabel")}
	}
	return in
}

// visitLatlng resolves the point geometries of id, through its proxies when
// a proxy accessor is configured.
func (v *View) visitLatlng(id string, fn func(latlng)) {
	db := v.deps.Database
	get := v.acc[getLatlng]
	visit := func(target string) {
		get(target, db, func(x any) {
			b, ok := x.(settings.Bindings)
			if !ok {
				return
			}
			lat, ok1 := b.Float("lat")
			lng, ok2 := b.Float("lng")
			if !ok1 || !ok2 {
				return
			}
			l := latlng{pos: orb.Point{lng, lat}}
			l.maxAutoZoom, l.hasMaxZoom = b.Float("maxAutoZoom")
			fn(l)
		})
	}
	if proxy := v.acc[getProxy]; proxy != nil {
		proxy(id, db, func(x any) {
			if s, ok := x.(string); ok && s != "" {
				visit(s)
			}
		})
		return
	}
	visit(id)
}

func (v *View) strings(accessor, id string) []string {
	var out []string
	if a := v.acc[accessor]; a != nil {
		a(id, v.deps.Database, func(x any) {
			if s, ok := x.(string); ok && s != "" {
				out = append(out, s)
			}
		})
	}
	return out
}

func (v *View) keys(accessor, id string) coder.KeySet {
	ks := coder.NewKeySet()
	for _, s := range v.strings(accessor, id) {
		ks.Add(s)
	}
	return ks
}

// plotPoly draws one polygon or polyline coordinate string for id. Strings
// with fewer than two coordinates are skipped.
func (v *View) plotPoly(p *pass, id, s, color string, polygon bool) bool {
	path := geom.ParseCoordinates(s, v.settings.String("latlngPairSeparator"), v.settings.String("latlngOrder") == "lnglat")
	if len(path) < 2 {
		return false
	}
	stroke := color
	if bc := v.settings.String("borderColor"); bc != "" {
		stroke = bc
	}
	opts := PolyOptions{
		Path:          path,
		StrokeColor:   stroke,
		StrokeWeight:  v.settings.Int("borderWidth"),
		StrokeOpacity: v.settings.Float("borderOpacity"),
	}
	var ov Overlay
	if polygon {
		opts.FillColor = color
		opts.FillOpacity = v.settings.Float("opacity")
		ov = v.m.AddPolygon(opts)
	} else {
		ov = v.m.AddPolyline(opts)
	}
	if ov == nil {
		return false
	}
	items := []string{id}
	ov.OnClick(func(pos orb.Point) { v.clicked(items, &pos, nil) })
	v.overlays = append(v.overlays, ov)
	v.index[id] = ov
	for _, pt := range path {
		p.extend(pt)
	}
	return true
}

// addMarker encodes and draws the marker of one bucket. A panic while doing
// so is returned as an error so the remaining buckets still draw.
func (v *View) addMarker(p *pass, b *bucket) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	color := v.settings.String("color")
	if v.colorCoder != nil {
		color = v.colorCoder.TranslateSet(b.colorKeys, p.color)
	}
	iconSize := v.settings.Int("iconSize")
	if v.sizeCoder != nil {
		iconSize = int(math.Round(v.sizeCoder.TranslateSet(b.sizeKeys, p.size)))
	}
	var icon string
	if len(b.items) == 1 {
		if a := v.acc[getIcon]; a != nil {
			a(b.items[0], v.deps.Database, func(x any) {
				if s, ok := x.(string); ok {
					icon = s
				}
			})
		}
	}
	if v.iconCoder != nil {
		icon = v.iconCoder.TranslateSet(b.iconKeys, p.icon)
	}
	label := ""
	if len(b.items) > 1 {
		label = strconv.Itoa(len(b.items))
	}

	req := marker.Request{Shape: v.markers.Shape, Color: color, IconSize: iconSize, IconURL: icon, Label: label}
	var (
		mk   Marker
		late *marker.Entry
	)
	gen := p.gen
	entry, err := v.deps.Synth.Synthesize(p.ctx, req, v.markers, func(up *marker.Entry) {
		if v.gen != gen {
			return
		}
		if mk == nil {
			late = up
			return
		}
		mk.SetIcon(up.MarkerImage)
	})
	if err != nil {
		return err
	}
	mk = v.m.AddMarker(MarkerOptions{
		Position: b.pos,
		Icon:     entry.MarkerImage,
		Shadow:   entry.ShadowImage,
		Shape:    entry.Shape,
		Color:    color,
		Label:    label,
	})
	if mk == nil {
		return errors.New("map refused marker")
	}
	if late != nil {
		mk.SetIcon(late.MarkerImage)
	}
	items := b.items
	mk.OnClick(func(orb.Point) { v.clicked(items, nil, mk) })
	v.overlays = append(v.overlays, mk)
	for _, id := range items {
		v.index[id] = mk
	}
	return nil
}
