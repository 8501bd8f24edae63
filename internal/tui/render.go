package tui

import (
	"image/color"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"

	"geoplot/internal/hexcolor"
	"geoplot/internal/mapview"
	"geoplot/internal/marker"
)

const (
	// worldPx is the width of the world in micro-pixels at zoom 0.
	worldPx = 256
	maxZoom = 20
	// clickSlop is how far from a line, in micro-pixels, a click still hits.
	clickSlop = 3
)

var worldMeters = 2 * math.Pi * 6378137.0

// Surface is a terminal map: web mercator projected onto a braille canvas,
// with markers drawn as colored glyphs. It implements mapview.Map. Like the
// view, it is only touched from the bubbletea loop.
type Surface struct {
	opts   mapview.MapOptions
	center orb.Point // mercator meters
	zoom   float64
	w, h   int // in cells

	overlays []overlay
	info     *infoWindow
}

func NewSurface(w, h int) *Surface {
	s := &Surface{w: w, h: h}
	s.Configure(mapview.MapOptions{})
	return s
}

// Configure applies the options a view builds its map with.
func (s *Surface) Configure(opts mapview.MapOptions) {
	s.opts = opts
	s.center = project.WGS84.ToMercator(opts.Center)
	s.zoom = opts.Zoom
}

func (s *Surface) Options() mapview.MapOptions { return s.opts }

// Resize keeps center and zoom.
func (s *Surface) Resize(w, h int) {
	s.w, s.h = max(1, w), max(1, h)
}

func (s *Surface) Zoom() float64 { return s.zoom }

func (s *Surface) SetZoom(z float64) {
	s.zoom = math.Max(0, math.Min(maxZoom, z))
}

// Center returns the map center as lon/lat.
func (s *Surface) Center() orb.Point { return project.Mercator.ToWGS84(s.center) }

func (s *Surface) SetCenter(p orb.Point) { s.center = project.WGS84.ToMercator(p) }

// Pan moves the view by dx, dy cells.
func (s *Surface) Pan(dx, dy int) {
	mpp := s.metersPerPx()
	s.center[0] += float64(dx*2) * mpp
	s.center[1] -= float64(dy*4) * mpp
}

func (s *Surface) metersPerPx() float64 {
	return worldMeters / (worldPx * math.Exp2(s.zoom))
}

// FitBounds centers b and picks the largest whole zoom that shows all of it.
func (s *Surface) FitBounds(b orb.Bound) {
	lo := project.WGS84.ToMercator(b.Min)
	hi := project.WGS84.ToMercator(b.Max)
	s.center = orb.Point{(lo[0] + hi[0]) / 2, (lo[1] + hi[1]) / 2}
	z := float64(maxZoom)
	if dx := hi[0] - lo[0]; dx > 0 {
		z = math.Min(z, math.Log2(float64(s.w*2)*worldMeters/(worldPx*dx)))
	}
	if dy := hi[1] - lo[1]; dy > 0 {
		z = math.Min(z, math.Log2(float64(s.h*4)*worldMeters/(worldPx*dy)))
	}
	s.SetZoom(math.Floor(z))
}

// toMicro projects a lon/lat point to micro-pixel coordinates.
func (s *Surface) toMicro(p orb.Point) (int, int) {
	m := project.WGS84.ToMercator(p)
	mpp := s.metersPerPx()
	x := (m[0]-s.center[0])/mpp + float64(s.w*2)/2
	y := (s.center[1]-m[1])/mpp + float64(s.h*4)/2
	return int(math.Floor(x)), int(math.Floor(y))
}

// CellToLonLat converts the center of a map cell back to lon/lat.
func (s *Surface) CellToLonLat(cx, cy int) orb.Point {
	mpp := s.metersPerPx()
	mx := float64(cx*2) + 1 - float64(s.w*2)/2
	my := float64(cy*4) + 2 - float64(s.h*4)/2
	return project.Mercator.ToWGS84(orb.Point{s.center[0] + mx*mpp, s.center[1] - my*mpp})
}

type overlay interface {
	mapview.Overlay
	removed() bool
	fire(pos orb.Point)
}

type baseOverlay struct {
	gone  bool
	click []func(orb.Point)
}

func (o *baseOverlay) Remove() { o.gone = true }

func (o *baseOverlay) OnClick(fn func(pos orb.Point)) { o.click = append(o.click, fn) }
func (o *baseOverlay) removed() bool                 { return o.gone }

func (o *baseOverlay) fire(pos orb.Point) {
	for _, fn := range o.click {
		fn(pos)
	}
}

type markerOverlay struct {
	baseOverlay
	opts mapview.MarkerOptions
}

func (m *markerOverlay) SetIcon(img marker.Image) { m.opts.Icon = img }

// glyph is the marker symbol followed by its label.
func (m *markerOverlay) glyph() string { return "●" + m.opts.Label }

// color is the marker's color as shown: the center pixel of a drawn icon,
// else the encoded color.
func (m *markerOverlay) color() string {
	if bm := m.opts.Icon.Bitmap; bm != nil {
		b := bm.Bounds()
		c := color.NRGBAModel.Convert(bm.At(b.Min.X+b.Dx()/2, b.Min.Y+m.bodyHeight()/2)).(color.NRGBA)
		if c.A > 0 {
			c.A = 255
			return hexcolor.Format(c)
		}
	}
	return m.opts.Color
}

func (m *markerOverlay) bodyHeight() int {
	if len(m.opts.Shape) > 1 {
		return m.opts.Shape[1].Y
	}
	return m.opts.Icon.Size.Y
}

type polyOverlay struct {
	baseOverlay
	opts   mapview.PolyOptions
	closed bool
}

func (s *Surface) AddMarker(opts mapview.MarkerOptions) mapview.Marker {
	m := &markerOverlay{opts: opts}
	s.overlays = append(s.overlays, m)
	return m
}

func (s *Surface) AddPolygon(opts mapview.PolyOptions) mapview.Overlay {
	p := &polyOverlay{opts: opts, closed: true}
	s.overlays = append(s.overlays, p)
	return p
}

func (s *Surface) AddPolyline(opts mapview.PolyOptions) mapview.Overlay {
	p := &polyOverlay{opts: opts}
	s.overlays = append(s.overlays, p)
	return p
}

type infoWindow struct {
	s      *Surface
	items  []string
	pos    *orb.Point
	anchor mapview.Overlay
}

func (w *infoWindow) Close() {
	if w.s.info == w {
		w.s.info = nil
	}
}

func (s *Surface) OpenInfoWindow(opts mapview.InfoWindowOptions) mapview.InfoWindow {
	w := &infoWindow{s: s, items: opts.Items, pos: opts.Position, anchor: opts.Anchor}
	s.info = w
	return w
}

// InfoItems lists the items of the open info window, or nil. A window whose
// anchor was removed counts as closed.
func (s *Surface) InfoItems() []string {
	if s.info == nil {
		return nil
	}
	if a, ok := s.info.anchor.(overlay); ok && a.removed() {
		s.info = nil
		return nil
	}
	return s.info.items
}

// CloseInfo closes the open info window.
func (s *Surface) CloseInfo() {
	if s.info != nil {
		s.info.Close()
	}
}

// live drops removed overlays and returns the rest in drawing order.
func (s *Surface) live() []overlay {
	out := s.overlays[:0]
	for _, o := range s.overlays {
		if !o.removed() {
			out = append(out, o)
		}
	}
	s.overlays = out
	return out
}

// Markers returns the live markers in drawing order.
func (s *Surface) Markers() []*markerOverlay {
	var out []*markerOverlay
	for _, o := range s.live() {
		if m, ok := o.(*markerOverlay); ok {
			out = append(out, m)
		}
	}
	return out
}

// markerCells returns the cell a marker glyph starts at.
func (s *Surface) markerCell(m *markerOverlay) (int, int) {
	mx, my := s.toMicro(m.opts.Position)
	return floorDiv(mx, 2), floorDiv(my, 4)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// Click dispatches a click on cell (cx, cy) to the topmost overlay under it
// and reports whether one was hit. Markers are hit on their glyph and label;
// polylines within clickSlop micro-pixels; polygons inside their outer ring.
func (s *Surface) Click(cx, cy int) bool {
	pos := s.CellToLonLat(cx, cy)
	live := s.live()
	for i := len(live) - 1; i >= 0; i-- {
		m, ok := live[i].(*markerOverlay)
		if !ok {
			continue
		}
		x, y := s.markerCell(m)
		if cy == y && cx >= x && cx < x+len([]rune(m.glyph())) {
			m.fire(pos)
			return true
		}
	}
	click := orb.Point{float64(cx*2) + 1, float64(cy*4) + 2}
	for i := len(live) - 1; i >= 0; i-- {
		p, ok := live[i].(*polyOverlay)
		if !ok {
			continue
		}
		path := s.microPath(p.opts.Path, p.closed)
		if p.closed && len(path) >= 3 && planar.RingContains(path, click) {
			p.fire(pos)
			return true
		}
		for j := 0; j+1 < len(path); j++ {
			if planar.DistanceFromSegment(path[j], path[j+1], click) <= clickSlop {
				p.fire(pos)
				return true
			}
		}
	}
	return false
}

func (s *Surface) microPath(path []orb.Point, closed bool) orb.Ring {
	out := make(orb.Ring, 0, len(path)+1)
	for _, p := range path {
		x, y := s.toMicro(p)
		out = append(out, orb.Point{float64(x), float64(y)})
	}
	if closed && len(out) > 0 && !out[0].Equal(out[len(out)-1]) {
		out = append(out, out[0])
	}
	return out
}

// Render draws the map into s.w x s.h cells. Polygons and polylines go on a
// braille layer; markers are written over it, the one with the open info
// window highlighted.
func (s *Surface) Render() string {
	br := newBrailleBuf(s.w, s.h)
	live := s.live()
	for _, o := range live {
		p, ok := o.(*polyOverlay)
		if !ok || len(p.opts.Path) < 2 {
			continue
		}
		var ring [][2]int
		for _, pt := range p.opts.Path {
			x, y := s.toMicro(pt)
			ring = append(ring, [2]int{x, y})
		}
		if p.closed && p.opts.FillOpacity > 0 {
			br.fillRing(ring, p.opts.FillColor)
		}
		br.strokePath(ring, p.closed, p.opts.StrokeColor)
	}

	cells := make([][]string, s.h)
	for y := range cells {
		cells[y] = make([]string, s.w)
		for x := range cells[y] {
			cells[y][x] = fg(br.col[y][x], string(br.cell(x, y)))
		}
	}
	var anchor mapview.Overlay
	if s.info != nil {
		anchor = s.info.anchor
	}
	for _, o := range live {
		m, ok := o.(*markerOverlay)
		if !ok {
			continue
		}
		x, y := s.markerCell(m)
		if y < 0 || y >= s.h {
			continue
		}
		style := markerStyle
		if mapview.Overlay(m) == anchor {
			style = selectedStyle
		}
		for i, r := range []rune(m.glyph()) {
			if x+i < 0 || x+i >= s.w {
				continue
			}
			cells[y][x+i] = style.Foreground(lipglossColor(m.color())).Render(string(r))
		}
	}

	lines := make([]string, s.h)
	for y, row := range cells {
		lines[y] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}
