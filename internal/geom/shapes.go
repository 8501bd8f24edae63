package geom

import (
	"sort"

	"github.com/paulmach/orb"
)

// Shapes groups decoded geometry by kind. X is longitude, Y latitude.
type Shapes struct {
	Points   []orb.Point
	Lines    []orb.LineString
	Polygons []orb.Polygon // first ring outer, following rings holes
}

// Add flattens g into s. Multi geometries and collections are split into their
// parts; unknown kinds are ignored.
func (s *Shapes) Add(g orb.Geometry) {
	switch t := g.(type) {
	case orb.Point:
		s.Points = append(s.Points, t)
	case orb.MultiPoint:
		s.Points = append(s.Points, t...)
	case orb.LineString:
		if len(t) > 0 {
			s.Lines = append(s.Lines, t)
		}
	case orb.MultiLineString:
		for _, ls := range t {
			s.Add(ls)
		}
	case orb.Ring:
		if len(t) > 0 {
			s.Polygons = append(s.Polygons, orb.Polygon{t})
		}
	case orb.Polygon:
		if len(t) > 0 && len(t[0]) > 0 {
			s.Polygons = append(s.Polygons, t)
		}
	case orb.MultiPolygon:
		for _, p := range t {
			s.Add(p)
		}
	case orb.Collection:
		for _, c := range t {
			s.Add(c)
		}
	case orb.Bound:
		s.Add(t.ToPolygon())
	}
}

func (s Shapes) Empty() bool {
	return len(s.Points) == 0 && len(s.Lines) == 0 && len(s.Polygons) == 0
}

// Bound returns the bounding box of every vertex, or an empty bound at the
// origin when s holds nothing.
func (s Shapes) Bound() orb.Bound {
	var b orb.Bound
	first := true
	add := func(p orb.Point) {
		if first {
			b = p.Bound()
			first = false
			return
		}
		b = b.Extend(p)
	}
	for _, p := range s.Points {
		add(p)
	}
	for _, ls := range s.Lines {
		for _, p := range ls {
			add(p)
		}
	}
	for _, poly := range s.Polygons {
		for _, ring := range poly {
			for _, p := range ring {
				add(p)
			}
		}
	}
	return b
}

// Feature is one decoded record: its geometry plus flat, multi-valued
// properties.
type Feature struct {
	ID    string
	Label string
	Props map[string][]string
	Shapes
}

func (f *Feature) addProp(key, value string) {
	if f.Props == nil {
		f.Props = make(map[string][]string)
	}
	f.Props[key] = append(f.Props[key], value)
}

// PropKeys returns property names in sorted order.
func (f Feature) PropKeys() []string {
	keys := make([]string, 0, len(f.Props))
	for k := range f.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// labelKeys are the property names tried, in order, for a feature label.
var labelKeys = []string{"label", "name", "title"}

func (f *Feature) pickLabel() {
	if f.Label != "" {
		return
	}
	for _, k := range labelKeys {
		if v := f.Props[k]; len(v) > 0 && v[0] != "" {
			f.Label = v[0]
			return
		}
	}
}
