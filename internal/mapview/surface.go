package mapview

import (
	"github.com/paulmach/orb"

	"geoplot/internal/marker"
)

// Positions are orb points: X is longitude, Y is latitude.

// MapOptions configures a new map surface.
type MapOptions struct {
	Center          orb.Point
	Zoom            float64
	Type            string // normal, satellite, hybrid or terrain
	Size            string // control size hint
	Height          int
	ScrollWheelZoom bool
	ScaleControl    bool
	OverviewControl bool
}

// MarkerOptions describes a point marker.
type MarkerOptions struct {
	Position orb.Point
	Icon     marker.Image
	Shadow   marker.Image
	Shape    marker.HitRegion
	Color    string
	Label    string
}

// PolyOptions describes a polygon or polyline. Fill values are ignored for
// polylines.
type PolyOptions struct {
	Path          []orb.Point
	StrokeColor   string
	StrokeWeight  int
	StrokeOpacity float64
	FillColor     string
	FillOpacity   float64
}

// Overlay is anything the view attached to the map.
type Overlay interface {
	Remove()
	// OnClick registers fn for clicks; pos is the clicked position.
	OnClick(fn func(pos orb.Point))
}

// Marker is a point overlay whose icon can be replaced in place.
type Marker interface {
	Overlay
	SetIcon(img marker.Image)
}

// InfoWindowOptions opens a detail popup for Items, anchored to Anchor or
// placed at Position when set.
type InfoWindowOptions struct {
	Items    []string
	Position *orb.Point
	Anchor   Overlay
}

type InfoWindow interface {
	Close()
}

// Map is the mapping engine the view plots onto.
type Map interface {
	AddMarker(opts MarkerOptions) Marker
	AddPolygon(opts PolyOptions) Overlay
	AddPolyline(opts PolyOptions) Overlay
	OpenInfoWindow(opts InfoWindowOptions) InfoWindow
	FitBounds(b orb.Bound)
	Zoom() float64
	SetZoom(z float64)
}

// MapConstructor builds the map surface for a view. A function of this type
// may also be passed as the mapConstructor setting.
type MapConstructor func(opts MapOptions) Map
