// Package marker synthesizes map marker bitmaps and their shadows, either
// locally with a procedural drawer or as URLs for a remote painter service.
package marker

import (
	"errors"
	"image"
	"strconv"
	"unicode/utf8"
)

var (
	// ErrTainted is returned by a drawer asked to read back pixels composited
	// from a cross-origin icon.
	ErrTainted = errors.New("marker: icon taints the drawing surface")
	// ErrNoBackend is returned when neither local drawing nor a painter is
	// configured.
	ErrNoBackend = errors.New("marker: no rendering backend")
)

// Settings are the display settings a marker is drawn with. The struct is
// comparable; cached markers are only reused for equal settings.
type Settings struct {
	Shape       string // circle or square
	ShapeWidth  int
	ShapeHeight int
	ShapeAlpha  float64
	Pin         bool
	PinWidth    int
	PinHeight   int
	BorderColor string // empty draws black
	IconFit     string // width, height, both, larger or smaller
	IconScale   float64
	IconOffsetX float64
	IconOffsetY float64
}

func DefaultSettings() Settings {
	return Settings{
		Shape:       "circle",
		ShapeWidth:  24,
		ShapeHeight: 24,
		ShapeAlpha:  0.7,
		Pin:         true,
		PinWidth:    6,
		PinHeight:   6,
		IconFit:     "smaller",
		IconScale:   1,
	}
}

// Request names one marker.
type Request struct {
	Shape    string
	Color    string // "#RRGGBB"
	IconSize int    // >0 overrides the label driven body size
	IconURL  string // empty for no icon
	Label    string
}

// Key is the cache key of r.
func (r Request) Key() string {
	return "#" + r.Shape + "#" + r.Color + "#" + strconv.Itoa(r.IconSize) + "#" + r.IconURL + "#" + r.Label
}

// Image is a marker or shadow image as handed to a map surface.
type Image struct {
	URL    string
	Size   image.Point
	Anchor image.Point
	Bitmap image.Image // nil when URL points at a remote painter
}

// HitRegion is the clickable polygon of a marker, in marker pixels.
type HitRegion []image.Point

// Entry is one synthesized marker.
type Entry struct {
	MarkerImage Image
	ShadowImage Image
	Shape       HitRegion
	Settings    Settings
}

// Layout is the geometry of a marker.
type Layout struct {
	Width      int
	Height     int // pin included
	BodyHeight int
	HalfWidth  int
	Anchor     image.Point
	Shape      HitRegion
	ShadowSize image.Point
}

// ComputeLayout sizes a marker: the body widens by 3px per label character on
// each side and grows as tall, an icon size replaces both, and a pin extends
// the height and notches the hit region.
func ComputeLayout(label string, iconSize int, s Settings) Layout {
	extra := utf8.RuneCountInString(label) * 3
	halfWidth := ceilHalf(s.ShapeWidth) + extra
	bodyHeight := s.ShapeHeight + 2*extra
	width := halfWidth * 2
	height := bodyHeight
	if iconSize > 0 {
		width = iconSize
		halfWidth = ceilHalf(iconSize)
		height = iconSize
		bodyHeight = iconSize
	}
	l := Layout{Width: width, HalfWidth: halfWidth, BodyHeight: bodyHeight}
	if s.Pin {
		pinHalfWidth := ceilHalf(s.PinWidth)
		height += s.PinHeight
		l.Anchor = image.Pt(halfWidth, height)
		l.Shape = HitRegion{
			{0, 0},
			{0, bodyHeight},
			{halfWidth - pinHalfWidth, bodyHeight},
			{halfWidth, height},
			{halfWidth + pinHalfWidth, bodyHeight},
			{width, bodyHeight},
			{width, 0},
		}
	} else {
		l.Anchor = image.Pt(halfWidth, ceilHalf(height))
		l.Shape = HitRegion{{0, 0}, {0, bodyHeight}, {width, bodyHeight}, {width, 0}}
	}
	l.Height = height
	l.ShadowSize = image.Pt(width+height/2, height)
	return l
}

func ceilHalf(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + 1) / 2
}
