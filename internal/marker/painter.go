package marker

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	RendererMarker = "map-marker"
	RendererShadow = "map-marker-shadow"

	defaultAlpha = 0.7
	maxPainterPx = 512
)

// Painter builds URLs for a remote marker rendering service.
type Painter struct {
	Prefix string // service URL; a trailing '?' is added when missing
}

func (p Painter) base() string {
	if strings.HasSuffix(p.Prefix, "?") {
		return p.Prefix
	}
	return p.Prefix + "?"
}

// URLs returns the marker and shadow URLs for a body of width x height
// pixels. The pin is only requested when no icon size is set.
func (p Painter) URLs(width, height int, color, label, iconURL string, iconSize int, s Settings) (markerURL, shadowURL string) {
	img := []string{
		"renderer=" + RendererMarker,
		"shape=" + url.QueryEscape(s.Shape),
	}
	if s.ShapeAlpha != defaultAlpha {
		img = append(img, "alpha="+formatNum(s.ShapeAlpha))
	}
	img = append(img,
		"width="+strconv.Itoa(width),
		"height="+strconv.Itoa(height),
		"background="+strings.TrimPrefix(color, "#"),
		"label="+url.QueryEscape(label),
	)
	shadow := []string{
		"renderer=" + RendererShadow,
		"shape=" + url.QueryEscape(s.Shape),
		"width=" + strconv.Itoa(width),
		"height=" + strconv.Itoa(height),
	}
	var pin []string
	if s.Pin && !(iconSize > 0) {
		pin = append(pin,
			"pinHeight="+strconv.Itoa(s.PinHeight),
			"pinWidth="+strconv.Itoa(ceilHalf(s.PinWidth)*2))
	} else {
		pin = append(pin, "pin=false")
	}
	if iconURL != "" {
		img = append(img, "icon="+url.QueryEscape(iconURL))
		if s.IconFit != "smaller" {
			img = append(img, "iconFit="+url.QueryEscape(s.IconFit))
		}
		if s.IconScale != 1 {
			img = append(img, "iconScale="+formatNum(s.IconScale))
		}
		if s.IconOffsetX != 0 {
			img = append(img, "iconX="+formatNum(s.IconOffsetX))
		}
		if s.IconOffsetY != 0 {
			img = append(img, "iconY="+formatNum(s.IconOffsetY))
		}
	}
	markerURL = p.base() + strings.Join(append(img, pin...), "&") + "&.png"
	shadowURL = p.base() + strings.Join(append(shadow, pin...), "&") + "&.png"
	return markerURL, shadowURL
}

// SwatchURL is a small pinned marker for a color legend entry.
func (p Painter) SwatchURL(shape, color string) string {
	return p.base() + "renderer=" + RendererMarker + "&shape=" + url.QueryEscape(shape) +
		"&width=20&height=20&pinHeight=5&background=" + strings.TrimPrefix(color, "#")
}

// SizeSwatchURL is an unpinned marker of the given size for a size legend
// entry.
func (p Painter) SizeSwatchURL(shape string, size int) string {
	return p.base() + "renderer=" + RendererMarker + "&shape=" + url.QueryEscape(shape) +
		"&width=" + strconv.Itoa(size) + "&height=" + strconv.Itoa(size) + "&pinHeight=0"
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Params is a decoded painter request.
type Params struct {
	Renderer string
	Width    int
	Height   int
	Color    string
	Label    string
	IconURL  string
	Settings Settings
}

// ParseParams decodes a painter query. Missing optional values take the
// marker defaults; pinHeight=0 or pin=false disables the pin.
func ParseParams(q url.Values) (Params, error) {
	p := Params{Renderer: q.Get("renderer"), Settings: DefaultSettings()}
	switch p.Renderer {
	case RendererMarker, RendererShadow:
	case "":
		return Params{}, errors.New("painter: missing renderer")
	default:
		return Params{}, fmt.Errorf("painter: unknown renderer %q", p.Renderer)
	}
	var err error
	if p.Width, err = dimension(q, "width"); err != nil {
		return Params{}, err
	}
	if p.Height, err = dimension(q, "height"); err != nil {
		return Params{}, err
	}
	if shape := q.Get("shape"); shape != "" {
		if shape != "circle" && shape != "square" {
			return Params{}, fmt.Errorf("painter: unknown shape %q", shape)
		}
		p.Settings.Shape = shape
	}
	p.Color = "#FF9000"
	if bg := q.Get("background"); bg != "" {
		p.Color = "#" + strings.ToUpper(strings.TrimPrefix(bg, "#"))
	}
	p.Label = q.Get("label")
	if icon := q.Get("icon"); icon != "" {
		if u, err := url.Parse(icon); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return Params{}, fmt.Errorf("painter: icon %q is not an absolute http(s) URL", icon)
		}
		p.IconURL = icon
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"alpha", &p.Settings.ShapeAlpha},
		{"iconScale", &p.Settings.IconScale},
		{"iconX", &p.Settings.IconOffsetX},
		{"iconY", &p.Settings.IconOffsetY},
	}
	for _, f := range floats {
		if v := q.Get(f.name); v != "" {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return Params{}, fmt.Errorf("painter: %s: %w", f.name, err)
			}
			*f.dst = x
		}
	}
	if fit := q.Get("iconFit"); fit != "" {
		p.Settings.IconFit = fit
	}
	if q.Get("pin") == "false" {
		p.Settings.Pin = false
	}
	if v := q.Get("pinHeight"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxPainterPx {
			return Params{}, fmt.Errorf("painter: bad pinHeight %q", v)
		}
		p.Settings.PinHeight = n
		p.Settings.Pin = n > 0
	}
	if v := q.Get("pinWidth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxPainterPx {
			return Params{}, fmt.Errorf("painter: bad pinWidth %q", v)
		}
		p.Settings.PinWidth = n
	}
	return p, nil
}

func dimension(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, fmt.Errorf("painter: missing %s", name)
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > maxPainterPx {
		return 0, fmt.Errorf("painter: bad %s %q", name, v)
	}
	return n, nil
}
