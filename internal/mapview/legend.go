package mapview

import (
	"math"
	"strconv"

	"geoplot/internal/coder"
	"geoplot/internal/marker"
)

type Channel string

const (
	ColorChannel Channel = "color"
	SizeChannel  Channel = "size"
	IconChannel  Channel = "icon"
)

// LegendEntry is one legend row. Value is a color, a pixel size or an icon
// URL depending on the channel; Swatch, when set, is an image URL showing it.
type LegendEntry struct {
	Channel Channel
	Value   string
	Label   string
	Swatch  string
}

// LegendSection is the legend of one channel.
type LegendSection struct {
	Channel  Channel
	Label    string
	Gradient []coder.GradientPoint[string]
	Entries  []LegendEntry
}

type Legend []LegendSection

// LegendWidget displays the legend next to the map.
type LegendWidget interface {
	Clear()
	AddLegendLabel(label string, ch Channel)
	AddEntry(e LegendEntry)
	AddGradient(points []coder.GradientPoint[string])
}

// Render replays the legend onto w.
func (l Legend) Render(w LegendWidget) {
	if w == nil {
		return
	}
	for _, s := range l {
		if s.Label != "" {
			w.AddLegendLabel(s.Label, s.Channel)
		}
		if s.Gradient != nil {
			w.AddGradient(s.Gradient)
		}
		for _, e := range s.Entries {
			w.AddEntry(e)
		}
	}
}

// channelState is one channel's coder and the flags gathered while plotting.
type channelState[V comparable] struct {
	coder coder.Coder[V]
	flags *coder.Flags
	label string
}

type legendInput struct {
	color *channelState[string]
	size  *channelState[float64]
	icon  *channelState[string]
	shape string
	// painter renders swatches; nil leaves Swatch empty.
	painter *marker.Painter
}

func formatSize(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// buildLegend lists, per active channel, the sorted keys seen while plotting
// followed by others, mixed and missing when raised. A color gradient is
// shown as such instead of keys; a size gradient is sampled at six evenly
// spaced values and shows no special cases.
func buildLegend(in legendInput) Legend {
	var out Legend
	swatchColor := func(c string) string {
		if in.painter == nil {
			return ""
		}
		return in.painter.SwatchURL(in.shape, c)
	}
	swatchSize := func(v float64) string {
		if in.painter == nil {
			return ""
		}
		return in.painter.SizeSwatchURL(in.shape, int(math.Round(v)))
	}

	if c := in.color; c != nil {
		s := LegendSection{Channel: ColorChannel, Label: c.label}
		if g, ok := c.coder.(coder.Gradient[string]); ok {
			s.Gradient = g.GradientPoints()
		} else {
			for _, k := range c.flags.Keys.Sorted() {
				v, _ := c.coder.Translate(k)
				s.Entries = append(s.Entries, LegendEntry{Channel: ColorChannel, Value: v, Label: k, Swatch: swatchColor(v)})
			}
		}
		s.Entries = append(s.Entries, specialEntries(c, ColorChannel, func(v string) string { return v }, swatchColor)...)
		out = append(out, s)
	}

	if c := in.size; c != nil {
		s := LegendSection{Channel: SizeChannel, Label: c.label}
		if g, ok := c.coder.(coder.Gradient[float64]); ok {
			pts := g.GradientPoints()
			if len(pts) > 0 {
				first, last := pts[0].Value, pts[len(pts)-1].Value
				space := (last - first) / 5
				for i := 0; i < 6; i++ {
					k := strconv.Itoa(int(math.Floor(first + space*float64(i))))
					v, _ := c.coder.Translate(k)
					s.Entries = append(s.Entries, LegendEntry{Channel: SizeChannel, Value: formatSize(v), Label: k, Swatch: swatchSize(v)})
				}
			}
		} else {
			for _, k := range c.flags.Keys.Sorted() {
				v, _ := c.coder.Translate(k)
				s.Entries = append(s.Entries, LegendEntry{Channel: SizeChannel, Value: formatSize(v), Label: k, Swatch: swatchSize(v)})
			}
			s.Entries = append(s.Entries, specialEntries(c, SizeChannel, formatSize, swatchSize)...)
		}
		out = append(out, s)
	}

	if c := in.icon; c != nil {
		s := LegendSection{Channel: IconChannel, Label: c.label}
		self := func(v string) string { return v }
		for _, k := range c.flags.Keys.Sorted() {
			v, _ := c.coder.Translate(k)
			s.Entries = append(s.Entries, LegendEntry{Channel: IconChannel, Value: v, Label: k, Swatch: v})
		}
		s.Entries = append(s.Entries, specialEntries(c, IconChannel, self, self)...)
		out = append(out, s)
	}
	return out
}

func specialEntries[V comparable](c *channelState[V], ch Channel, format func(V) string, swatch func(V) string) []LegendEntry {
	var out []LegendEntry
	add := func(v V, label string) {
		out = append(out, LegendEntry{Channel: ch, Value: format(v), Label: label, Swatch: swatch(v)})
	}
	if c.flags.Others {
		add(c.coder.OthersValue(), c.coder.OthersLabel())
	}
	if c.flags.Mixed {
		add(c.coder.MixedValue(), c.coder.MixedLabel())
	}
	if c.flags.Missing {
		add(c.coder.MissingValue(), c.coder.MissingLabel())
	}
	return out
}
