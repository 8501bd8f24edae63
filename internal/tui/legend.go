package tui

import (
	"fmt"
	"path"
	"strings"

	"geoplot/internal/coder"
	"geoplot/internal/mapview"
)

// legendPanel is the terminal legend widget: a list of pre-rendered lines.
type legendPanel struct {
	lines []string
}

func (l *legendPanel) Clear() { l.lines = nil }

func (l *legendPanel) AddLegendLabel(label string, _ mapview.Channel) {
	l.lines = append(l.lines, titleStyle.Render(label))
}

func (l *legendPanel) AddEntry(e mapview.LegendEntry) {
	switch e.Channel {
	case mapview.ColorChannel:
		l.lines = append(l.lines, fg(e.Value, "●")+" "+e.Label)
	case mapview.SizeChannel:
		l.lines = append(l.lines, fmt.Sprintf("● %s %s", e.Label, dimStyle.Render(e.Value+"px")))
	case mapview.IconChannel:
		l.lines = append(l.lines, fmt.Sprintf("◆ %s %s", e.Label, dimStyle.Render(path.Base(e.Value))))
	}
}

// AddGradient draws a color ramp between the first and last stops, or a
// stop list for size gradients.
func (l *legendPanel) AddGradient(points []coder.GradientPoint[string]) {
	if len(points) == 0 {
		return
	}
	if !strings.HasPrefix(points[0].Out, "#") {
		var stops []string
		for _, p := range points {
			stops = append(stops, fmt.Sprintf("%g:%spx", p.Value, p.Out))
		}
		l.lines = append(l.lines, strings.Join(stops, " "))
		return
	}
	var ramp strings.Builder
	for _, p := range points {
		ramp.WriteString(fg(p.Out, "█"))
	}
	first, last := points[0], points[len(points)-1]
	l.lines = append(l.lines, fmt.Sprintf("%g %s %g", first.Value, ramp.String(), last.Value))
}

func (l *legendPanel) Empty() bool { return len(l.lines) == 0 }

func (l *legendPanel) View(width int) string {
	out := make([]string, len(l.lines))
	for i, line := range l.lines {
		out[i] = padRight(line, width)
	}
	return strings.Join(out, "\n")
}
