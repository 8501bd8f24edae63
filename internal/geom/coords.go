package geom

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatLatLng renders p as "lat,lng".
func FormatLatLng(p orb.Point) string {
	return formatFloat(p.Lat()) + "," + formatFloat(p.Lon())
}

// FormatPath renders pts as "lat,lng" pairs joined by sep.
func FormatPath(pts []orb.Point, sep string) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = FormatLatLng(p)
	}
	return strings.Join(parts, sep)
}

// ParseCoordinates splits s on sep into "a,b" pairs. Pairs are read as
// lat,lng unless lngFirst is set. Pairs that do not parse are skipped.
func ParseCoordinates(s, sep string, lngFirst bool) []orb.Point {
	if sep == "" {
		sep = ";"
	}
	var out []orb.Point
	for _, pair := range strings.Split(s, sep) {
		ab := strings.Split(pair, ",")
		if len(ab) < 2 {
			continue
		}
		a, err1 := strconv.ParseFloat(strings.TrimSpace(ab[0]), 64)
		b, err2 := strconv.ParseFloat(strings.TrimSpace(ab[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if lngFirst {
			out = append(out, orb.Point{a, b})
		} else {
			out = append(out, orb.Point{b, a})
		}
	}
	return out
}
