package coder

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"geoplot/internal/hexcolor"
)

// gradient interpolates numeric keys between sorted points. Keys below the
// first point or above the last clamp to the ends.
type gradient[V comparable] struct {
	cases[V]
	points []GradientPoint[V]
	lerp   func(a, b V, t float64) V
}

func newGradient[V comparable](points []GradientPoint[V], lerp func(a, b V, t float64) V, c cases[V]) gradient[V] {
	ps := append([]GradientPoint[V](nil), points...)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Value < ps[j].Value })
	return gradient[V]{cases: c, points: ps, lerp: lerp}
}

func (g gradient[V]) lookup(key string) (V, bool) {
	var zero V
	x, err := strconv.ParseFloat(strings.TrimSpace(key), 64)
	if err != nil || math.IsNaN(x) || len(g.points) == 0 {
		return zero, false
	}
	ps := g.points
	if x <= ps[0].Value {
		return ps[0].Out, true
	}
	for i := 1; i < len(ps); i++ {
		if x <= ps[i].Value {
			a, b := ps[i-1], ps[i]
			if b.Value == a.Value {
				return b.Out, true
			}
			return g.lerp(a.Out, b.Out, (x-a.Value)/(b.Value-a.Value)), true
		}
	}
	return ps[len(ps)-1].Out, true
}

func (g gradient[V]) Translate(key string) (V, bool) {
	v, ok := g.lookup(key)
	if !ok {
		return g.others.Value, false
	}
	return v, true
}

func (g gradient[V]) TranslateSet(keys KeySet, flags *Flags) V {
	return translateSet(g.cases, g.lookup, keys, flags)
}

func (g gradient[V]) GradientPoints() []GradientPoint[V] {
	return append([]GradientPoint[V](nil), g.points...)
}

// ColorGradient interpolates "#RRGGBB" colors.
type ColorGradient struct{ gradient[string] }

func NewColorGradient(points []GradientPoint[string]) *ColorGradient {
	lerp := func(a, b string, t float64) string {
		ca, err1 := hexcolor.Parse(a)
		cb, err2 := hexcolor.Parse(b)
		if err1 != nil || err2 != nil {
			return a
		}
		return hexcolor.Format(hexcolor.Lerp(ca, cb, t))
	}
	return &ColorGradient{newGradient(points, lerp, cases[string]{
		others:  Case[string]{Value: "#AAAAAA", Label: "others"},
		mixed:   Case[string]{Value: "#FFFFFF", Label: "mixed"},
		missing: Case[string]{Value: "#888888", Label: "missing"},
	})}
}

// SizeGradient interpolates marker sizes.
type SizeGradient struct{ gradient[float64] }

func NewSizeGradient(points []GradientPoint[float64]) *SizeGradient {
	lerp := func(a, b float64, t float64) float64 { return a + (b-a)*t }
	return &SizeGradient{newGradient(points, lerp, cases[float64]{
		others:  Case[float64]{Value: 20, Label: "others"},
		mixed:   Case[float64]{Value: 20, Label: "mixed"},
		missing: Case[float64]{Value: 20, Label: "missing"},
	})}
}
