package tui

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
)

// brailleBuf is a w x h cell canvas with a 2x4 micro-pixel grid per cell.
// Each cell remembers the color of the last pixel set in it.
type brailleBuf struct {
	w, h int        // in cells
	m    [][]uint8  // per-cell 8-bit mask
	col  [][]string // per-cell "#RRGGBB", empty for default
}

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	col := make([][]string, h)
	for i := range m {
		m[i] = make([]uint8, w)
		col[i] = make([]string, w)
	}
	return &brailleBuf{w: w, h: h, m: m, col: col}
}

var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// setPixel sets a micro-pixel at micro coords (2x4 per cell)
func (b *brailleBuf) setPixel(mx, my int, color string) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cy >= b.h || cx >= b.w {
		return
	}
	b.m[cy][cx] |= brailleBits[mx%2][my%4]
	if color != "" {
		b.col[cy][cx] = color
	}
}

// drawLineMicro draws a line on the microgrid using Bresenham
func (b *brailleBuf) drawLineMicro(x0, y0, x1, y1 int, color string) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		b.setPixel(x0, y0, color)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// strokePath draws the segments of path clipped to the buffer.
func (b *brailleBuf) strokePath(path [][2]int, closed bool, color string) {
	ls := make(orb.LineString, 0, len(path)+1)
	for _, p := range path {
		ls = append(ls, orb.Point{float64(p[0]), float64(p[1])})
	}
	if closed && len(ls) > 2 && !ls[0].Equal(ls[len(ls)-1]) {
		ls = append(ls, ls[0])
	}
	view := orb.Bound{Min: orb.Point{-1, -1}, Max: orb.Point{float64(b.w * 2), float64(b.h * 4)}}
	for _, part := range clip.LineString(view, ls) {
		for i := 0; i+1 < len(part); i++ {
			b.drawLineMicro(
				int(math.Round(part[i][0])), int(math.Round(part[i][1])),
				int(math.Round(part[i+1][0])), int(math.Round(part[i+1][1])),
				color)
		}
	}
}

// fillRing fills a closed micro-pixel ring with the even-odd rule, one
// scanline at a time. Holes are not subtracted.
func (b *brailleBuf) fillRing(ring [][2]int, color string) {
	if len(ring) < 3 {
		return
	}
	for y := 0; y < b.h*4; y++ {
		var xs []int
		for i := range ring {
			a, c := ring[i], ring[(i+1)%len(ring)]
			if a[1] == c[1] {
				continue
			}
			if (y >= a[1] && y < c[1]) || (y >= c[1] && y < a[1]) {
				t := float64(y-a[1]) / float64(c[1]-a[1])
				xs = append(xs, int(float64(a[0])+t*float64(c[0]-a[0])))
			}
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := max(0, xs[i]); x <= xs[i+1] && x < b.w*2; x++ {
				b.setPixel(x, y, color)
			}
		}
	}
}

// cell returns the braille rune of a cell, or ' ' when empty.
func (b *brailleBuf) cell(x, y int) rune {
	if mask := b.m[y][x]; mask != 0 {
		return rune(0x2800 + int(mask))
	}
	return ' '
}
