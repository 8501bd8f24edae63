package marker

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	xdraw "golang.org/x/image/draw"

	"geoplot/internal/hexcolor"
)

// Drawer rasterizes markers locally.
type Drawer interface {
	Draw(spec DrawSpec) (marker, shadow *image.NRGBA, err error)
}

// DrawSpec describes one marker body. Height excludes the pin.
type DrawSpec struct {
	Width    int
	Height   int
	Color    string
	Label    string
	Icon     image.Image
	IconSize int
	Settings Settings
}

// Canvas is the procedural Drawer: a circle or rounded square body with an
// optional pin, an optional clipped icon, a 1px border, a centered label and
// a sheared shadow.
type Canvas struct{}

type pt struct{ x, y float64 }

const lineWidth = 1.0

func (Canvas) Draw(spec DrawSpec) (*image.NRGBA, *image.NRGBA, error) {
	if t, ok := spec.Icon.(*TaintedImage); ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrTainted, t.Origin)
	}
	s := spec.Settings
	w, h := spec.Width, spec.Height
	if w <= 0 || h <= 0 {
		return nil, nil, fmt.Errorf("marker: bad size %dx%d", w, h)
	}
	fill, err := hexcolor.Parse(spec.Color)
	if err != nil {
		return nil, nil, err
	}
	border := color.NRGBA{A: 255}
	if s.BorderColor != "" {
		if border, err = hexcolor.Parse(s.BorderColor); err != nil {
			return nil, nil, err
		}
	}
	markerHeight := h
	if s.Pin {
		markerHeight += s.PinHeight
	}
	outline := bodyOutline(float64(w), float64(h), s)

	dst := image.NewNRGBA(image.Rect(0, 0, w, markerHeight))
	body := rasterize(outline, w, markerHeight)

	fill.A = alphaByte(s.ShapeAlpha)
	xdraw.DrawMask(dst, dst.Bounds(), image.NewUniform(fill), image.Point{}, body, image.Point{}, xdraw.Over)

	if spec.Icon != nil {
		drawIcon(dst, body, spec.Icon, float64(w), float64(h), s)
	}

	border.A = alphaByte(s.ShapeAlpha)
	xdraw.DrawMask(dst, dst.Bounds(), image.NewUniform(border), image.Point{}, strokeMask(outline, w, markerHeight), image.Point{}, xdraw.Over)

	shadow := drawShadow(dst, s.ShapeAlpha)

	if spec.Label != "" {
		drawLabel(dst, spec.Label, float64(w), float64(h))
	}
	return dst, shadow, nil
}

func alphaByte(a float64) uint8 {
	if a <= 0 {
		return 0
	}
	if a >= 1 {
		return 255
	}
	return uint8(a*255 + 0.5)
}

// bodyOutline returns the closed body path, pin included.
func bodyOutline(w, h float64, s Settings) []pt {
	bodyW := w - lineWidth
	bodyH := h - lineWidth
	pinW, pinH := float64(s.PinWidth), float64(s.PinHeight)
	tip := pt{w / 2, h + pinH - lineWidth/2}

	if s.Shape == "circle" {
		r := bodyW / 2
		if !s.Pin {
			return arc(w/2, h/2, r, 0, 2*math.Pi)
		}
		meet := math.Atan2(pinW/2, bodyH/2)
		pts := arc(w/2, h/2, r, math.Pi/2+meet, math.Pi/2-meet+2*math.Pi)
		return append(pts, tip)
	}

	r := bodyW / 4
	top, left := lineWidth/2, lineWidth/2
	bot, right := h-lineWidth/2, w-lineWidth/2
	var pts []pt
	pts = append(pts, arc(right-r, top+r, r, -math.Pi/2, 0)...)
	pts = append(pts, arc(right-r, bot-r, r, 0, math.Pi/2)...)
	if s.Pin {
		pts = append(pts, pt{w/2 + pinW/2, bot}, tip, pt{w/2 - pinW/2, bot})
	}
	pts = append(pts, arc(left+r, bot-r, r, math.Pi/2, math.Pi)...)
	pts = append(pts, arc(left+r, top+r, r, math.Pi, 3*math.Pi/2)...)
	return pts
}

// arc samples a circular arc from a0 to a1 (radians, y down).
func arc(cx, cy, r, a0, a1 float64) []pt {
	n := int(math.Ceil(math.Abs(a1-a0) * math.Max(r, 1) / 2))
	if n < 4 {
		n = 4
	}
	out := make([]pt, 0, n+1)
	for i := 0; i <= n; i++ {
		a := a0 + (a1-a0)*float64(i)/float64(n)
		out = append(out, pt{cx + r*math.Cos(a), cy + r*math.Sin(a)})
	}
	return out
}

func rasterize(poly []pt, w, h int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	if len(poly) < 3 {
		return mask
	}
	z := vector.NewRasterizer(w, h)
	z.MoveTo(float32(poly[0].x), float32(poly[0].y))
	for _, p := range poly[1:] {
		z.LineTo(float32(p.x), float32(p.y))
	}
	z.ClosePath()
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// strokeMask rasterizes a lineWidth wide stroke along the closed outline.
func strokeMask(poly []pt, w, h int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		dx, dy := b.x-a.x, b.y-a.y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*lineWidth/2, dx/l*lineWidth/2
		seg := rasterize([]pt{
			{a.x + nx, a.y + ny}, {b.x + nx, b.y + ny},
			{b.x - nx, b.y - ny}, {a.x - nx, a.y - ny},
		}, w, h)
		for j, v := range seg.Pix {
			if v > mask.Pix[j] {
				mask.Pix[j] = v
			}
		}
	}
	return mask
}

// drawIcon composites icon centered on the body, scaled per the fit mode and
// clipped to the body mask.
func drawIcon(dst *image.NRGBA, clip *image.Alpha, icon image.Image, w, h float64, s Settings) {
	b := icon.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	if iw == 0 || ih == 0 {
		return
	}
	widthScale, heightScale := w/iw, h/ih
	var scale float64
	switch s.IconFit {
	case "width":
		scale = widthScale
	case "height":
		scale = heightScale
	case "both", "larger":
		scale = math.Min(heightScale, widthScale)
	default:
		scale = math.Max(heightScale, widthScale)
	}
	iconScale := s.IconScale
	if iconScale == 0 {
		iconScale = 1
	}
	scale *= iconScale
	cx, cy := w/2+s.IconOffsetX, h/2+s.IconOffsetY
	aff := f64.Aff3{
		scale, 0, cx - scale*(iw/2+float64(b.Min.X)),
		0, scale, cy - scale*(ih/2+float64(b.Min.Y)),
	}
	xdraw.BiLinear.Transform(dst, aff, icon, b, xdraw.Over, &xdraw.Options{DstMask: clip})
}

// drawShadow shears the marker silhouette half a pixel left per row, halves
// its height and tints it black at alpha times the silhouette coverage.
func drawShadow(marker *image.NRGBA, alpha float64) *image.NRGBA {
	w, h := marker.Bounds().Dx(), marker.Bounds().Dy()
	sil := image.NewNRGBA(marker.Bounds())
	for i := 3; i < len(marker.Pix); i += 4 {
		sil.Pix[i] = uint8(float64(marker.Pix[i])*alpha + 0.5)
	}
	shadow := image.NewNRGBA(image.Rect(0, 0, w+h/2, h))
	hf := float64(h)
	aff := f64.Aff3{
		1, -0.5, hf / 2,
		0, 0.5, hf / 2,
	}
	xdraw.BiLinear.Transform(shadow, aff, sil, sil.Bounds(), xdraw.Over, nil)
	return shadow
}

var (
	boldOnce sync.Once
	boldFont *opentype.Font
	boldErr  error
	// opentype faces are not safe for concurrent use
	labelMu sync.Mutex
)

const labelPt = 12

func labelFace(size float64) (font.Face, error) {
	boldOnce.Do(func() {
		boldFont, boldErr = opentype.Parse(gobold.TTF)
	})
	if boldErr != nil {
		return nil, boldErr
	}
	return opentype.NewFace(boldFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     96,
		Hinting: font.HintingFull,
	})
}

// drawLabel centers label on the body in black, shrinking it to fit
// w/1.4 pixels.
func drawLabel(dst *image.NRGBA, label string, w, h float64) {
	labelMu.Lock()
	defer labelMu.Unlock()
	face, err := labelFace(labelPt)
	if err != nil {
		return
	}
	maxW := w / 1.4
	if tw := float64(font.MeasureString(face, label).Ceil()); tw > maxW && tw > 0 {
		face.Close()
		if face, err = labelFace(labelPt * maxW / tw); err != nil {
			return
		}
	}
	defer face.Close()
	m := face.Metrics()
	tw := font.MeasureString(face, label).Ceil()
	x := int(math.Round(w/2)) - tw/2
	y := int(math.Round(h/2)) + (m.Ascent.Ceil()-m.Descent.Ceil())/2
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}

// DataURL encodes img as a PNG data URL.
func DataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
