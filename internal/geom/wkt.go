package geom

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
)

// ParseWKT parses a single WKT geometry (POINT, MULTIPOINT, LINESTRING,
// POLYGON, their MULTI forms and GEOMETRYCOLLECTION).
func ParseWKT(s string) (Shapes, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Shapes{}, errors.New("empty wkt")
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return Shapes{}, fmt.Errorf("wkt: %w", err)
	}
	var sh Shapes
	sh.Add(g)
	if sh.Empty() {
		return Shapes{}, errors.New("wkt: no coordinates parsed")
	}
	return sh, nil
}

// DecodeWKT reads one geometry per line. Blank lines and lines starting with
// '#' are skipped.
func DecodeWKT(r io.Reader) ([]Feature, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var out []Feature
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		sh, err := ParseWKT(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, Feature{Shapes: sh})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("wkt: no geometries found")
	}
	return out, nil
}
