package geom

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

type kmlCoords struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer kmlRing   `xml:"outerBoundaryIs"`
	Inner []kmlRing `xml:"innerBoundaryIs"`
}

type kmlRing struct {
	LinearRing kmlCoords `xml:"LinearRing"`
}

type kmlGeometry struct {
	Points      []kmlCoords  `xml:"Point"`
	LineStrings []kmlCoords  `xml:"LineString"`
	Polygons    []kmlPolygon `xml:"Polygon"`
}

type kmlPlacemark struct {
	ID          string `xml:"id,attr"`
	Name        string `xml:"name"`
	Description string `xml:"description"`
	kmlGeometry
	Multi        []kmlGeometry `xml:"MultiGeometry"`
	ExtendedData struct {
		Data []struct {
			Name  string `xml:"name,attr"`
			Value string `xml:"value"`
		} `xml:"Data"`
	} `xml:"ExtendedData"`
}

// DecodeKML extracts every Placemark, wherever it is nested. KML coordinates
// are "lon,lat[,alt]"; altitude is ignored.
func DecodeKML(r io.Reader) ([]Feature, error) {
	dec := xml.NewDecoder(r)
	var out []Feature
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}
		var pm kmlPlacemark
		if err := dec.DecodeElement(&pm, &se); err != nil {
			return nil, err
		}
		out = append(out, pm.feature())
	}
	if len(out) == 0 {
		return nil, errors.New("kml: no placemarks found")
	}
	return out, nil
}

func (pm kmlPlacemark) feature() Feature {
	f := Feature{ID: pm.ID, Label: strings.TrimSpace(pm.Name)}
	if d := strings.TrimSpace(pm.Description); d != "" {
		f.addProp("description", d)
	}
	for _, d := range pm.ExtendedData.Data {
		if v := strings.TrimSpace(d.Value); d.Name != "" && v != "" {
			f.addProp(d.Name, v)
		}
	}
	add := func(g kmlGeometry) {
		for _, p := range g.Points {
			f.Points = append(f.Points, parseKMLCoords(p.Coordinates)...)
		}
		for _, ls := range g.LineStrings {
			f.Add(orb.LineString(parseKMLCoords(ls.Coordinates)))
		}
		for _, poly := range g.Polygons {
			outer := orb.Ring(parseKMLCoords(poly.Outer.LinearRing.Coordinates))
			if len(outer) == 0 {
				continue
			}
			p := orb.Polygon{outer}
			for _, in := range poly.Inner {
				p = append(p, orb.Ring(parseKMLCoords(in.LinearRing.Coordinates)))
			}
			f.Add(p)
		}
	}
	add(pm.kmlGeometry)
	for _, m := range pm.Multi {
		add(m)
	}
	return f
}

// parseKMLCoords reads whitespace separated "lon,lat[,alt]" tuples.
func parseKMLCoords(s string) []orb.Point {
	var pts []orb.Point
	for _, tuple := range strings.Fields(s) {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts
}
