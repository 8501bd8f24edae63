package geom

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

func TestDecodeGeoJSON_FeatureCollection(t *testing.T) {
	src := `{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"a","properties":{"name":"Alpha","tags":["x","y"],"n":3},
		 "geometry":{"type":"Point","coordinates":[20,10]}},
		{"type":"Feature","properties":{"id":"b"},
		 "geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}
	]}`
	fs, err := DecodeGeoJSON([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fs) != 2 {
		t.Fatalf("expected 2 features, got %d", len(fs))
	}
	a := fs[0]
	if a.ID != "a" || a.Label != "Alpha" {
		t.Fatalf("unexpected feature a: %+v", a)
	}
	if len(a.Points) != 1 || a.Points[0] != (orb.Point{20, 10}) {
		t.Fatalf("unexpected points: %v", a.Points)
	}
	if got := a.Props["tags"]; len(got) != 2 || got[1] != "y" {
		t.Fatalf("expected array property to split, got %v", got)
	}
	if fs[1].ID != "b" || len(fs[1].Polygons) != 1 {
		t.Fatalf("unexpected feature b: %+v", fs[1])
	}
}

func TestDecodeGeoJSON_BareGeometry(t *testing.T) {
	fs, err := DecodeGeoJSON([]byte(`{"type":"MultiPoint","coordinates":[[1,2],[3,4]]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fs) != 1 || len(fs[0].Points) != 2 {
		t.Fatalf("unexpected result: %+v", fs)
	}
	if _, err := DecodeGeoJSON([]byte(`{"coordinates":[1,2]}`)); err == nil {
		t.Fatalf("expected error for missing type")
	}
}

func TestDecodeCSV(t *testing.T) {
	src := "id,Name,Latitude,Longitude,kind\n1,One,10,20,cafe\n2,Two,,,bar\n"
	fs, err := DecodeCSV(strings.NewReader(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(fs))
	}
	if fs[0].ID != "1" || fs[0].Label != "One" || fs[0].Props["kind"][0] != "cafe" {
		t.Fatalf("unexpected first row: %+v", fs[0])
	}
	if len(fs[0].Points) != 1 || fs[0].Points[0].Lat() != 10 || fs[0].Points[0].Lon() != 20 {
		t.Fatalf("unexpected point: %v", fs[0].Points)
	}
	if !fs[1].Empty() {
		t.Fatalf("expected row without coordinates to have no geometry")
	}
	if _, err := DecodeCSV(strings.NewReader("a,b\n1,2\n")); err == nil {
		t.Fatalf("expected error without lat/lon columns")
	}
}

func TestDecodeKML_NestedPlacemarks(t *testing.T) {
	src := `<?xml version="1.0"?>
<kml xmlns="http://www.opengis.net/kml/2.2"><Document><Folder>
<Placemark id="p1"><name>Hut</name><description>small</description>
  <Point><coordinates>20,10,0</coordinates></Point></Placemark>
<Placemark><name>Trail</name>
  <LineString><coordinates>0,0 1,1 2,2</coordinates></LineString></Placemark>
<Placemark><name>Lake</name><Polygon><outerBoundaryIs><LinearRing>
  <coordinates>0,0 1,0 1,1 0,0</coordinates></LinearRing></outerBoundaryIs></Polygon></Placemark>
</Folder></Document></kml>`
	fs, err := DecodeKML(strings.NewReader(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fs) != 3 {
		t.Fatalf("expected 3 placemarks, got %d", len(fs))
	}
	if fs[0].ID != "p1" || fs[0].Label != "Hut" || fs[0].Props["description"][0] != "small" {
		t.Fatalf("unexpected placemark: %+v", fs[0])
	}
	if len(fs[1].Lines) != 1 || len(fs[1].Lines[0]) != 3 {
		t.Fatalf("unexpected line: %+v", fs[1].Lines)
	}
	if len(fs[2].Polygons) != 1 {
		t.Fatalf("expected polygon")
	}
}

func TestDecodeWKT(t *testing.T) {
	src := "# comment\nPOINT (20 10)\n\nLINESTRING (0 0, 1 1)\nPOLYGON ((0 0, 1 0, 1 1, 0 0))\n"
	fs, err := DecodeWKT(strings.NewReader(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fs) != 3 {
		t.Fatalf("expected 3 geometries, got %d", len(fs))
	}
	if _, err := DecodeWKT(strings.NewReader("POINT (oops)\n")); err == nil {
		t.Fatalf("expected error for bad wkt")
	}
}

func TestCoordinates(t *testing.T) {
	pts := ParseCoordinates("10,20;11,21; bad ;12,22", ";", false)
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %v", pts)
	}
	if pts[0].Lat() != 10 || pts[0].Lon() != 20 {
		t.Fatalf("unexpected first point: %v", pts[0])
	}
	lngFirst := ParseCoordinates("20,10", ";", true)
	if lngFirst[0] != pts[0] {
		t.Fatalf("expected lng-first parse to match, got %v", lngFirst[0])
	}
	if got := FormatPath(pts[:2], ";"); got != "10,20;11,21" {
		t.Fatalf("unexpected path: %s", got)
	}
}

func TestShapesBound(t *testing.T) {
	var s Shapes
	s.Add(orb.MultiPoint{{1, 2}, {-3, 5}})
	s.Add(orb.LineString{{0, 0}, {4, -1}})
	b := s.Bound()
	if b.Min != (orb.Point{-3, -1}) || b.Max != (orb.Point{4, 5}) {
		t.Fatalf("unexpected bound: %+v", b)
	}
}
