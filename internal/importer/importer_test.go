package importer

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"geoplot/internal/database"
	"geoplot/internal/eventloop"
)

func inlineRegistry() *Registry {
	return NewRegistry(Options{Log: zerolog.Nop(), Loop: eventloop.Immediate, Spawn: eventloop.Inline})
}

func TestRegistry_FirstRegisteredWins(t *testing.T) {
	r := inlineRegistry()
	a := r.Register("text/x", "A", ParserFunc(parseExhibitJSON))
	b := r.Register("text/x", "B", ParserFunc(parseExhibitJSON))
	if !a.IsRegistered() || b.IsRegistered() {
		t.Fatalf("expected first registration to win")
	}
	if imp, _ := r.Lookup("text/x"); imp.Label != "A" {
		t.Fatalf("unexpected importer %q", imp.Label)
	}
	b.Dispose()
	if !r.IsRegistered("text/x") {
		t.Fatalf("disposing the loser must not free the type")
	}
	a.Dispose()
	if r.IsRegistered("text/x") {
		t.Fatalf("expected type to be freed")
	}
	if c := r.Register("text/x", "C", ParserFunc(parseExhibitJSON)); !c.IsRegistered() {
		t.Fatalf("expected re-registration after dispose")
	}
}

func TestDefaults(t *testing.T) {
	r := inlineRegistry()
	if lost := Defaults(r); len(lost) != 0 {
		t.Fatalf("unexpected conflicts: %v", lost)
	}
	if lost := Defaults(r); len(lost) != len(Builtin) {
		t.Fatalf("expected every second registration to lose")
	}
	if strings.Join(r.Types(), ",") != "application/json,application/geo+json,text/csv,application/vnd.google-earth.kml+xml,text/wkt,application/sql" {
		t.Fatalf("unexpected types: %v", r.Types())
	}
}

func TestMIMETypeForPath(t *testing.T) {
	cases := map[string]string{
		"data/cafes.JSON":                 TypeExhibitJSON,
		"x.geojson":                       TypeGeoJSON,
		"http://h/a.csv?x=1":              TypeCSV,
		"a.kml":                           TypeKML,
		"a.wkt":                           TypeWKT,
		"places.sqlite#spots":             TypeSQL,
		"postgres://u@h/db#public.places": TypeSQL,
	}
	for in, want := range cases {
		if got, ok := MIMETypeForPath(in); !ok || got != want {
			t.Fatalf("%s: got %q want %q", in, got, want)
		}
	}
	if _, ok := MIMETypeForPath("a.shp"); ok {
		t.Fatalf("expected unknown extension")
	}
}

func TestParseExhibitJSON(t *testing.T) {
	data := []byte(`{
		"properties": {"img": {"valueType": "url"}},
		"items": [
			{"id": "a", "label": "Alpha", "type": "Cafe", "latlng": "1,2", "tags": ["x", "y"], "seats": 12},
			{"label": "Beta"},
			{"open": true}
		]
	}`)
	p, err := parseExhibitJSON(context.Background(), "", data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.Items) != 3 || p.Properties["img"].ValueType != "url" {
		t.Fatalf("unexpected payload: %+v", p)
	}
	a := p.Items[0]
	if a.ID != "a" || a.Label != "Alpha" || a.Type != "Cafe" || strings.Join(a.Props["tags"], ",") != "x,y" || a.Props["seats"][0] != "12" {
		t.Fatalf("unexpected item: %+v", a)
	}
	if p.Items[1].ID != "Beta" {
		t.Fatalf("expected label to stand in for id, got %q", p.Items[1].ID)
	}
	if _, err := uuid.Parse(p.Items[2].ID); err != nil {
		t.Fatalf("expected generated uuid, got %q", p.Items[2].ID)
	}
}

func TestParseExhibitJSON_DelegatesGeoJSON(t *testing.T) {
	data := []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"z","properties":{"name":"Zone","type":"park"},
		 "geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}},
		{"type":"Feature","properties":{"name":"Road"},
		 "geometry":{"type":"LineString","coordinates":[[0,0],[2,1]]}},
		{"type":"Feature","properties":{},
		 "geometry":{"type":"MultiPoint","coordinates":[[5,6],[7,8]]}}
	]}`)
	p, err := parseExhibitJSON(context.Background(), "", data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	z := p.Items[0]
	if z.ID != "z" || z.Label != "Zone" || z.Type != "park" || z.Props[PropPolygon][0] != "0,0;0,1;1,1;0,0" {
		t.Fatalf("unexpected polygon item: %+v", z)
	}
	if p.Items[1].Props[PropPolyline][0] != "0,0;1,2" {
		t.Fatalf("unexpected polyline: %v", p.Items[1].Props)
	}
	if strings.Join(p.Items[2].Props[PropLatLng], " ") != "6,5 8,7" {
		t.Fatalf("unexpected points: %v", p.Items[2].Props[PropLatLng])
	}
}

func TestLoad_FileMergesAndCallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cafes.csv")
	if err := os.WriteFile(path, []byte("id,name,lat,lon,kind\nc1,Blue,48.1,11.5,cafe\nc2,Red,48.2,11.6,bar\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := inlineRegistry()
	Defaults(r)
	db := database.New()
	var got error
	called := false
	r.Load(context.Background(), TypeCSV, path, db, func(err error) { called, got = true, err })
	if !called || got != nil {
		t.Fatalf("expected successful callback, got called=%v err=%v", called, got)
	}
	it, ok := db.Item("c2")
	if !ok || it.Label != "Red" || it.Props[PropLatLng][0] != "48.2,11.6" || it.Props["kind"][0] != "bar" {
		t.Fatalf("unexpected item: %+v", it)
	}
}

func TestLoad_ErrorsReachCallback(t *testing.T) {
	r := inlineRegistry()
	Defaults(r)
	db := database.New()
	var got error
	r.Load(context.Background(), "application/x-unknown", "x", db, func(err error) { got = err })
	if !errors.Is(got, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", got)
	}
	got = nil
	r.Load(context.Background(), TypeExhibitJSON, filepath.Join(t.TempDir(), "missing.json"), db, func(err error) { got = err })
	if got == nil {
		t.Fatalf("expected missing file error")
	}
	r.Register("text/panic", "boom", ParserFunc(func(context.Context, string, []byte) (database.Payload, error) { panic("boom") }))
	dir := t.TempDir()
	p := filepath.Join(dir, "x")
	_ = os.WriteFile(p, []byte("x"), 0o644)
	got = nil
	r.Load(context.Background(), "text/panic", p, db, func(err error) { got = err })
	if got == nil || !strings.Contains(got.Error(), "panic") {
		t.Fatalf("expected parser panic to surface as error, got %v", got)
	}
}

func TestLoad_HTTPResolvesURLsAgainstBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feeds/data.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"properties":{"img":{"valueType":"url"}},"items":[{"id":"a","img":"icons/a.png"}]}`))
	}))
	defer srv.Close()

	r := inlineRegistry()
	Defaults(r)
	db := database.New()
	if err := r.LoadSync(context.Background(), TypeExhibitJSON, srv.URL+"/feeds/data.json", db); err != nil {
		t.Fatalf("load: %v", err)
	}
	it, _ := db.Item("a")
	if it.Props["img"][0] != srv.URL+"/feeds/icons/a.png" {
		t.Fatalf("expected resolved icon url, got %q", it.Props["img"][0])
	}
	if err := r.LoadSync(context.Background(), TypeExhibitJSON, srv.URL+"/nope.json", db); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSQL_SQLiteTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.sqlite")
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	stmts := []string{
		`CREATE TABLE spots (id TEXT, label TEXT, type TEXT, latlng TEXT, rating REAL, note TEXT)`,
		`INSERT INTO spots VALUES ('s1', 'Harbor', 'viewpoint', '53.5,9.9', 4.5, NULL)`,
		`INSERT INTO spots VALUES (NULL, 'Hill', NULL, '53.6,10.0', 3, 'windy')`,
	}
	for _, s := range stmts {
		if _, err := conn.Exec(s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
	conn.Close()

	r := inlineRegistry()
	Defaults(r)
	db := database.New()
	if err := r.LoadSync(context.Background(), TypeSQL, path+"#spots", db); err != nil {
		t.Fatalf("load: %v", err)
	}
	if db.Size() != 2 {
		t.Fatalf("expected two rows, got %d", db.Size())
	}
	s1, _ := db.Item("s1")
	if s1.Label != "Harbor" || s1.Type != "viewpoint" || s1.Props["latlng"][0] != "53.5,9.9" || s1.Props["rating"][0] != "4.5" {
		t.Fatalf("unexpected row: %+v", s1)
	}
	if _, ok := s1.Props["note"]; ok {
		t.Fatalf("null columns must be skipped")
	}
	if _, _, _, err := splitLink("x.db#drop table"); err == nil {
		t.Fatalf("expected bad table name to be rejected")
	}
	if d, dsn, table, _ := splitLink("postgres://u@h/db#public.places"); d != "pgx" || dsn != "postgres://u@h/db" || table != "public.places" {
		t.Fatalf("unexpected split: %s %s %s", d, dsn, table)
	}
}

func TestSQL_MissingSQLiteFileIsNotCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.sqlite")
	r := inlineRegistry()
	Defaults(r)
	err := r.LoadSync(context.Background(), TypeSQL, path+"#spots", database.New())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no file to be created, stat: %v", err)
	}
}
