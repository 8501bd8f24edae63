package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecode_MergesViewOverDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
view:
  colorKey: .kind
  colorCoder: kinds
  shapeWidth: 30
coders:
  - id: kinds
    kind: color
    entries: {cafe: "#FF0000"}
  - id: heat
    kind: color-gradient
    points: [{value: 0, out: "#0000FF"}, {value: 10, out: "#FF0000"}]
painter: http://localhost:8082/painter
canvas: false
markerCache: 128
`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.View["colorKey"] != ".kind" || cfg.View["latlng"] != ".latlng" || cfg.View["shapeWidth"] != 30 {
		t.Fatalf("unexpected view: %v", cfg.View)
	}
	if len(cfg.Coders) != 2 || cfg.Coders[0].Entries["cafe"] != "#FF0000" || cfg.Coders[1].Points[1].Value != 10 {
		t.Fatalf("unexpected coders: %+v", cfg.Coders)
	}
	if cfg.CanvasEnabled() || cfg.Painter == "" || cfg.MarkerCache != 128 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestDecode_EmptyIsDefault(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !cfg.CanvasEnabled() || cfg.View["autoposition"] != true {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestDecode_Rejects(t *testing.T) {
	for _, in := range []string{
		"bogus: 1\n",
		"coders:\n  - kind: color\n",
		"view: [1, 2]\n",
	} {
		if _, err := Decode(strings.NewReader(in)); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}

func TestLoad_ResolvesRelativeData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "geoplot.yaml")
	body := "data:\n  - href: cafes.csv\n  - href: https://example.org/a.json\n  - href: postgres://u@h/db#places\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Data[0].Href != filepath.Join(dir, "cafes.csv") {
		t.Fatalf("unexpected local href %q", cfg.Data[0].Href)
	}
	if cfg.Data[1].Href != "https://example.org/a.json" || cfg.Data[2].Href != "postgres://u@h/db#places" {
		t.Fatalf("remote links must be kept: %+v", cfg.Data)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}
