package settings

import (
	"testing"

	"geoplot/internal/database"
)

var testSpecs = []Spec{
	{Name: "latlngOrder", Type: Enum, Default: "latlng", Choices: []string{"latlng", "lnglat"}},
	{Name: "center", Type: Float, Default: []float64{20, 0}, Dimensions: 2},
	{Name: "zoom", Type: Float, Default: 2.0},
	{Name: "mapHeight", Type: Int, Default: 400},
	{Name: "pin", Type: Boolean, Default: true},
	{Name: "colorCoder", Type: Text},
	{Name: "mapConstructor", Type: Function},
}

func TestCollect_DefaultsAndCoercion(t *testing.T) {
	v, warns := Collect(map[string]any{
		"latlngOrder": "lnglat",
		"center":      "10, 5",
		"zoom":        "7",
		"mapHeight":   300.0,
		"pin":         "false",
		"unknown":     "ignored",
	}, testSpecs)
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if v.String("latlngOrder") != "lnglat" || v.Float("zoom") != 7 || v.Int("mapHeight") != 300 || v.Bool("pin") {
		t.Fatalf("unexpected values: %+v", v)
	}
	if c := v.Floats("center"); len(c) != 2 || c[0] != 10 || c[1] != 5 {
		t.Fatalf("unexpected center: %v", c)
	}
	if v.IsSet("colorCoder") || v.IsSet("unknown") {
		t.Fatalf("expected nil-default and unknown keys to be absent")
	}
}

func TestCollect_InvalidFallsBackToDefault(t *testing.T) {
	v, warns := Collect(map[string]any{
		"latlngOrder":    "sideways",
		"center":         "1,2,3",
		"zoom":           "far",
		"mapConstructor": "not a func",
	}, testSpecs)
	if len(warns) != 4 {
		t.Fatalf("expected 4 warnings, got %v", warns)
	}
	if v.String("latlngOrder") != "latlng" || v.Float("zoom") != 2 || v.Floats("center")[0] != 20 {
		t.Fatalf("expected defaults, got %+v", v)
	}
	v, _ = Collect(map[string]any{"mapConstructor": func() {}}, testSpecs)
	if v.Func("mapConstructor") == nil {
		t.Fatalf("expected function setting to be kept")
	}
}

type fakeDB struct {
	props map[string]map[string][]string
}

func (f fakeDB) Evaluate(id string, e database.Expression) []string {
	return f.props[id][e.Steps[0].Property]
}

var latlngSpec = AccessorSpec{
	Name: "getLatlng",
	Alternatives: [][]Binding{
		{
			{Attribute: "latlng", Types: []Type{Float, Float}, BindingNames: []string{"lat", "lng"}},
			{Attribute: "maxAutoZoom", Type: Float, BindingName: "maxAutoZoom", Optional: true},
		},
		{
			{Attribute: "lat", Type: Float, BindingName: "lat"},
			{Attribute: "lng", Type: Float, BindingName: "lng"},
			{Attribute: "maxAutoZoom", Type: Float, BindingName: "maxAutoZoom", Optional: true},
		},
	},
}

func collect(acc Accessor, id string, db Evaluator) []any {
	var out []any
	acc(id, db, func(v any) { out = append(out, v) })
	return out
}

func TestCreateAccessors_CompositeAlternatives(t *testing.T) {
	db := fakeDB{props: map[string]map[string][]string{
		"a": {"ll": {"10,20", "bad", "11,21"}, "z": {"5"}},
		"b": {"la": {"1"}, "lo": {"2", "3"}},
		"c": {"la": {"1"}},
	}}

	accs, warns := CreateAccessors(map[string]any{"latlng": ".ll", "maxAutoZoom": ".z"}, []AccessorSpec{latlngSpec})
	if len(warns) != 0 || !accs.Has("getLatlng") {
		t.Fatalf("expected accessor, warns=%v", warns)
	}
	got := collect(accs["getLatlng"], "a", db)
	if len(got) != 2 {
		t.Fatalf("expected 2 bindings, got %v", got)
	}
	first := got[0].(Bindings)
	if lat, _ := first.Float("lat"); lat != 10 {
		t.Fatalf("unexpected lat: %v", first)
	}
	if z, ok := first.Float("maxAutoZoom"); !ok || z != 5 {
		t.Fatalf("expected maxAutoZoom binding: %v", first)
	}

	accs, _ = CreateAccessors(map[string]any{"lat": ".la", "lng": ".lo"}, []AccessorSpec{latlngSpec})
	got = collect(accs["getLatlng"], "b", db)
	if len(got) != 2 {
		t.Fatalf("expected cartesian product of 2, got %v", got)
	}
	if _, ok := got[0].(Bindings)["maxAutoZoom"]; ok {
		t.Fatalf("absent optional binding must be omitted")
	}
	if got := collect(accs["getLatlng"], "c", db); len(got) != 0 {
		t.Fatalf("missing required value must suppress visits, got %v", got)
	}
}

func TestCreateAccessors_SimpleAndAliases(t *testing.T) {
	specs := []AccessorSpec{
		{Name: "getColorKey", Attribute: "marker", Type: Text},
		{Name: "getColorKey", Attribute: "colorKey", Type: Text},
		{Name: "getPolygon", Attribute: "polygon", Type: Text},
		{Name: "getSizeKey", Attribute: "sizeKey", Type: Float},
	}
	db := fakeDB{props: map[string]map[string][]string{
		"a": {"m": {"old"}, "k": {"new"}, "s": {"3", "x"}},
	}}
	accs, warns := CreateAccessors(map[string]any{"marker": ".m", "colorKey": ".k", "sizeKey": ".s"}, specs)
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if got := collect(accs["getColorKey"], "a", db); len(got) != 1 || got[0] != "new" {
		t.Fatalf("expected last present alias to win, got %v", got)
	}
	if accs.Has("getPolygon") {
		t.Fatalf("expected unconfigured accessor to stay unbound")
	}
	if got := collect(accs["getSizeKey"], "a", db); len(got) != 1 || got[0] != 3.0 {
		t.Fatalf("expected typed values with bad ones skipped, got %v", got)
	}

	accs, _ = CreateAccessors(map[string]any{"marker": ".m"}, specs)
	if got := collect(accs["getColorKey"], "a", db); len(got) != 1 || got[0] != "old" {
		t.Fatalf("expected backward-compatible alias, got %v", got)
	}
	_, warns = CreateAccessors(map[string]any{"polygon": ".a..b"}, specs)
	if len(warns) != 1 {
		t.Fatalf("expected warning for bad expression, got %v", warns)
	}
}
