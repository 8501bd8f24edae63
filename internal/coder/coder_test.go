package coder

import (
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestTranslateSet_Flags(t *testing.T) {
	c := NewColorCoder(map[string]string{"a": "#FF0000", "b": "#00FF00", "c": "#FF0000"})

	flags := NewFlags()
	if got := c.TranslateSet(NewKeySet("a", "c"), flags); got != "#FF0000" {
		t.Fatalf("expected shared color, got %s", got)
	}
	if flags.Mixed || flags.Missing || flags.Others {
		t.Fatalf("unexpected flags: %+v", flags)
	}
	if got := c.TranslateSet(NewKeySet("a", "b"), flags); got != c.MixedValue() || !flags.Mixed {
		t.Fatalf("expected mixed, got %s flags=%+v", got, flags)
	}
	if got := c.TranslateSet(NewKeySet(), flags); got != c.MissingValue() || !flags.Missing {
		t.Fatalf("expected missing, got %s", got)
	}
	if got := c.TranslateSet(NewKeySet("zzz"), flags); got != c.OthersValue() || !flags.Others {
		t.Fatalf("expected others, got %s", got)
	}
	if keys := flags.Keys.Sorted(); len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Fatalf("unexpected recorded keys: %v", keys)
	}
}

func TestDefaultColorCoder_AssignsInOrder(t *testing.T) {
	c := NewDefaultColorCoder()
	flags := NewFlags()
	first := c.TranslateSet(NewKeySet("x"), flags)
	second := c.TranslateSet(NewKeySet("y"), flags)
	if first != DefaultColors[0] || second != DefaultColors[1] {
		t.Fatalf("unexpected palette assignment: %s %s", first, second)
	}
	if again, ok := c.Translate("x"); !ok || again != first {
		t.Fatalf("expected stable assignment, got %s", again)
	}
	if got := c.TranslateSet(NewKeySet("x", "y"), flags); got != "#FFFFFF" || !flags.Mixed {
		t.Fatalf("expected mixed color, got %s", got)
	}
}

func TestGradients(t *testing.T) {
	g := NewColorGradient([]GradientPoint[string]{{Value: 100, Out: "#FFFFFF"}, {Value: 0, Out: "#000000"}})
	if got, ok := g.Translate("50"); !ok || got != "#808080" {
		t.Fatalf("expected midpoint gray, got %s", got)
	}
	if got, _ := g.Translate("500"); got != "#FFFFFF" {
		t.Fatalf("expected clamp to last point, got %s", got)
	}
	if _, ok := g.Translate("warm"); ok {
		t.Fatalf("expected non-numeric key to be unknown")
	}
	s := NewSizeGradient([]GradientPoint[float64]{{Value: 0, Out: 10}, {Value: 10, Out: 30}})
	flags := NewFlags()
	if got := s.TranslateSet(NewKeySet("5"), flags); got != 20 {
		t.Fatalf("expected 20, got %v", got)
	}
	if pts := s.GradientPoints(); len(pts) != 2 || pts[1].Value != 10 {
		t.Fatalf("unexpected points: %v", pts)
	}
}

func TestComponents_RegisterFromYAML(t *testing.T) {
	src := `
- id: kinds
  kind: color
  entries: {cafe: "#f00", bar: "#00FF00"}
- id: heat
  kind: size-gradient
  points: [{value: 0, out: "10"}, {value: 100, out: "40"}]
- id: kinds
  kind: icon
  entries: {cafe: "http://example.org/cafe.png"}
- id: broken
  kind: sparkles
`
	var defs []Definition
	if err := yaml.Unmarshal([]byte(src), &defs); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	c := NewComponents()
	errs := c.RegisterAll(defs)
	if len(errs) != 2 {
		t.Fatalf("expected duplicate and unknown kind errors, got %v", errs)
	}
	if !errors.Is(errs[0], ErrDuplicate) {
		t.Fatalf("expected first-registered-wins duplicate error, got %v", errs[0])
	}
	kinds, ok := c.Colors.Lookup("kinds")
	if !ok {
		t.Fatalf("expected color coder")
	}
	if got, _ := kinds.Translate("cafe"); got != "#FF0000" {
		t.Fatalf("expected normalized color, got %s", got)
	}
	if c.Icons.IsRegistered("kinds") {
		t.Fatalf("expected icon definition to be refused")
	}
	heat, _ := c.Sizes.Lookup("heat")
	if _, ok := heat.(Gradient[float64]); !ok {
		t.Fatalf("expected size gradient capability")
	}
}
