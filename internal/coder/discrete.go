package coder

import "sync"

// Discrete maps keys through a fixed table. It backs the color, size and icon
// coders.
type Discrete[V comparable] struct {
	cases[V]
	table map[string]V
}

func NewDiscrete[V comparable](table map[string]V, others, mixed, missing Case[V]) *Discrete[V] {
	t := make(map[string]V, len(table))
	for k, v := range table {
		t[k] = v
	}
	return &Discrete[V]{cases: cases[V]{others: others, mixed: mixed, missing: missing}, table: t}
}

func (d *Discrete[V]) lookup(key string) (V, bool) {
	v, ok := d.table[key]
	return v, ok
}

func (d *Discrete[V]) Translate(key string) (V, bool) {
	v, ok := d.lookup(key)
	if !ok {
		return d.others.Value, false
	}
	return v, true
}

func (d *Discrete[V]) TranslateSet(keys KeySet, flags *Flags) V {
	return translateSet(d.cases, d.lookup, keys, flags)
}

// NewColorCoder maps keys to "#RRGGBB" colors.
func NewColorCoder(table map[string]string) *Discrete[string] {
	return NewDiscrete(table,
		Case[string]{Value: "#AAAAAA", Label: "others"},
		Case[string]{Value: "#FFFFFF", Label: "mixed"},
		Case[string]{Value: "#888888", Label: "missing"})
}

// NewSizeCoder maps keys to marker pixel sizes.
func NewSizeCoder(table map[string]float64) *Discrete[float64] {
	return NewDiscrete(table,
		Case[float64]{Value: 20, Label: "others"},
		Case[float64]{Value: 20, Label: "mixed"},
		Case[float64]{Value: 20, Label: "missing"})
}

// NewIconCoder maps keys to icon URLs. Special cases have no icon.
func NewIconCoder(table map[string]string) *Discrete[string] {
	return NewDiscrete(table,
		Case[string]{Label: "others"},
		Case[string]{Label: "mixed"},
		Case[string]{Label: "missing"})
}

// DefaultColors is the palette handed out by DefaultColorCoder.
var DefaultColors = []string{
	"#FF9000", "#5D7CBA", "#A97838", "#8B9BBA",
	"#FFC77F", "#003EBA", "#29447B", "#543C1C",
}

// DefaultColorCoder assigns palette colors to keys in first-seen order,
// cycling when the palette runs out. Every non-empty key is known.
type DefaultColorCoder struct {
	cases[string]

	mu       sync.Mutex
	palette  []string
	assigned map[string]string
}

func NewDefaultColorCoder() *DefaultColorCoder {
	return &DefaultColorCoder{
		cases: cases[string]{
			others:  Case[string]{Value: "#AAAAAA", Label: "others"},
			mixed:   Case[string]{Value: "#FFFFFF", Label: "mixed"},
			missing: Case[string]{Value: "#888888", Label: "missing"},
		},
		palette:  DefaultColors,
		assigned: make(map[string]string),
	}
}

func (d *DefaultColorCoder) lookup(key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.assigned[key]; ok {
		return c, true
	}
	c := d.palette[len(d.assigned)%len(d.palette)]
	d.assigned[key] = c
	return c, true
}

func (d *DefaultColorCoder) Translate(key string) (string, bool) {
	if key == "" {
		return d.missing.Value, false
	}
	return d.lookup(key)
}

func (d *DefaultColorCoder) TranslateSet(keys KeySet, flags *Flags) string {
	return translateSet(d.cases, d.lookup, keys, flags)
}
