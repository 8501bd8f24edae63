// Package coder maps item keys to visual values: colors, marker sizes and
// icon URLs.
package coder

// Coder translates keys of one visual channel.
type Coder[V comparable] interface {
	// Translate maps one key. ok is false for keys the coder does not know;
	// the others value is returned for them.
	Translate(key string) (v V, ok bool)
	// TranslateSet maps a set of keys to a single value and records the
	// outcome in flags.
	TranslateSet(keys KeySet, flags *Flags) V

	OthersValue() V
	MixedValue() V
	MissingValue() V
	OthersLabel() string
	MixedLabel() string
	MissingLabel() string
}

// GradientPoint anchors a continuous coder: numeric keys at Value map to Out.
type GradientPoint[V any] struct {
	Value float64
	Out   V
}

// Gradient is implemented by coders interpolating numeric keys.
type Gradient[V any] interface {
	GradientPoints() []GradientPoint[V]
}

// Case is the value and legend label of a special case.
type Case[V any] struct {
	Value V
	Label string
}

// cases holds the three special cases shared by every coder.
type cases[V any] struct {
	others, mixed, missing Case[V]
}

func (c cases[V]) OthersValue() V       { return c.others.Value }
func (c cases[V]) MixedValue() V        { return c.mixed.Value }
func (c cases[V]) MissingValue() V      { return c.missing.Value }
func (c cases[V]) OthersLabel() string  { return c.others.Label }
func (c cases[V]) MixedLabel() string   { return c.mixed.Label }
func (c cases[V]) MissingLabel() string { return c.missing.Label }

// translate maps one key through fn with flag bookkeeping: known keys are recorded, an
// empty key counts as missing and an unknown key as others.
func translate[V any](c cases[V], fn func(string) (V, bool), key string, flags *Flags) V {
	if key == "" {
		if flags != nil {
			flags.Missing = true
		}
		return c.missing.Value
	}
	v, ok := fn(key)
	if !ok {
		if flags != nil {
			flags.Others = true
		}
		return c.others.Value
	}
	if flags != nil {
		if flags.Keys == nil {
			flags.Keys = NewKeySet()
		}
		flags.Keys.Add(key)
	}
	return v
}

// translateSet visits keys in sorted order. A second distinct value raises
// Mixed and stops; an empty set raises Missing.
func translateSet[V comparable](c cases[V], fn func(string) (V, bool), keys KeySet, flags *Flags) V {
	var (
		out  V
		seen bool
	)
	for _, k := range keys.Sorted() {
		v := translate(c, fn, k, flags)
		if !seen {
			out, seen = v, true
			continue
		}
		if v != out {
			if flags != nil {
				flags.Mixed = true
			}
			return c.mixed.Value
		}
	}
	if !seen {
		if flags != nil {
			flags.Missing = true
		}
		return c.missing.Value
	}
	return out
}
