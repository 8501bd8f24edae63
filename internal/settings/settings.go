// Package settings turns declarative view configuration into typed values and
// bound item accessors.
package settings

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type Type string

const (
	Enum     Type = "enum"
	Text     Type = "text"
	Float    Type = "float"
	Int      Type = "int"
	Boolean  Type = "boolean"
	Function Type = "function"
)

// Spec declares one named setting.
type Spec struct {
	Name       string
	Type       Type
	Default    any
	Choices    []string // Enum only
	Dimensions int      // >1 for comma separated tuples
}

// Values holds resolved settings. Unset text settings with a nil default are
// absent.
type Values map[string]any

// Collect resolves every spec against config. Missing keys take the default,
// unknown keys are ignored and values that fail validation fall back to the
// default. The returned errors describe those fallbacks and are never fatal.
func Collect(config map[string]any, specs []Spec) (Values, []error) {
	out := make(Values, len(specs))
	var warns []error
	for _, s := range specs {
		raw, ok := config[s.Name]
		if !ok || raw == nil {
			out.setDefault(s)
			continue
		}
		v, err := coerce(raw, s)
		if err != nil {
			warns = append(warns, fmt.Errorf("setting %q: %w", s.Name, err))
			out.setDefault(s)
			continue
		}
		out[s.Name] = v
	}
	return out, warns
}

func (v Values) setDefault(s Spec) {
	if s.Default == nil {
		return
	}
	v[s.Name] = s.Default
}

func coerce(raw any, s Spec) (any, error) {
	if s.Dimensions > 1 {
		return coerceTuple(raw, s)
	}
	return coerceScalar(raw, s.Type, s.Choices)
}

func coerceTuple(raw any, s Spec) (any, error) {
	var parts []any
	switch t := raw.(type) {
	case string:
		for _, p := range strings.Split(t, ",") {
			parts = append(parts, strings.TrimSpace(p))
		}
	case []any:
		parts = t
	case []float64:
		for _, f := range t {
			parts = append(parts, f)
		}
	default:
		return nil, fmt.Errorf("expected %d values, got %T", s.Dimensions, raw)
	}
	if len(parts) != s.Dimensions {
		return nil, fmt.Errorf("expected %d values, got %d", s.Dimensions, len(parts))
	}
	switch s.Type {
	case Float:
		out := make([]float64, len(parts))
		for i, p := range parts {
			f, err := coerceScalar(p, Float, nil)
			if err != nil {
				return nil, err
			}
			out[i] = f.(float64)
		}
		return out, nil
	case Int:
		out := make([]int, len(parts))
		for i, p := range parts {
			n, err := coerceScalar(p, Int, nil)
			if err != nil {
				return nil, err
			}
			out[i] = n.(int)
		}
		return out, nil
	default:
		out := make([]string, len(parts))
		for i, p := range parts {
			out[i] = fmt.Sprint(p)
		}
		return out, nil
	}
}

func coerceScalar(raw any, typ Type, choices []string) (any, error) {
	switch typ {
	case Text:
		switch t := raw.(type) {
		case string:
			return t, nil
		case fmt.Stringer:
			return t.String(), nil
		case bool, int, int64, float64:
			return fmt.Sprint(t), nil
		}
		return nil, fmt.Errorf("expected text, got %T", raw)
	case Enum:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected one of %v, got %T", choices, raw)
		}
		for _, c := range choices {
			if c == s {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%q is not one of %v", s, choices)
	case Float:
		switch t := raw.(type) {
		case float64:
			return t, nil
		case float32:
			return float64(t), nil
		case int:
			return float64(t), nil
		case int64:
			return float64(t), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err != nil {
				return nil, err
			}
			return f, nil
		}
		return nil, fmt.Errorf("expected float, got %T", raw)
	case Int:
		switch t := raw.(type) {
		case int:
			return t, nil
		case int64:
			return int(t), nil
		case float64:
			return int(t), nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(t))
			if err != nil {
				f, ferr := strconv.ParseFloat(strings.TrimSpace(t), 64)
				if ferr != nil {
					return nil, err
				}
				return int(f), nil
			}
			return n, nil
		}
		return nil, fmt.Errorf("expected int, got %T", raw)
	case Boolean:
		switch t := raw.(type) {
		case bool:
			return t, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(t))
			if err != nil {
				return nil, err
			}
			return b, nil
		}
		return nil, fmt.Errorf("expected boolean, got %T", raw)
	case Function:
		if reflect.ValueOf(raw).Kind() != reflect.Func {
			return nil, fmt.Errorf("expected function, got %T", raw)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("unknown setting type %q", typ)
}

func (v Values) IsSet(name string) bool {
	_, ok := v[name]
	return ok
}

func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Float(name string) float64 {
	switch t := v[name].(type) {
	case float64:
		return t
	case int:
		return float64(t)
	}
	return 0
}

func (v Values) Int(name string) int {
	switch t := v[name].(type) {
	case int:
		return t
	case float64:
		return int(t)
	}
	return 0
}

func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

func (v Values) Floats(name string) []float64 {
	f, _ := v[name].([]float64)
	return f
}

// Func returns the raw function value of a function setting, or nil.
func (v Values) Func(name string) any {
	return v[name]
}
