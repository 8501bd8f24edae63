package settings

import (
	"fmt"
	"strings"

	"geoplot/internal/database"
)

// Evaluator resolves path expressions against an item.
type Evaluator interface {
	Evaluate(itemID string, expr database.Expression) []string
}

// Accessor calls visit once per value resolved for an item. Simple accessors
// visit typed scalars; composite accessors visit Bindings.
type Accessor func(itemID string, db Evaluator, visit func(any))

// Bindings is one combination of values produced by a composite accessor,
// keyed by binding name.
type Bindings map[string]any

func (b Bindings) Float(name string) (float64, bool) {
	f, ok := b[name].(float64)
	return f, ok
}

// Binding maps one configured attribute into named values. A binding with
// Types splits each value on ',' into len(Types) parts named by BindingNames.
type Binding struct {
	Attribute    string
	Type         Type
	Types        []Type
	BindingName  string
	BindingNames []string
	Optional     bool
}

// AccessorSpec declares an accessor fed either by a single Attribute or by
// Alternatives, binding sets tried in order.
type AccessorSpec struct {
	Name         string
	Attribute    string
	Type         Type
	Alternatives [][]Binding
}

type Accessors map[string]Accessor

// Has reports whether the named accessor could be bound.
func (a Accessors) Has(name string) bool { return a[name] != nil }

// CreateAccessors binds specs against config. An accessor whose attributes are
// absent is left out; specs sharing a name are resolved in order so the last
// present attribute wins. Bad expressions are reported and leave the accessor
// unbound.
func CreateAccessors(config map[string]any, specs []AccessorSpec) (Accessors, []error) {
	out := make(Accessors)
	var warns []error
	for _, s := range specs {
		var (
			acc Accessor
			err error
		)
		if len(s.Alternatives) > 0 {
			acc, err = compositeAccessor(config, s.Alternatives)
		} else {
			acc, err = simpleAccessor(config, s.Attribute, s.Type)
		}
		if err != nil {
			warns = append(warns, fmt.Errorf("accessor %q: %w", s.Name, err))
			continue
		}
		if acc != nil {
			out[s.Name] = acc
		}
	}
	return out, warns
}

func attribute(config map[string]any, name string) (string, bool) {
	v, ok := config[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func simpleAccessor(config map[string]any, attr string, typ Type) (Accessor, error) {
	src, ok := attribute(config, attr)
	if !ok {
		return nil, nil
	}
	expr, err := database.ParseExpression(src)
	if err != nil {
		return nil, err
	}
	if typ == "" {
		typ = Text
	}
	return func(itemID string, db Evaluator, visit func(any)) {
		for _, v := range db.Evaluate(itemID, expr) {
			if tv, err := coerceScalar(v, typ, nil); err == nil {
				visit(tv)
			}
		}
	}, nil
}

type boundBinding struct {
	Binding
	expr database.Expression
}

func compositeAccessor(config map[string]any, alternatives [][]Binding) (Accessor, error) {
	for _, alt := range alternatives {
		complete := true
		for _, b := range alt {
			if _, ok := attribute(config, b.Attribute); !ok && !b.Optional {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		var bound []boundBinding
		for _, b := range alt {
			src, ok := attribute(config, b.Attribute)
			if !ok {
				continue
			}
			expr, err := database.ParseExpression(src)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", b.Attribute, err)
			}
			bound = append(bound, boundBinding{Binding: b, expr: expr})
		}
		return func(itemID string, db Evaluator, visit func(any)) {
			visitBindings(itemID, db, bound, visit)
		}, nil
	}
	return nil, nil
}

// visitBindings evaluates every binding and visits the cartesian product of
// their values. A required binding without values suppresses every visit; an
// optional one is left out of the combinations.
func visitBindings(itemID string, db Evaluator, bound []boundBinding, visit func(any)) {
	var columns [][]Bindings
	for _, b := range bound {
		var col []Bindings
		for _, raw := range db.Evaluate(itemID, b.expr) {
			if part, ok := b.bind(raw); ok {
				col = append(col, part)
			}
		}
		if len(col) == 0 {
			if b.Optional {
				continue
			}
			return
		}
		columns = append(columns, col)
	}
	if len(columns) == 0 {
		return
	}
	var walk func(i int, acc Bindings)
	walk = func(i int, acc Bindings) {
		if i == len(columns) {
			out := make(Bindings, len(acc))
			for k, v := range acc {
				out[k] = v
			}
			visit(out)
			return
		}
		for _, part := range columns[i] {
			for k, v := range part {
				acc[k] = v
			}
			walk(i+1, acc)
			for k := range part {
				delete(acc, k)
			}
		}
	}
	walk(0, Bindings{})
}

func (b boundBinding) bind(raw string) (Bindings, bool) {
	if len(b.Types) > 0 {
		parts := strings.Split(raw, ",")
		if len(parts) != len(b.Types) || len(b.BindingNames) != len(b.Types) {
			return nil, false
		}
		out := make(Bindings, len(parts))
		for i, p := range parts {
			v, err := coerceScalar(strings.TrimSpace(p), b.Types[i], nil)
			if err != nil {
				return nil, false
			}
			out[b.BindingNames[i]] = v
		}
		return out, true
	}
	typ := b.Type
	if typ == "" {
		typ = Text
	}
	v, err := coerceScalar(strings.TrimSpace(raw), typ, nil)
	if err != nil {
		return nil, false
	}
	return Bindings{b.BindingName: v}, true
}
