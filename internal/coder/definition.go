package coder

import (
	"errors"
	"fmt"
	"strconv"

	"geoplot/internal/hexcolor"
	"geoplot/internal/registry"
)

var ErrDuplicate = errors.New("coder: id already registered")

// Definition is the YAML form of a coder.
//
//	- id: kinds
//	  kind: color
//	  entries: {cafe: "#FF0000", bar: "#00FF00"}
//	- id: heat
//	  kind: color-gradient
//	  points: [{value: 0, out: "#0000FF"}, {value: 100, out: "#FF0000"}]
type Definition struct {
	ID      string            `yaml:"id"`
	Kind    string            `yaml:"kind"`
	Entries map[string]string `yaml:"entries"`
	Points  []PointDefinition `yaml:"points"`
}

type PointDefinition struct {
	Value float64 `yaml:"value"`
	Out   string  `yaml:"out"`
}

// Components holds the coders a view can name, one registry per channel.
// Identifiers are unique across channels and the first registrant wins.
type Components struct {
	Colors *registry.Registry[Coder[string]]
	Sizes  *registry.Registry[Coder[float64]]
	Icons  *registry.Registry[Coder[string]]
}

func NewComponents() *Components {
	return &Components{
		Colors: registry.New[Coder[string]](),
		Sizes:  registry.New[Coder[float64]](),
		Icons:  registry.New[Coder[string]](),
	}
}

func (c *Components) taken(id string) bool {
	return c.Colors.IsRegistered(id) || c.Sizes.IsRegistered(id) || c.Icons.IsRegistered(id)
}

// RegisterColor, RegisterSize and RegisterIcon add a coder built in code.
func (c *Components) RegisterColor(id string, cd Coder[string]) error {
	if c.taken(id) || !c.Colors.Register(id, cd) {
		return fmt.Errorf("%w: %q", ErrDuplicate, id)
	}
	return nil
}

func (c *Components) RegisterSize(id string, cd Coder[float64]) error {
	if c.taken(id) || !c.Sizes.Register(id, cd) {
		return fmt.Errorf("%w: %q", ErrDuplicate, id)
	}
	return nil
}

func (c *Components) RegisterIcon(id string, cd Coder[string]) error {
	if c.taken(id) || !c.Icons.Register(id, cd) {
		return fmt.Errorf("%w: %q", ErrDuplicate, id)
	}
	return nil
}

// Register builds def and adds it under def.ID.
func (c *Components) Register(def Definition) error {
	if def.ID == "" {
		return errors.New("coder: definition without id")
	}
	switch def.Kind {
	case "color":
		table := make(map[string]string, len(def.Entries))
		for k, v := range def.Entries {
			col, err := hexcolor.Parse(v)
			if err != nil {
				return fmt.Errorf("coder %q: %w", def.ID, err)
			}
			table[k] = hexcolor.Format(col)
		}
		return c.RegisterColor(def.ID, NewColorCoder(table))
	case "color-gradient":
		if len(def.Points) < 2 {
			return fmt.Errorf("coder %q: gradient needs at least two points", def.ID)
		}
		pts := make([]GradientPoint[string], len(def.Points))
		for i, p := range def.Points {
			col, err := hexcolor.Parse(p.Out)
			if err != nil {
				return fmt.Errorf("coder %q: %w", def.ID, err)
			}
			pts[i] = GradientPoint[string]{Value: p.Value, Out: hexcolor.Format(col)}
		}
		return c.RegisterColor(def.ID, NewColorGradient(pts))
	case "size":
		table := make(map[string]float64, len(def.Entries))
		for k, v := range def.Entries {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("coder %q: size %q: %w", def.ID, v, err)
			}
			table[k] = f
		}
		return c.RegisterSize(def.ID, NewSizeCoder(table))
	case "size-gradient":
		if len(def.Points) < 2 {
			return fmt.Errorf("coder %q: gradient needs at least two points", def.ID)
		}
		pts := make([]GradientPoint[float64], len(def.Points))
		for i, p := range def.Points {
			f, err := strconv.ParseFloat(p.Out, 64)
			if err != nil {
				return fmt.Errorf("coder %q: size %q: %w", def.ID, p.Out, err)
			}
			pts[i] = GradientPoint[float64]{Value: p.Value, Out: f}
		}
		return c.RegisterSize(def.ID, NewSizeGradient(pts))
	case "icon":
		return c.RegisterIcon(def.ID, NewIconCoder(def.Entries))
	}
	return fmt.Errorf("coder %q: unknown kind %q", def.ID, def.Kind)
}

// RegisterAll registers defs in order and returns one error per rejected
// definition.
func (c *Components) RegisterAll(defs []Definition) []error {
	var errs []error
	for _, d := range defs {
		if err := c.Register(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
