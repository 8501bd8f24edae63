// Package config reads the geoplot YAML configuration file.
//
//	view:
//	  latlng: .latlng
//	  colorKey: .type
//	  colorCoder: kinds
//	  autoposition: true
//	coders:
//	  - id: kinds
//	    kind: color
//	    entries: {cafe: "#FF0000"}
//	data:
//	  - href: cafes.csv
//	painter: http://localhost:8082/painter
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"geoplot/internal/coder"
)

// Source is one data link to import at startup. An empty Type is guessed from
// the link.
type Source struct {
	Href string `yaml:"href"`
	Type string `yaml:"type"`
}

type Config struct {
	// View holds view settings and accessor attributes, keyed by name.
	View    map[string]any     `yaml:"view"`
	Coders  []coder.Definition `yaml:"coders"`
	Data    []Source           `yaml:"data"`
	Painter string             `yaml:"painter"`
	// Canvas enables local marker drawing; unset means enabled.
	Canvas *bool `yaml:"canvas"`
	// Origin is the origin icons must share or allow to be drawn locally.
	Origin string `yaml:"origin"`
	// MarkerCache bounds synthesized markers; zero keeps all.
	MarkerCache int `yaml:"markerCache"`
}

// Default is the configuration used without a file: items plot from their
// latlng, polygon and polyline properties and are colored by type.
func Default() Config {
	return Config{
		View: map[string]any{
			"latlng":       ".latlng",
			"polygon":      ".polygon",
			"polyline":     ".polyline",
			"colorKey":     ".type",
			"autoposition": true,
		},
	}
}

// CanvasEnabled reports whether local drawing is on.
func (c Config) CanvasEnabled() bool { return c.Canvas == nil || *c.Canvas }

// Decode reads a config from r. Keys missing from the view section keep
// their Default values; unknown top-level keys are an error.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	var file Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	for k, v := range file.View {
		cfg.View[k] = v
	}
	cfg.Coders = file.Coders
	cfg.Data = file.Data
	cfg.Painter = file.Painter
	cfg.Canvas = file.Canvas
	cfg.Origin = file.Origin
	cfg.MarkerCache = file.MarkerCache
	for i, c := range cfg.Coders {
		if c.ID == "" {
			return Config{}, fmt.Errorf("config: coder %d has no id", i)
		}
	}
	return cfg, nil
}

// Load reads path. Relative data links resolve against the file's directory.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Decode(bytes.NewReader(b))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i, s := range cfg.Data {
		if isLocal(s.Href) && !filepath.IsAbs(s.Href) {
			cfg.Data[i].Href = filepath.Join(dir, s.Href)
		}
	}
	return cfg, nil
}

func isLocal(href string) bool {
	for _, scheme := range []string{"http://", "https://", "file://", "postgres://", "postgresql://", "sqlite://"} {
		if len(href) >= len(scheme) && href[:len(scheme)] == scheme {
			return false
		}
	}
	return href != ""
}
