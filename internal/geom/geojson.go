package geom

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// DecodeGeoJSON reads a FeatureCollection, a single Feature or a bare geometry.
// A bare geometry yields one feature without properties.
func DecodeGeoJSON(data []byte) ([]Feature, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("geojson: %w", err)
	}
	switch head.Type {
	case "":
		return nil, errors.New("geojson: missing type")
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("geojson: %w", err)
		}
		out := make([]Feature, 0, len(fc.Features))
		for _, f := range fc.Features {
			out = append(out, fromGeoJSONFeature(f))
		}
		return out, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("geojson: %w", err)
		}
		return []Feature{fromGeoJSONFeature(f)}, nil
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("geojson: %w", err)
		}
		var f Feature
		f.Add(g.Geometry())
		if f.Empty() {
			return nil, errors.New("geojson: no geometries found")
		}
		return []Feature{f}, nil
	}
}

func fromGeoJSONFeature(gf *geojson.Feature) Feature {
	var f Feature
	if gf.Geometry != nil {
		f.Add(gf.Geometry)
	}
	for k, v := range gf.Properties {
		for _, s := range propStrings(v) {
			f.addProp(k, s)
		}
	}
	if gf.ID != nil {
		f.ID = fmt.Sprint(gf.ID)
	} else if ids := f.Props["id"]; len(ids) > 0 {
		f.ID = ids[0]
	}
	f.pickLabel()
	return f
}

// propStrings flattens a decoded JSON property value. Arrays become multiple
// values; objects are kept as JSON text.
func propStrings(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []string{t}
	case float64:
		return []string{fmt.Sprintf("%g", t)}
	case bool:
		if t {
			return []string{"true"}
		}
		return []string{"false"}
	case []any:
		var out []string
		for _, el := range t {
			out = append(out, propStrings(el)...)
		}
		return out
	default:
		bs, _ := json.Marshal(t)
		return []string{string(bs)}
	}
}
