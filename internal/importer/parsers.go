package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"geoplot/internal/database"
	"geoplot/internal/geom"
)

const (
	TypeExhibitJSON = "application/json"
	TypeGeoJSON     = "application/geo+json"
	TypeCSV         = "text/csv"
	TypeKML         = "application/vnd.google-earth.kml+xml"
	TypeWKT         = "text/wkt"
	TypeSQL         = "application/sql"
)

// Builtin is the table of importers Defaults registers, in order.
var Builtin = []struct {
	MIMEType string
	Label    string
	Parser   Parser
}{
	{TypeExhibitJSON, "Exhibit JSON", ParserFunc(parseExhibitJSON)},
	{TypeGeoJSON, "GeoJSON", ParserFunc(parseGeoJSON)},
	{TypeCSV, "CSV", featureParser(func(b []byte) ([]geom.Feature, error) { return geom.DecodeCSV(bytes.NewReader(b)) })},
	{TypeKML, "KML", featureParser(func(b []byte) ([]geom.Feature, error) { return geom.DecodeKML(bytes.NewReader(b)) })},
	{TypeWKT, "WKT", featureParser(func(b []byte) ([]geom.Feature, error) { return geom.DecodeWKT(bytes.NewReader(b)) })},
	{TypeSQL, "SQL table", SQL{}},
}

// Defaults registers every Builtin importer and returns the ones that lost
// their MIME type to an earlier registration.
func Defaults(r *Registry) []*Importer {
	var lost []*Importer
	for _, b := range Builtin {
		if imp := r.Register(b.MIMEType, b.Label, b.Parser); !imp.IsRegistered() {
			lost = append(lost, imp)
		}
	}
	return lost
}

var extTypes = map[string]string{
	".json":    TypeExhibitJSON,
	".geojson": TypeGeoJSON,
	".csv":     TypeCSV,
	".kml":     TypeKML,
	".wkt":     TypeWKT,
	".db":      TypeSQL,
	".sqlite":  TypeSQL,
	".sqlite3": TypeSQL,
}

// MIMETypeForPath guesses the MIME type of a file path or link.
func MIMETypeForPath(p string) (string, bool) {
	if strings.HasPrefix(p, "postgres://") || strings.HasPrefix(p, "postgresql://") || strings.HasPrefix(p, "sqlite://") {
		return TypeSQL, true
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	t, ok := extTypes[strings.ToLower(filepath.Ext(p))]
	return t, ok
}

// exhibitDoc is the Exhibit JSON data format.
type exhibitDoc struct {
	Items      []map[string]any             `json:"items"`
	Properties map[string]database.Property `json:"properties"`
	Type       string                       `json:"type"`
}

// parseExhibitJSON reads Exhibit JSON. Documents that are GeoJSON instead
// are handed to the GeoJSON parser.
func parseExhibitJSON(ctx context.Context, link string, data []byte) (database.Payload, error) {
	var doc exhibitDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return database.Payload{}, fmt.Errorf("exhibit json: %w", err)
	}
	if doc.Items == nil && doc.Type != "" {
		return parseGeoJSON(ctx, link, data)
	}
	p := database.Payload{Properties: doc.Properties}
	for _, raw := range doc.Items {
		it := database.Item{Props: make(map[string][]string)}
		for k, v := range raw {
			vals := jsonStrings(v)
			switch k {
			case "id":
				it.ID = first(vals)
			case "label":
				it.Label = first(vals)
			case "type":
				it.Type = first(vals)
			default:
				if len(vals) > 0 {
					it.Props[k] = vals
				}
			}
		}
		if it.ID == "" {
			it.ID = it.Label
		}
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		p.Items = append(p.Items, it)
	}
	return p, nil
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func jsonStrings(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []string{t}
	case float64:
		return []string{fmt.Sprintf("%g", t)}
	case bool:
		return []string{fmt.Sprint(t)}
	case []any:
		var out []string
		for _, el := range t {
			out = append(out, jsonStrings(el)...)
		}
		return out
	}
	bs, _ := json.Marshal(v)
	return []string{string(bs)}
}

func parseGeoJSON(_ context.Context, _ string, data []byte) (database.Payload, error) {
	fs, err := geom.DecodeGeoJSON(data)
	if err != nil {
		return database.Payload{}, err
	}
	return featuresPayload(fs), nil
}

func featureParser(decode func([]byte) ([]geom.Feature, error)) Parser {
	return ParserFunc(func(_ context.Context, _ string, data []byte) (database.Payload, error) {
		fs, err := decode(data)
		if err != nil {
			return database.Payload{}, err
		}
		return featuresPayload(fs), nil
	})
}

// Geometry property names written by feature based importers.
const (
	PropLatLng   = "latlng"
	PropPolygon  = "polygon"
	PropPolyline = "polyline"
)

// featuresPayload turns decoded features into items. Points become latlng
// values, polygon outer rings polygon values and lines polyline values, all
// as lat,lng pairs joined by ';'.
func featuresPayload(fs []geom.Feature) database.Payload {
	p := database.Payload{Items: make([]database.Item, 0, len(fs))}
	for _, f := range fs {
		it := database.Item{ID: f.ID, Label: f.Label, Props: make(map[string][]string, len(f.Props)+3)}
		for k, v := range f.Props {
			switch k {
			case "id", "label":
			case "type":
				it.Type = first(v)
			default:
				it.Props[k] = append([]string(nil), v...)
			}
		}
		for _, pt := range f.Points {
			it.Props[PropLatLng] = append(it.Props[PropLatLng], geom.FormatLatLng(pt))
		}
		for _, poly := range f.Polygons {
			if len(poly) == 0 {
				continue
			}
			it.Props[PropPolygon] = append(it.Props[PropPolygon], geom.FormatPath(poly[0], ";"))
		}
		for _, line := range f.Lines {
			it.Props[PropPolyline] = append(it.Props[PropPolyline], geom.FormatPath(line, ";"))
		}
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		p.Items = append(p.Items, it)
	}
	return p
}
