package geom

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// DecodeCSV reads a headed CSV. Latitude/longitude columns are detected by
// name (lat|latitude|y and lon|lng|long|longitude|x, case-insensitive); an
// id column names the feature and every other column becomes a property.
// Rows without usable coordinates are kept as features without geometry.
func DecodeCSV(r io.Reader) ([]Feature, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("empty csv")
	}
	header := recs[0]
	idxLat, idxLon, idxID := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "lat", "latitude", "y":
			if idxLat == -1 {
				idxLat = i
			}
		case "lon", "lng", "long", "longitude", "x":
			if idxLon == -1 {
				idxLon = i
			}
		case "id":
			if idxID == -1 {
				idxID = i
			}
		}
	}
	if idxLat == -1 || idxLon == -1 {
		return nil, errors.New("csv: latitude/longitude columns not found")
	}
	var out []Feature
	for _, row := range recs[1:] {
		var f Feature
		for i, v := range row {
			if i >= len(header) || i == idxLat || i == idxLon {
				continue
			}
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if i == idxID {
				f.ID = v
				continue
			}
			f.addProp(strings.TrimSpace(header[i]), v)
		}
		if idxLon < len(row) && idxLat < len(row) {
			lon, err1 := strconv.ParseFloat(strings.TrimSpace(row[idxLon]), 64)
			lat, err2 := strconv.ParseFloat(strings.TrimSpace(row[idxLat]), 64)
			if err1 == nil && err2 == nil {
				f.Points = append(f.Points, orb.Point{lon, lat})
			}
		}
		f.pickLabel()
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, errors.New("csv: no rows")
	}
	return out, nil
}
