package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/phanxgames/moonquake"
	"github.com/wroge/wgs84"
)

const (
	earthRadius = 6378137.0 // WGS84 semi-major axis, metres
	// MoonRadius is the mean lunar radius in metres.
	MoonRadius = 1737400.0
)

// ProjectWebMercator maps longitude/latitude in degrees to EPSG:3857
// metres.
func ProjectWebMercator(lon, lat float64) (x, y float64) {
	x, y, _ = wgs84.EPSG().Transform(4326, 3857)(lon, lat, 0)
	return x, y
}

// ProjectLunarMercator is ProjectWebMercator rescaled to the lunar sphere,
// for flat maps of the Moon in metres.
func ProjectLunarMercator(lon, lat float64) (x, y float64) {
	x, y = ProjectWebMercator(lon, lat)
	const k = MoonRadius / earthRadius
	return x * k, y * k
}

// GeoJSONOptions controls FeatureCollection output.
type GeoJSONOptions struct {
	// Mercator emits lunar Mercator metres instead of degrees.
	Mercator bool
	// Landers includes lander sites after the events.
	Landers bool
}

func point(lon, lat float64, mercator bool) geom.Geometry {
	if mercator {
		lon, lat = ProjectLunarMercator(lon, lat)
	}
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: lon, Y: lat},
		Type: geom.DimXY,
	}).AsGeometry()
}

func isoDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

// FeatureCollection converts the store to GeoJSON point features. Event
// features carry type, date, ordinal and kind "event"; lander features carry
// mission, date and kind "lander".
func FeatureCollection(store *moonquake.EventStore, opts GeoJSONOptions) geom.GeoJSONFeatureCollection {
	fc := make(geom.GeoJSONFeatureCollection, 0, store.Len())
	for _, ev := range store.Events() {
		fc = append(fc, geom.GeoJSONFeature{
			ID:       ev.OrdinalIndex(),
			Geometry: point(ev.LongitudeDeg, ev.LatitudeDeg, opts.Mercator),
			Properties: map[string]any{
				"kind":    "event",
				"type":    ev.TypeCode,
				"date":    isoDate(ev.TimestampMs),
				"ordinal": ev.OrdinalIndex(),
			},
		})
	}
	if !opts.Landers {
		return fc
	}
	for _, l := range store.Landers() {
		fc = append(fc, geom.GeoJSONFeature{
			Geometry: point(l.LongitudeDeg, l.LatitudeDeg, opts.Mercator),
			Properties: map[string]any{
				"kind":    "lander",
				"mission": l.MissionTypeCode,
				"date":    isoDate(l.TimestampMs),
			},
		})
	}
	return fc
}

// WriteGeoJSON encodes the store's FeatureCollection to w.
func WriteGeoJSON(w io.Writer, store *moonquake.EventStore, opts GeoJSONOptions) error {
	if err := json.NewEncoder(w).Encode(FeatureCollection(store, opts)); err != nil {
		return fmt.Errorf("catalog: encode geojson: %w", err)
	}
	return nil
}
