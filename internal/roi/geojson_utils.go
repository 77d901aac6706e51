// Package roi loads regions of interest from GeoJSON and lays them onto a
// pixel grid.
package roi

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forest-guardian/rsei-cli/internal/properties"
	"github.com/forest-guardian/rsei-cli/internal/raster"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// IDProperty is the feature property that names a region inside an area file.
const IDProperty = "region_id"

// Metres per degree used to size grids in geographic coordinates.
const metresPerDegree = 111_000.0

// MaxPixels caps each grid dimension, matching the process API limit.
const MaxPixels = 2500

var ErrRegionNotFound = errors.New("region not found")

// ROI is one polygon region of an area file.
type ROI struct {
	Area     string
	ID       string
	Geometry orb.Geometry
}

// Bound is the bounding box of the region geometry.
func (r *ROI) Bound() orb.Bound {
	return r.Geometry.Bound()
}

// Key identifies the region on disk, e.g. "forest_plot-3".
func (r *ROI) Key() string {
	return fmt.Sprintf("%s_%s", r.Area, r.ID)
}

func (r *ROI) Centroid() (orb.Point, error) {
	centroid, area := planar.CentroidArea(r.Geometry)
	if area <= 0 {
		return orb.Point{}, errors.New("error getting centroid")
	}
	return centroid, nil
}

// AreaPath is the GeoJSON file of an area under $ROOT_PATH/data/geojsons.
func AreaPath(area string) string {
	return filepath.Join(properties.RootPath(), "data", "geojsons", area+".geojson")
}

// ListAreas returns the area names that have a GeoJSON file.
func ListAreas() ([]string, error) {
	files, err := os.ReadDir(filepath.Join(properties.RootPath(), "data", "geojsons"))
	if err != nil {
		return nil, fmt.Errorf("error reading geojsons folder: %w", err)
	}
	var areas []string
	for _, file := range files {
		if strings.HasSuffix(file.Name(), ".geojson") {
			areas = append(areas, strings.TrimSuffix(file.Name(), ".geojson"))
		}
	}
	return areas, nil
}

// LoadArea reads every polygon feature carrying a region id.
func LoadArea(area string) ([]*ROI, error) {
	data, err := os.ReadFile(AreaPath(area))
	if err != nil {
		return nil, err
	}
	return ParseArea(area, data)
}

func ParseArea(area string, data []byte) ([]*ROI, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("error decoding GEOJSON %s: %w", area, err)
	}
	var rois []*ROI
	for _, feature := range fc.Features {
		id, ok := regionID(feature.Properties)
		if !ok {
			continue
		}
		switch feature.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			return nil, fmt.Errorf("region %s of %s is a %s, expected a polygon", id, area, feature.Geometry.GeoJSONType())
		}
		rois = append(rois, &ROI{Area: area, ID: id, Geometry: feature.Geometry})
	}
	sort.Slice(rois, func(i, j int) bool { return rois[i].ID < rois[j].ID })
	return rois, nil
}

// Get returns one region of an area.
func Get(area, id string) (*ROI, error) {
	rois, err := LoadArea(area)
	if err != nil {
		return nil, err
	}
	for _, r := range rois {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: area %s, region %s", ErrRegionNotFound, area, id)
}

func regionID(props geojson.Properties) (string, bool) {
	v, ok := props[IDProperty]
	if !ok || v == nil {
		return "", false
	}
	switch id := v.(type) {
	case string:
		return id, id != ""
	case float64:
		return fmt.Sprintf("%g", id), true
	default:
		return fmt.Sprint(id), true
	}
}

func calculatePixels(distance, resolution float64) int {
	pixels := int(distance * (metresPerDegree / resolution))
	if pixels < 1 {
		return 1
	}
	if pixels > MaxPixels {
		return MaxPixels
	}
	return pixels
}

// GridFor covers bound with pixels of roughly resolution metres on the ground
// in both directions.
func GridFor(bound orb.Bound, resolution float64) (raster.Grid, error) {
	if resolution <= 0 {
		return raster.Grid{}, fmt.Errorf("invalid resolution %g", resolution)
	}
	// A degree of longitude shrinks with the cosine of the latitude.
	centreLat := (bound.Min.Y() + bound.Max.Y()) / 2
	width := calculatePixels((bound.Max.X()-bound.Min.X())*math.Cos(centreLat*math.Pi/180), resolution)
	height := calculatePixels(bound.Max.Y()-bound.Min.Y(), resolution)
	return raster.Grid{
		Width:  width,
		Height: height,
		GeoTransform: [6]float64{
			bound.Min.X(), (bound.Max.X() - bound.Min.X()) / float64(width), 0,
			bound.Max.Y(), 0, -(bound.Max.Y() - bound.Min.Y()) / float64(height),
		},
		Projection: "EPSG:4326",
	}, nil
}

// Rasterize marks the grid pixels whose centre falls inside the region.
func Rasterize(r *ROI, grid raster.Grid) (*raster.Region, error) {
	mask := make([]bool, grid.Len())
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			lon, lat := grid.PixelCenter(x, y)
			mask[y*grid.Width+x] = contains(r.Geometry, orb.Point{lon, lat})
		}
	}
	region, err := raster.NewRegion(r.ID, grid, mask)
	if err != nil {
		return nil, err
	}
	if region.PixelCount() == 0 {
		return nil, fmt.Errorf("region %s covers no pixel centre at this resolution", r.ID)
	}
	return region, nil
}

func contains(g orb.Geometry, p orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, p)
	}
	return false
}
