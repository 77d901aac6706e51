package roi

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/forest-guardian/rsei-cli/internal/properties"
	"github.com/paulmach/orb"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const areaJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"region_id": "north"},
      "geometry": {"type": "Polygon", "coordinates": [[[0,0],[0.01,0],[0.01,0.01],[0,0.01],[0,0]]]}
    },
    {
      "type": "Feature",
      "properties": {"region_id": 7},
      "geometry": {"type": "Polygon", "coordinates": [[[0,0],[0.01,0],[0,0.01],[0,0]]]}
    },
    {
      "type": "Feature",
      "properties": {"name": "unlabelled"},
      "geometry": {"type": "Point", "coordinates": [0, 0]}
    }
  ]
}`

func withRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	viper.Set(properties.KeyRootPath, root)
	t.Cleanup(func() { viper.Set(properties.KeyRootPath, ".") })
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data", "geojsons"), 0755))
	return root
}

func TestLoadAreaAndGet(t *testing.T) {
	root := withRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "geojsons", "park.geojson"), []byte(areaJSON), 0644))

	areas, err := ListAreas()
	require.NoError(t, err)
	assert.Equal(t, []string{"park"}, areas)

	rois, err := LoadArea("park")
	require.NoError(t, err)
	require.Len(t, rois, 2)
	assert.Equal(t, "7", rois[0].ID)
	assert.Equal(t, "north", rois[1].ID)

	r, err := Get("park", "north")
	require.NoError(t, err)
	assert.Equal(t, "park_north", r.Key())
	c, err := r.Centroid()
	require.NoError(t, err)
	assert.InDelta(t, 0.005, c.X(), 1e-9)

	_, err = Get("park", "south")
	assert.True(t, errors.Is(err, ErrRegionNotFound))
}

func TestParseAreaRejectsNonPolygonRegion(t *testing.T) {
	data := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"region_id":"p"},"geometry":{"type":"Point","coordinates":[1,2]}}]}`
	_, err := ParseArea("x", []byte(data))
	assert.Error(t, err)
}

func TestGridFor(t *testing.T) {
	bound := orb.Bound{Min: orb.Point{10, 20}, Max: orb.Point{10.01, 20.005}}
	grid, err := GridFor(bound, 30)
	require.NoError(t, err)
	// 0.01 degrees of longitude at 20N is about 1043 m
	assert.Equal(t, 34, grid.Width)
	assert.Equal(t, 18, grid.Height)
	assert.Equal(t, 10.0, grid.GeoTransform[0])
	assert.Equal(t, 20.005, grid.GeoTransform[3])
	assert.Less(t, grid.GeoTransform[5], 0.0)

	tiny, err := GridFor(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0, 0}}, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, tiny.Width)

	huge, err := GridFor(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{5, 5}}, 10)
	require.NoError(t, err)
	assert.Equal(t, MaxPixels, huge.Width)

	_, err = GridFor(bound, 0)
	assert.Error(t, err)
}

func TestGridForScalesLongitudeWithLatitude(t *testing.T) {
	equator, err := GridFor(orb.Bound{Min: orb.Point{10, -0.005}, Max: orb.Point{10.02, 0.005}}, 30)
	require.NoError(t, err)
	north, err := GridFor(orb.Bound{Min: orb.Point{10, 59.995}, Max: orb.Point{10.02, 60.005}}, 30)
	require.NoError(t, err)

	assert.InDelta(t, 74, equator.Width, 1)
	assert.InDelta(t, 37, north.Width, 1, "half the pixels at 60N")
	assert.InDelta(t, north.Height, north.Width, 1, "pixels stay square on the ground")
	assert.InDelta(t, equator.Height, north.Height, 1)
}

func TestRasterizeTriangle(t *testing.T) {
	rois, err := ParseArea("park", []byte(areaJSON))
	require.NoError(t, err)
	triangle := rois[0]

	grid, err := GridFor(triangle.Bound(), 100)
	require.NoError(t, err)
	require.Equal(t, 11, grid.Width)
	require.Equal(t, 11, grid.Height)

	region, err := Rasterize(triangle, grid)
	require.NoError(t, err)
	assert.Equal(t, "7", region.ID)
	// 55 centres lie strictly inside, 11 sit on the hypotenuse
	assert.GreaterOrEqual(t, region.PixelCount(), 55)
	assert.LessOrEqual(t, region.PixelCount(), 66)
	assert.True(t, region.Contains(110), "bottom left")
	assert.False(t, region.Contains(10), "top right")
}
