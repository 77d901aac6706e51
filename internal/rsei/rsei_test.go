package rsei

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/forest-guardian/rsei-cli/internal/indices"
	"github.com/forest-guardian/rsei-cli/internal/landsat"
	"github.com/forest-guardian/rsei-cli/internal/raster"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(t *testing.T, name string, r [][]float64) *raster.Band {
	t.Helper()
	b, err := raster.FromRows(name, r)
	require.NoError(t, err)
	return b
}

func validValues(b *raster.Band) []float64 {
	var out []float64
	for i := 0; i < b.Len(); i++ {
		if v, ok := b.Value(i); ok {
			out = append(out, v)
		}
	}
	return out
}

// wave builds a deterministic, non-degenerate band of n pixels.
func wave(t *testing.T, name string, n int, f func(i float64) float64) *raster.Band {
	t.Helper()
	values := make([]float64, n)
	for i := range values {
		values[i] = f(float64(i))
	}
	return rows(t, name, [][]float64{values})
}

func TestStandardizeHasZeroMeanUnitStdDev(t *testing.T) {
	band := wave(t, "x", 500, func(i float64) float64 { return 3 + 2*math.Sin(i/7) + i/100 })
	region := raster.WholeGrid("roi", band.Grid())

	z, m, err := Standardize(band, region)
	require.NoError(t, err)
	assert.Equal(t, 500, m.Count)

	again, err := raster.RegionMoments(z, region)
	require.NoError(t, err)
	assert.InDelta(t, 0, again.Mean, 1e-9)
	assert.InDelta(t, 1, again.StdDev(), 1e-9)
}

func TestStandardizeUsesRegionPixelsOnly(t *testing.T) {
	band := rows(t, "x", [][]float64{{1, 3, 1000}})
	region, err := raster.NewRegion("roi", band.Grid(), []bool{true, true, false})
	require.NoError(t, err)

	z, m, err := Standardize(band, region)
	require.NoError(t, err)
	assert.InDelta(t, 2, m.Mean, 1e-12)
	assert.Equal(t, []float64{-1, 1, 998}, z.Values(math.NaN()))
}

func TestStandardizeDegenerate(t *testing.T) {
	band := rows(t, "LST", [][]float64{{5, 5}, {5, math.NaN()}})

	_, _, err := Standardize(band, raster.WholeGrid("roi-7", band.Grid()))
	var degenerate *raster.DegenerateStatisticError
	require.True(t, errors.As(err, &degenerate))
	assert.Equal(t, "roi-7", degenerate.RegionID)
	assert.Equal(t, "standardize", degenerate.Stage)
	assert.Equal(t, "LST", degenerate.Band)
	assert.Equal(t, 3, degenerate.ValidCount)
}

func TestPrincipalComponentsOrdering(t *testing.T) {
	n := 400
	bands := []*raster.Band{
		wave(t, "a", n, func(i float64) float64 { return math.Sin(i / 5) }),
		wave(t, "b", n, func(i float64) float64 { return 0.5*math.Sin(i/5) + 0.3*math.Cos(i/3) }),
		wave(t, "c", n, func(i float64) float64 { return math.Cos(i/11) - 0.2*math.Sin(i/5) }),
		wave(t, "d", n, func(i float64) float64 { return math.Sin(i/2) * 0.1 }),
	}

	pca, err := PrincipalComponents(bands, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, n, pca.ValidCount)

	values := pca.Eigenvalues()
	require.Len(t, values, 4)
	sum := 0.0
	for i, v := range values {
		sum += v
		if i > 0 {
			assert.GreaterOrEqual(t, values[i-1], v)
		}
	}
	assert.InDelta(t, pca.Trace(), sum, 1e-9)

	for _, pair := range pca.Pairs {
		norm := 0.0
		for _, x := range pair.Vector {
			norm += x * x
		}
		assert.InDelta(t, 1, norm, 1e-9)
	}
	assert.Greater(t, pca.Leading().Vector[0], 0.0)
}

func TestPrincipalComponentsFollowsOrientationBand(t *testing.T) {
	n := 200
	ndvi := wave(t, "ndvi", n, func(i float64) float64 { return math.Sin(i / 9) })
	bands := []*raster.Band{
		ndvi,
		wave(t, "wet", n, func(i float64) float64 { return 0.8*math.Sin(i/9) + 0.1*math.Cos(i) }),
		wave(t, "lst", n, func(i float64) float64 { return -math.Sin(i/9) + 0.1*math.Sin(i*3) }),
		wave(t, "ndbsi", n, func(i float64) float64 { return -0.9 * math.Sin(i/9) }),
	}

	pca, err := PrincipalComponents(bands, nil, 0)
	require.NoError(t, err)
	axis := pca.Leading().Vector
	assert.Greater(t, axis[0], 0.0)
	assert.Greater(t, axis[1], 0.0)
	assert.Less(t, axis[2], 0.0)
	assert.Less(t, axis[3], 0.0)

	pc1, err := Project(NamePC1, bands, axis, 0)
	require.NoError(t, err)
	cov, err := raster.RegionCovariance([]*raster.Band{pc1, ndvi}, nil)
	require.NoError(t, err)
	matrix, err := cov.Matrix()
	require.NoError(t, err)
	assert.Greater(t, matrix[1], 0.0, "PC1 grows with NDVI")
}

func TestPrincipalComponentsSingular(t *testing.T) {
	nan := math.NaN()
	bands := []*raster.Band{
		rows(t, "a", [][]float64{{1, 2, 3, 4, 5}}),
		rows(t, "b", [][]float64{{2, 1, 3, 5, 4}}),
		rows(t, "c", [][]float64{{1, nan, 2, 3, 1}}),
		rows(t, "d", [][]float64{{nan, 4, 1, 2, 2}}),
	}

	_, err := PrincipalComponents(bands, raster.WholeGrid("roi", bands[0].Grid()), 0)
	var singular *raster.SingularCovarianceError
	require.True(t, errors.As(err, &singular))
	assert.Equal(t, "pca", singular.Stage)
	assert.Equal(t, "roi", singular.RegionID)
	assert.Equal(t, 3, singular.ValidCount, "partial vectors are excluded")
	assert.Equal(t, 4, singular.Dims)
}

func TestProjectClamps(t *testing.T) {
	a := rows(t, "a", [][]float64{{10, -10, 1, math.NaN()}})
	pc, err := Project(NamePC1, []*raster.Band{a}, []float64{1}, 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, -4, 1, -9999}, pc.Values(-9999))
}

func TestNormalizeRangeAndIdempotence(t *testing.T) {
	pc1 := wave(t, "pc1", 300, func(i float64) float64 { return 3 * math.Sin(i/13) })
	region := raster.WholeGrid("roi", pc1.Grid())

	rsei, extent, err := Normalize(NameRSEI, pc1, region)
	require.NoError(t, err)
	assert.Equal(t, 300, extent.Count)

	for i := 0; i < pc1.Len(); i++ {
		src, _ := pc1.Value(i)
		v, ok := rsei.Value(i)
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		if src == extent.Min {
			assert.Equal(t, 0.0, v)
		}
		if src == extent.Max {
			assert.Equal(t, 1.0, v)
		}
	}

	again, _, err := Normalize(NameRSEI, rsei, region)
	require.NoError(t, err)
	first, second := validValues(rsei), validValues(again)
	require.Len(t, second, len(first))
	for i := range first {
		assert.InDelta(t, first[i], second[i], 1e-12)
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	pc1 := rows(t, "pc1", [][]float64{{2, 2, 2}})
	_, _, err := Normalize(NameRSEI, pc1, raster.WholeGrid("roi", pc1.Grid()))
	var degenerate *raster.DegenerateStatisticError
	require.True(t, errors.As(err, &degenerate))
	assert.Equal(t, "normalize", degenerate.Stage)
	assert.Equal(t, 3, degenerate.ValidCount)
}

func TestThresholdClass(t *testing.T) {
	tests := []struct {
		v    float64
		want Class
	}{
		{0, VeryLow},
		{0.2, VeryLow},
		{0.2000001, Low},
		{0.4, Low},
		{0.5, Moderate},
		{0.6, Moderate},
		{0.79, High},
		{0.8, High},
		{0.81, VeryHigh},
		{1, VeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultThresholds.Class(tt.v), "v=%g", tt.v)
	}
}

func TestClassificationIsMonotonic(t *testing.T) {
	prev := NoClass
	for i := 0; i <= 1000; i++ {
		c := DefaultThresholds.Class(float64(i) / 1000)
		assert.GreaterOrEqual(t, c, prev)
		assert.GreaterOrEqual(t, c, VeryLow)
		assert.LessOrEqual(t, c, VeryHigh)
		prev = c
	}
}

func TestClassifyPropagatesNoData(t *testing.T) {
	rsei := rows(t, NameRSEI, [][]float64{{0.1, math.NaN(), 0.9}})
	classes, err := Classify(rsei, DefaultThresholds)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 5}, classes.Values(0))
	assert.Equal(t, 2, classes.ValidCount())
	assert.Equal(t, [ClassCount]int{1, 0, 0, 0, 1}, ClassHistogram(classes, nil))
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds.Validate())
	assert.ErrorIs(t, Thresholds{0.2, 0.2, 0.6, 0.8}.Validate(), ErrInvalidThresholds)
	assert.ErrorIs(t, Thresholds{0.4, 0.2, 0.6, 0.8}.Validate(), ErrInvalidThresholds)
	assert.ErrorIs(t, Thresholds{-0.1, 0.2, 0.6, 0.8}.Validate(), ErrInvalidThresholds)
	assert.ErrorIs(t, Thresholds{0.2, 0.4, 0.6, 1.2}.Validate(), ErrInvalidThresholds)
}

func TestParseThresholds(t *testing.T) {
	got, err := ParseThresholds("0.1, 0.3,0.5 ,0.9")
	require.NoError(t, err)
	assert.Equal(t, Thresholds{0.1, 0.3, 0.5, 0.9}, got)
	assert.Equal(t, "0.1,0.3,0.5,0.9", got.String())

	_, err = ParseThresholds("0.1,0.3")
	assert.ErrorIs(t, err, ErrInvalidThresholds)
	_, err = ParseThresholds("0.1,x,0.5,0.9")
	assert.ErrorIs(t, err, ErrInvalidThresholds)
}

func TestClassNames(t *testing.T) {
	assert.Equal(t, "Very Low", VeryLow.String())
	assert.Equal(t, "Very High", VeryHigh.String())
	assert.Len(t, Classes(), ClassCount)
}

func TestRunTwoByTwoScenario(t *testing.T) {
	values := [][]float64{{-1, -1}, {1, 1}}
	ind := &indices.Indicators{
		NDVI:    rows(t, indices.NameNDVI, values),
		Wetness: rows(t, indices.NameWetness, values),
		LST:     rows(t, indices.NameLST, values),
		NDBSI:   rows(t, indices.NameNDBSI, values),
	}
	region := raster.WholeGrid("square", ind.NDVI.Grid())

	res, err := Run(ind, region, DefaultOptions())
	require.NoError(t, err)

	eig := res.PCA.Eigenvalues()
	assert.Greater(t, eig[0], 0.0)
	for _, v := range eig[1:] {
		assert.InDelta(t, 0, v, 1e-9, "covariance is rank one")
	}
	assert.InDelta(t, res.PCA.Trace(), eig[0], 1e-9)
	for _, x := range res.PCA.Leading().Vector {
		assert.InDelta(t, 0.5, x, 1e-9)
	}

	assert.InDeltaSlice(t, []float64{-2, -2, 2, 2}, res.PC1.Values(math.NaN()), 1e-9)
	assert.InDelta(t, -2, res.PC1Extent.Min, 1e-9)
	assert.InDelta(t, 2, res.PC1Extent.Max, 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0, 1, 1}, res.RSEI.Values(math.NaN()), 1e-9)
	assert.Equal(t, []float64{1, 1, 5, 5}, res.Classes.Values(0))
	assert.Equal(t, [ClassCount]int{2, 0, 0, 0, 2}, res.ClassCounts)
	assert.Equal(t, [ClassCount]float64{0.5, 0, 0, 0, 0.5}, res.ClassFractions())
	assert.InDelta(t, 0.5, res.MeanRSEI(), 1e-12)
}

func TestRunClipsToRegion(t *testing.T) {
	n := 60
	ind := &indices.Indicators{
		NDVI:    wave(t, indices.NameNDVI, n, func(i float64) float64 { return math.Sin(i / 6) }),
		Wetness: wave(t, indices.NameWetness, n, func(i float64) float64 { return math.Cos(i / 4) }),
		LST:     wave(t, indices.NameLST, n, func(i float64) float64 { return 20 + 5*math.Sin(i/3) }),
		NDBSI:   wave(t, indices.NameNDBSI, n, func(i float64) float64 { return -0.3 * math.Sin(i/6+1) }),
	}
	mask := make([]bool, n)
	for i := 10; i < 50; i++ {
		mask[i] = true
	}
	region, err := raster.NewRegion("strip", ind.NDVI.Grid(), mask)
	require.NoError(t, err)

	res, err := Run(ind, region, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 40, res.RSEI.ValidCount())
	assert.Equal(t, 40, res.Classes.ValidCount())
	for _, v := range validValues(res.RSEI) {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	total := 0
	for _, c := range res.ClassCounts {
		total += c
	}
	assert.Equal(t, 40, total)
}

func TestRunRejectsBadOptions(t *testing.T) {
	ind := &indices.Indicators{}
	_, err := Run(ind, nil, Options{Thresholds: Thresholds{0.5, 0.4, 0.6, 0.8}})
	assert.ErrorIs(t, err, ErrInvalidThresholds)
	_, err = Run(ind, nil, Options{Thresholds: DefaultThresholds, PC1Clamp: -1})
	assert.Error(t, err)
}

var footprint = orb.Bound{Min: orb.Point{100, 30}, Max: orb.Point{101, 31}}

func reflectanceDN(r float64) float64 { return (r - landsat.ReflectanceOffset) / landsat.ReflectanceScale }
func thermalDN(k float64) float64     { return (k - landsat.ThermalOffset) / landsat.ThermalScale }

// syntheticScene spreads a vegetation gradient across a 3x3 grid.
func syntheticScene(t *testing.T, id string, cloudy map[int]bool) *landsat.Scene {
	t.Helper()
	grid := raster.Grid{Width: 3, Height: 3}
	n := grid.Len()
	profile := map[string]func(g float64) float64{
		landsat.BandBlue:  func(g float64) float64 { return reflectanceDN(0.10 - 0.05*g) },
		landsat.BandGreen: func(g float64) float64 { return reflectanceDN(0.10 + 0.01*g) },
		landsat.BandRed:   func(g float64) float64 { return reflectanceDN(0.20 - 0.15*g) },
		landsat.BandNIR:   func(g float64) float64 { return reflectanceDN(0.20 + 0.30*g) },
		landsat.BandSWIR1: func(g float64) float64 { return reflectanceDN(0.30 - 0.15*g + 0.02*g*g) },
		landsat.BandSWIR2: func(g float64) float64 { return reflectanceDN(0.25 - 0.15*g) },
		landsat.BandThermal: func(g float64) float64 {
			return thermalDN(310 - 10*g)
		},
	}
	bands := map[string]*raster.Band{}
	for name, f := range profile {
		values := make([]float64, n)
		for i := range values {
			values[i] = f(float64(i) / float64(n-1))
			if cloudy[i] {
				values[i] = 1
			}
		}
		b, err := raster.NewBand(name, grid, values, nil)
		require.NoError(t, err)
		bands[name] = b
	}
	qa := make([]float64, n)
	for i := range qa {
		if cloudy[i] {
			qa[i] = landsat.CloudBitMask
		}
	}
	q, err := raster.NewBand(landsat.BandQA, grid, qa, nil)
	require.NoError(t, err)
	bands[landsat.BandQA] = q

	scene, err := landsat.NewScene(landsat.SceneInfo{
		ID:         id,
		Acquired:   time.Date(2015, 8, 10, 0, 0, 0, 0, time.UTC),
		CloudCover: 0.4,
		Footprint:  footprint,
	}, bands)
	require.NoError(t, err)
	return scene
}

func testQuery(maxCloud float64) landsat.Query {
	return landsat.Query{
		RegionID:      "synthetic",
		Region:        footprint,
		Start:         time.Date(2015, 8, 1, 0, 0, 0, 0, time.UTC),
		End:           time.Date(2015, 8, 20, 0, 0, 0, 0, time.UTC),
		MaxCloudCover: maxCloud,
	}
}

func TestFromScenes(t *testing.T) {
	scenes := []*landsat.Scene{
		syntheticScene(t, "clear", nil),
		syntheticScene(t, "cloudy", map[int]bool{4: true, 8: true}),
	}
	region := raster.WholeGrid("synthetic", scenes[0].Grid)

	res, err := FromScenes(scenes, testQuery(landsat.DefaultMaxCloudCover), region, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"clear", "cloudy"}, res.Scenes)
	assert.Equal(t, 9, res.RSEI.ValidCount())

	greenest, _ := res.RSEI.Value(8)
	barest, _ := res.RSEI.Value(0)
	assert.Greater(t, greenest, barest, "higher RSEI for greener land")
}

func TestFromScenesWithoutClearScenes(t *testing.T) {
	scenes := []*landsat.Scene{syntheticScene(t, "a", nil), syntheticScene(t, "b", nil)}
	region := raster.WholeGrid("synthetic", scenes[0].Grid)

	_, err := FromScenes(scenes, testQuery(0), region, DefaultOptions())
	var empty *raster.EmptyInputError
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, "select", empty.Stage)
	assert.Equal(t, 2, empty.Candidates)
}

func TestFromScenesFullyClouded(t *testing.T) {
	all := map[int]bool{}
	for i := 0; i < 9; i++ {
		all[i] = true
	}
	scenes := []*landsat.Scene{syntheticScene(t, "a", all), syntheticScene(t, "b", all)}
	region := raster.WholeGrid("synthetic", scenes[0].Grid)

	_, err := FromScenes(scenes, testQuery(landsat.DefaultMaxCloudCover), region, DefaultOptions())
	require.Error(t, err)

	var empty *raster.EmptyInputError
	assert.False(t, errors.As(err, &empty), "scenes were selected, only their pixels are masked")
	var degenerate *raster.DegenerateStatisticError
	require.True(t, errors.As(err, &degenerate))
	assert.Equal(t, 0, degenerate.ValidCount)
	assert.Equal(t, "synthetic", degenerate.RegionID)
}

func TestOrientVector(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"positive loading kept", []float64{0.5, -0.5, 0.5, -0.5}, []float64{0.5, -0.5, 0.5, -0.5}},
		{"negative loading flipped", []float64{-0.6, 0.8, 0, 0}, []float64{0.6, -0.8, 0, 0}},
		{"zero loading uses negative sum", []float64{0, -0.8, 0.6, 0}, []float64{0, 0.8, -0.6, 0}},
		{"zero loading uses positive sum", []float64{0, 0.8, -0.6, 0}, []float64{0, 0.8, -0.6, 0}},
		{"zero loading and zero sum kept", []float64{0, 0.6, -0.6, 0}, []float64{0, 0.6, -0.6, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := append([]float64(nil), tt.in...)
			orientVector(v, 0)
			assert.Equal(t, tt.want, v)
		})
	}
}
