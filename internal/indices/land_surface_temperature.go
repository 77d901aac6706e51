package indices

import (
	"fmt"
	"math"

	"github.com/forest-guardian/rsei-cli/internal/raster"
)

// Emissivity model constants.
const (
	EmissivitySlope     = 0.004
	EmissivityIntercept = 0.986
	MinEmissivity       = 0.001

	// Wavelength term of the single-channel inversion, 0.00115 * (TB / 1.438).
	lstWavelength = 0.00115
	lstRho        = 1.438
	kelvinOffset  = 273.15
)

// VegetationFraction rescales NDVI to [0,1] with the region extent and squares it.
func VegetationFraction(ndvi, min, max float64) float64 {
	scaled := (ndvi - min) / (max - min)
	return scaled * scaled
}

// Emissivity is 0.004*fv + 0.986, kept above MinEmissivity so the logarithm stays finite.
func Emissivity(fv float64) float64 {
	return math.Max(EmissivitySlope*fv+EmissivityIntercept, MinEmissivity)
}

// LandSurfaceTemperature converts brightness temperature (K) and emissivity into °C.
func LandSurfaceTemperature(tb, em float64) float64 {
	return tb/(1+(lstWavelength*(tb/lstRho))*math.Log(em)) - kelvinOffset
}

// LST derives land surface temperature from the scaled thermal band, with the
// emissivity driven by NDVI rescaled over the region.
func LST(ndvi, thermal *raster.Band, region *raster.Region) (*raster.Band, error) {
	extent, err := raster.RegionExtent(ndvi, region)
	if err != nil {
		return nil, fmt.Errorf("indices: %s: %w", NameLST, err)
	}
	if extent.Count == 0 || extent.Span() == 0 {
		id := ""
		if region != nil {
			id = region.ID
		}
		return nil, &raster.DegenerateStatisticError{
			RegionID:   id,
			Stage:      "lst",
			Band:       NameNDVI,
			Statistic:  "max-min",
			Value:      extent.Span(),
			ValidCount: extent.Count,
		}
	}

	out, err := raster.Combine(NameLST, []*raster.Band{ndvi, thermal}, func(px []float64) (float64, bool) {
		fv := VegetationFraction(px[0], extent.Min, extent.Max)
		return LandSurfaceTemperature(px[1], Emissivity(fv)), true
	})
	if err != nil {
		return nil, fmt.Errorf("indices: %s: %w", NameLST, err)
	}
	return out, nil
}
