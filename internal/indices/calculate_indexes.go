// Package indices derives the four RSEI indicator rasters from a scaled
// Landsat composite.
package indices

import (
	"fmt"

	"github.com/forest-guardian/rsei-cli/internal/landsat"
	"github.com/forest-guardian/rsei-cli/internal/raster"
)

const (
	NameNDVI    = "NDVI"
	NameWetness = "Wetness"
	NameLST     = "LST"
	NameNDBSI   = "NDBSI"
)

// WetnessCoefficients weight blue, green, red, NIR, SWIR1 and SWIR2.
var WetnessCoefficients = [6]float64{0.1511, 0.1973, 0.3283, 0.3407, -0.7117, -0.4559}

// Indicators holds the greenness, wetness, heat and dryness rasters.
type Indicators struct {
	NDVI    *raster.Band
	Wetness *raster.Band
	LST     *raster.Band
	NDBSI   *raster.Band
}

// Bands returns the indicators in PCA order: NDVI, Wetness, LST, NDBSI.
func (in *Indicators) Bands() []*raster.Band {
	return []*raster.Band{in.NDVI, in.Wetness, in.LST, in.NDBSI}
}

// Calculate derives every indicator from a scaled composite. The region is
// used by LST for the NDVI extent.
func Calculate(stack *landsat.Stack, region *raster.Region) (*Indicators, error) {
	bands := make(map[string]*raster.Band, len(landsat.SpectralBands))
	for _, name := range landsat.SpectralBands {
		b, err := stack.Band(name)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		bands[name] = b
	}

	ndvi, err := NDVI(bands[landsat.BandNIR], bands[landsat.BandRed])
	if err != nil {
		return nil, err
	}
	wetness, err := Wetness([6]*raster.Band{
		bands[landsat.BandBlue], bands[landsat.BandGreen], bands[landsat.BandRed],
		bands[landsat.BandNIR], bands[landsat.BandSWIR1], bands[landsat.BandSWIR2],
	})
	if err != nil {
		return nil, err
	}
	ndbsi, err := NDBSI(bands[landsat.BandBlue], bands[landsat.BandRed], bands[landsat.BandNIR], bands[landsat.BandSWIR1])
	if err != nil {
		return nil, err
	}
	lst, err := LST(ndvi, bands[landsat.BandThermal], region)
	if err != nil {
		return nil, err
	}

	return &Indicators{NDVI: ndvi, Wetness: wetness, LST: lst, NDBSI: ndbsi}, nil
}

// normalizedRatio divides a normalized difference. A zero denominator, or a
// result outside [-1,1] because an operand is a negative reflectance, is no-data.
func normalizedRatio(a, b float64) (float64, bool) {
	if b == 0 {
		return 0, false
	}
	v := a / b
	if v < -1 || v > 1 {
		return 0, false
	}
	return v, true
}

// NormalizedDifference computes (a - b) / (a + b).
func NormalizedDifference(name string, a, b *raster.Band) (*raster.Band, error) {
	out, err := raster.Combine(name, []*raster.Band{a, b}, func(px []float64) (float64, bool) {
		return normalizedRatio(px[0]-px[1], px[0]+px[1])
	})
	if err != nil {
		return nil, fmt.Errorf("indices: %s: %w", name, err)
	}
	return out, nil
}

// NDVI is the normalized difference of NIR and red.
func NDVI(nir, red *raster.Band) (*raster.Band, error) {
	return NormalizedDifference(NameNDVI, nir, red)
}

// NDBSI is the built-up and bare soil index
// ((RED+SWIR1) - (NIR+BLUE)) / ((RED+SWIR1) + (NIR+BLUE)).
func NDBSI(blue, red, nir, swir1 *raster.Band) (*raster.Band, error) {
	out, err := raster.Combine(NameNDBSI, []*raster.Band{blue, red, nir, swir1}, func(px []float64) (float64, bool) {
		bare := px[1] + px[3]
		green := px[2] + px[0]
		return normalizedRatio(bare-green, bare+green)
	})
	if err != nil {
		return nil, fmt.Errorf("indices: %s: %w", NameNDBSI, err)
	}
	return out, nil
}

// Wetness is the tasseled-cap style linear combination of the six reflective bands,
// ordered blue, green, red, NIR, SWIR1, SWIR2.
func Wetness(bands [6]*raster.Band) (*raster.Band, error) {
	out, err := raster.Combine(NameWetness, bands[:], func(px []float64) (float64, bool) {
		sum := 0.0
		for i, c := range WetnessCoefficients {
			sum += c * px[i]
		}
		return sum, true
	})
	if err != nil {
		return nil, fmt.Errorf("indices: %s: %w", NameWetness, err)
	}
	return out, nil
}
