package rsei

import (
	"fmt"
	"math"

	"github.com/forest-guardian/rsei-cli/internal/raster"
)

// Normalize rescales band linearly so the region minimum maps to 0 and the
// region maximum to 1. Pixels outside the region are limited to [0,1].
func Normalize(name string, band *raster.Band, region *raster.Region) (*raster.Band, raster.Extent, error) {
	extent, err := raster.RegionExtent(band, region)
	if err != nil {
		return nil, extent, fmt.Errorf("normalize %s: %w", band.Name(), err)
	}
	span := extent.Span()
	if extent.Count == 0 || span <= 0 {
		return nil, extent, &raster.DegenerateStatisticError{
			RegionID:   regionID(region),
			Stage:      "normalize",
			Band:       band.Name(),
			Statistic:  "max-min",
			Value:      span,
			ValidCount: extent.Count,
		}
	}
	min := extent.Min
	out := raster.Map(name, band, func(v float64) (float64, bool) {
		return math.Max(0, math.Min(1, (v-min)/span)), true
	})
	return out, extent, nil
}
