package rsei

import (
	"fmt"
	"math"

	"github.com/forest-guardian/rsei-cli/internal/raster"
)

// Standardize converts band into z-scores using the region mean and
// population standard deviation.
func Standardize(band *raster.Band, region *raster.Region) (*raster.Band, raster.Moments, error) {
	m, err := raster.RegionMoments(band, region)
	if err != nil {
		return nil, m, fmt.Errorf("standardize %s: %w", band.Name(), err)
	}
	sd := m.StdDev()
	if m.Count == 0 || sd == 0 || math.IsNaN(sd) {
		return nil, m, &raster.DegenerateStatisticError{
			RegionID:   regionID(region),
			Stage:      "standardize",
			Band:       band.Name(),
			Statistic:  "stddev",
			Value:      sd,
			ValidCount: m.Count,
		}
	}
	mean := m.Mean
	out := raster.Map(band.Name(), band, func(v float64) (float64, bool) {
		return (v - mean) / sd, true
	})
	return out, m, nil
}

func regionID(r *raster.Region) string {
	if r == nil {
		return ""
	}
	return r.ID
}
