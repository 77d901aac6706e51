package raster

import (
	"fmt"
	"sort"
)

// Median builds a band whose pixels are the median of the valid observations
// across srcs. Pixels without any valid observation stay no-data.
func Median(name string, srcs []*Band) (*Band, error) {
	if len(srcs) == 0 {
		return nil, fmt.Errorf("raster: median %s without sources", name)
	}
	if err := checkRegion(nil, srcs...); err != nil {
		return nil, err
	}

	grid := srcs[0].grid
	values := make([]float64, grid.Len())
	valid := make([]bool, grid.Len())

	forEachTile(grid, func(t tile) {
		obs := make([]float64, 0, len(srcs))
		for i := t.start; i < t.end; i++ {
			obs = obs[:0]
			for _, src := range srcs {
				if src.valid[i] {
					obs = append(obs, src.values[i])
				}
			}
			if len(obs) == 0 {
				continue
			}
			sort.Float64s(obs)
			mid := len(obs) / 2
			if len(obs)%2 == 1 {
				values[i] = obs[mid]
			} else {
				values[i] = (obs[mid-1] + obs[mid]) / 2
			}
			valid[i] = true
		}
	})

	return newBandOwned(name, grid, values, valid), nil
}
