package raster

import (
	"fmt"
	"math"
)

// PixelFunc computes one output pixel from the valid inputs at the same index.
// Returning false, NaN or ±Inf marks the output pixel as no-data.
type PixelFunc func(px []float64) (float64, bool)

// Map applies fn to every valid pixel of src.
func Map(name string, src *Band, fn func(v float64) (float64, bool)) *Band {
	out, _ := Combine(name, []*Band{src}, func(px []float64) (float64, bool) {
		return fn(px[0])
	})
	return out
}

// Combine evaluates fn wherever every source band is valid. All sources must
// share one grid shape; the output takes the grid of the first source.
func Combine(name string, srcs []*Band, fn PixelFunc) (*Band, error) {
	if len(srcs) == 0 {
		return nil, fmt.Errorf("raster: combine %s without sources", name)
	}
	if err := checkRegion(nil, srcs...); err != nil {
		return nil, err
	}

	grid := srcs[0].grid
	values := make([]float64, grid.Len())
	valid := make([]bool, grid.Len())

	forEachTile(grid, func(t tile) {
		px := make([]float64, len(srcs))
		for i := t.start; i < t.end; i++ {
			ok := true
			for k, src := range srcs {
				if !src.valid[i] {
					ok = false
					break
				}
				px[k] = src.values[i]
			}
			if !ok {
				continue
			}
			v, ok := fn(px)
			if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			values[i] = v
			valid[i] = true
		}
	})

	return newBandOwned(name, grid, values, valid), nil
}

// Clamp limits every valid pixel to [lo, hi].
func Clamp(src *Band, lo, hi float64) *Band {
	return Map(src.name, src, func(v float64) (float64, bool) {
		return math.Max(lo, math.Min(hi, v)), true
	})
}
