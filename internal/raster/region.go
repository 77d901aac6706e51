package raster

import "fmt"

// Region is the pixel population of a region of interest on a grid.
// A nil mask covers the whole grid.
type Region struct {
	ID    string
	grid  Grid
	mask  []bool
	count int
}

// NewRegion builds a region from a per-pixel membership mask.
func NewRegion(id string, grid Grid, mask []bool) (*Region, error) {
	if len(mask) != grid.Len() {
		return nil, fmt.Errorf("raster: region %s mask has %d entries, expected %d", id, len(mask), grid.Len())
	}
	r := &Region{ID: id, grid: grid, mask: make([]bool, len(mask))}
	copy(r.mask, mask)
	for _, in := range mask {
		if in {
			r.count++
		}
	}
	return r, nil
}

// WholeGrid returns a region covering every pixel of the grid.
func WholeGrid(id string, grid Grid) *Region {
	return &Region{ID: id, grid: grid, count: grid.Len()}
}

func (r *Region) Grid() Grid { return r.grid }

// PixelCount returns the number of grid pixels inside the region.
func (r *Region) PixelCount() int { return r.count }

// Contains reports whether linear pixel index i lies inside the region.
func (r *Region) Contains(i int) bool {
	if r.mask == nil {
		return i >= 0 && i < r.grid.Len()
	}
	return r.mask[i]
}

func checkRegion(r *Region, bands ...*Band) error {
	for _, b := range bands {
		if r != nil && !r.grid.SameShape(b.grid) {
			return fmt.Errorf("%w: region %s is %dx%d, band %s is %dx%d", ErrGridMismatch, r.ID, r.grid.Width, r.grid.Height, b.name, b.grid.Width, b.grid.Height)
		}
		if !bands[0].grid.SameShape(b.grid) {
			return fmt.Errorf("%w: band %s does not match band %s", ErrGridMismatch, b.name, bands[0].name)
		}
	}
	return nil
}
