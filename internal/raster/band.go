package raster

import (
	"errors"
	"fmt"
	"math"
)

// ErrGridMismatch is returned when rasters that must share a pixel layout do not.
var ErrGridMismatch = errors.New("raster: grid mismatch")

// Grid describes the pixel layout shared by the bands of one composite.
// GeoTransform follows the GDAL convention.
type Grid struct {
	Width        int
	Height       int
	GeoTransform [6]float64
	Projection   string
}

// Len returns the number of pixels in the grid.
func (g Grid) Len() int {
	return g.Width * g.Height
}

// SameShape reports whether two grids have the same dimensions.
func (g Grid) SameShape(other Grid) bool {
	return g.Width == other.Width && g.Height == other.Height
}

// PixelCenter converts a pixel position into georeferenced coordinates of its center.
func (g Grid) PixelCenter(x, y int) (float64, float64) {
	gt := g.GeoTransform
	xCoord := gt[0] + gt[1]*(float64(x)+0.5) + gt[2]*(float64(y)+0.5)
	yCoord := gt[3] + gt[4]*(float64(x)+0.5) + gt[5]*(float64(y)+0.5)
	return xCoord, yCoord
}

// Band is an immutable single-band raster. Every pixel carries an explicit
// validity bit; values of invalid pixels are meaningless and never read.
type Band struct {
	name   string
	grid   Grid
	values []float64
	valid  []bool
}

// NewBand copies values and validity into a new band. A nil valid slice marks
// every finite value as valid. Non-finite values are always no-data.
func NewBand(name string, grid Grid, values []float64, valid []bool) (*Band, error) {
	if grid.Width <= 0 || grid.Height <= 0 {
		return nil, fmt.Errorf("raster: band %s has invalid size %dx%d", name, grid.Width, grid.Height)
	}
	if len(values) != grid.Len() {
		return nil, fmt.Errorf("raster: band %s has %d values, expected %d", name, len(values), grid.Len())
	}
	if valid != nil && len(valid) != grid.Len() {
		return nil, fmt.Errorf("raster: band %s has %d mask entries, expected %d", name, len(valid), grid.Len())
	}

	b := &Band{
		name:   name,
		grid:   grid,
		values: make([]float64, len(values)),
		valid:  make([]bool, len(values)),
	}
	copy(b.values, values)
	for i, v := range values {
		ok := valid == nil || valid[i]
		b.valid[i] = ok && !math.IsNaN(v) && !math.IsInf(v, 0)
	}
	return b, nil
}

// FromRows builds a band from row-major data; NaN marks no-data.
func FromRows(name string, rows [][]float64) (*Band, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("raster: band %s has no rows", name)
	}
	grid := Grid{Width: len(rows[0]), Height: len(rows), GeoTransform: [6]float64{0, 1, 0, 0, 0, -1}}
	values := make([]float64, 0, grid.Len())
	for y, row := range rows {
		if len(row) != grid.Width {
			return nil, fmt.Errorf("raster: band %s row %d has %d values, expected %d", name, y, len(row), grid.Width)
		}
		values = append(values, row...)
	}
	return NewBand(name, grid, values, nil)
}

// newBandOwned wraps slices produced internally without copying them.
func newBandOwned(name string, grid Grid, values []float64, valid []bool) *Band {
	return &Band{name: name, grid: grid, values: values, valid: valid}
}

func (b *Band) Name() string { return b.name }
func (b *Band) Grid() Grid   { return b.grid }
func (b *Band) Len() int     { return len(b.values) }

// Value returns the value at linear index i and whether the pixel is valid.
func (b *Band) Value(i int) (float64, bool) {
	if !b.valid[i] {
		return 0, false
	}
	return b.values[i], true
}

// At returns the value at pixel (x, y) and whether it is valid.
func (b *Band) At(x, y int) (float64, bool) {
	if x < 0 || y < 0 || x >= b.grid.Width || y >= b.grid.Height {
		return 0, false
	}
	return b.Value(y*b.grid.Width + x)
}

// ValidCount counts the valid pixels of the band.
func (b *Band) ValidCount() int {
	count := 0
	for _, ok := range b.valid {
		if ok {
			count++
		}
	}
	return count
}

// Rename returns a band sharing the same pixels under a new name.
func (b *Band) Rename(name string) *Band {
	return newBandOwned(name, b.grid, b.values, b.valid)
}

// WithGrid returns the band relocated onto a grid of the same shape.
func (b *Band) WithGrid(grid Grid) (*Band, error) {
	if !b.grid.SameShape(grid) {
		return nil, fmt.Errorf("%w: band %s is %dx%d, grid is %dx%d", ErrGridMismatch, b.name, b.grid.Width, b.grid.Height, grid.Width, grid.Height)
	}
	return newBandOwned(b.name, grid, b.values, b.valid), nil
}

// Values returns a copy of the pixel values with nodata written for invalid pixels.
func (b *Band) Values(nodata float64) []float64 {
	out := make([]float64, len(b.values))
	for i, v := range b.values {
		if b.valid[i] {
			out[i] = v
		} else {
			out[i] = nodata
		}
	}
	return out
}

// Clip masks every pixel outside the region.
func (b *Band) Clip(r *Region) (*Band, error) {
	if r == nil {
		return b, nil
	}
	if !r.grid.SameShape(b.grid) {
		return nil, fmt.Errorf("%w: region %s does not match band %s", ErrGridMismatch, r.ID, b.name)
	}
	valid := make([]bool, len(b.valid))
	for i, ok := range b.valid {
		valid[i] = ok && r.Contains(i)
	}
	return newBandOwned(b.name, b.grid, b.values, valid), nil
}
