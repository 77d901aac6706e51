package raster

import "fmt"

// Covariance accumulates the centered co-moments of k-dimensional observations.
type Covariance struct {
	Dims     int
	Count    int
	mean     []float64
	comoment []float64
	delta    []float64
}

// NewCovariance returns an empty accumulator for dims-dimensional vectors.
func NewCovariance(dims int) *Covariance {
	return &Covariance{
		Dims:     dims,
		mean:     make([]float64, dims),
		comoment: make([]float64, dims*dims),
		delta:    make([]float64, dims),
	}
}

// Add folds one observation vector into the accumulator.
func (c *Covariance) Add(x []float64) {
	c.Count++
	n := float64(c.Count)
	delta := c.delta
	for i := range x {
		delta[i] = x[i] - c.mean[i]
		c.mean[i] += delta[i] / n
	}
	for i := 0; i < c.Dims; i++ {
		for j := 0; j < c.Dims; j++ {
			c.comoment[i*c.Dims+j] += delta[i] * (x[j] - c.mean[j])
		}
	}
}

// Merge combines two accumulators into a new one.
func (c *Covariance) Merge(other *Covariance) *Covariance {
	if c.Count == 0 {
		return other.clone()
	}
	if other.Count == 0 {
		return c.clone()
	}
	out := NewCovariance(c.Dims)
	out.Count = c.Count + other.Count
	na, nb, n := float64(c.Count), float64(other.Count), float64(out.Count)
	delta := make([]float64, c.Dims)
	for i := range delta {
		delta[i] = other.mean[i] - c.mean[i]
		out.mean[i] = c.mean[i] + delta[i]*nb/n
	}
	for i := 0; i < c.Dims; i++ {
		for j := 0; j < c.Dims; j++ {
			k := i*c.Dims + j
			out.comoment[k] = c.comoment[k] + other.comoment[k] + delta[i]*delta[j]*na*nb/n
		}
	}
	return out
}

func (c *Covariance) clone() *Covariance {
	out := NewCovariance(c.Dims)
	out.Count = c.Count
	copy(out.mean, c.mean)
	copy(out.comoment, c.comoment)
	return out
}

// Mean returns the per-dimension mean.
func (c *Covariance) Mean() []float64 {
	out := make([]float64, c.Dims)
	copy(out, c.mean)
	return out
}

// Matrix returns the sample (n-1) covariance matrix in row-major order.
func (c *Covariance) Matrix() ([]float64, error) {
	if c.Count < 2 {
		return nil, fmt.Errorf("raster: covariance needs at least 2 observations, got %d", c.Count)
	}
	out := make([]float64, len(c.comoment))
	for i, v := range c.comoment {
		out[i] = v / float64(c.Count-1)
	}
	return out, nil
}

// RegionCovariance aggregates the pixel vectors of bands inside r. A pixel
// contributes only when every band is valid there.
func RegionCovariance(bands []*Band, r *Region) (*Covariance, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("raster: covariance without bands")
	}
	if err := checkRegion(r, bands...); err != nil {
		return nil, err
	}
	dims := len(bands)
	return reduceTiles(bands[0].grid, func(t tile) *Covariance {
		acc := NewCovariance(dims)
		px := make([]float64, dims)
		for i := t.start; i < t.end; i++ {
			if r != nil && !r.Contains(i) {
				continue
			}
			ok := true
			for k, b := range bands {
				if !b.valid[i] {
					ok = false
					break
				}
				px[k] = b.values[i]
			}
			if ok {
				acc.Add(px)
			}
		}
		return acc
	}, (*Covariance).Merge), nil
}
