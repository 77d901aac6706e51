package raster

import "math"

// Moments is a running count, mean and sum of squared deviations (Welford).
type Moments struct {
	Count int
	Mean  float64
	m2    float64
}

// Add folds one observation into the moments.
func (m *Moments) Add(v float64) {
	m.Count++
	delta := v - m.Mean
	m.Mean += delta / float64(m.Count)
	m.m2 += delta * (v - m.Mean)
}

// Merge combines two partial aggregates (Chan et al.).
func (m Moments) Merge(other Moments) Moments {
	if m.Count == 0 {
		return other
	}
	if other.Count == 0 {
		return m
	}
	n := m.Count + other.Count
	delta := other.Mean - m.Mean
	return Moments{
		Count: n,
		Mean:  m.Mean + delta*float64(other.Count)/float64(n),
		m2:    m.m2 + other.m2 + delta*delta*float64(m.Count)*float64(other.Count)/float64(n),
	}
}

// Variance is the population variance.
func (m Moments) Variance() float64 {
	if m.Count == 0 {
		return math.NaN()
	}
	return m.m2 / float64(m.Count)
}

// StdDev is the population standard deviation.
func (m Moments) StdDev() float64 {
	return math.Sqrt(m.Variance())
}

// Extent tracks the minimum and maximum of the observed values.
type Extent struct {
	Count int
	Min   float64
	Max   float64
}

func (e *Extent) Add(v float64) {
	if e.Count == 0 || v < e.Min {
		e.Min = v
	}
	if e.Count == 0 || v > e.Max {
		e.Max = v
	}
	e.Count++
}

func (e Extent) Merge(other Extent) Extent {
	if e.Count == 0 {
		return other
	}
	if other.Count == 0 {
		return e
	}
	return Extent{
		Count: e.Count + other.Count,
		Min:   math.Min(e.Min, other.Min),
		Max:   math.Max(e.Max, other.Max),
	}
}

// Span returns Max - Min.
func (e Extent) Span() float64 {
	return e.Max - e.Min
}

// RegionMoments aggregates the valid pixels of b inside r. A nil region means the whole grid.
func RegionMoments(b *Band, r *Region) (Moments, error) {
	if err := checkRegion(r, b); err != nil {
		return Moments{}, err
	}
	return reduceTiles(b.grid, func(t tile) Moments {
		var m Moments
		for i := t.start; i < t.end; i++ {
			if b.valid[i] && (r == nil || r.Contains(i)) {
				m.Add(b.values[i])
			}
		}
		return m
	}, Moments.Merge), nil
}

// RegionExtent finds the min and max of the valid pixels of b inside r.
func RegionExtent(b *Band, r *Region) (Extent, error) {
	if err := checkRegion(r, b); err != nil {
		return Extent{}, err
	}
	return reduceTiles(b.grid, func(t tile) Extent {
		var e Extent
		for i := t.start; i < t.end; i++ {
			if b.valid[i] && (r == nil || r.Contains(i)) {
				e.Add(b.values[i])
			}
		}
		return e
	}, Extent.Merge), nil
}
