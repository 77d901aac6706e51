package rsei

import (
	"fmt"
	"math"
	"sort"

	"github.com/forest-guardian/rsei-cli/internal/raster"
	"gonum.org/v1/gonum/mat"
)

// DefaultPC1Clamp bounds the projected component of z-scored indicators.
const DefaultPC1Clamp = 4.0

// EigenPair is one eigenvalue of the covariance matrix with its unit eigenvector.
type EigenPair struct {
	Value  float64
	Vector []float64
}

// PCA is the decomposition of the region covariance of the standardized indicators.
type PCA struct {
	// Covariance is the sample covariance matrix in row-major order.
	Covariance []float64
	Dims       int
	// Pairs are sorted by descending eigenvalue.
	Pairs      []EigenPair
	ValidCount int
}

// Eigenvalues returns the eigenvalues in descending order.
func (p *PCA) Eigenvalues() []float64 {
	out := make([]float64, len(p.Pairs))
	for i, pair := range p.Pairs {
		out[i] = pair.Value
	}
	return out
}

// Leading returns the first principal axis.
func (p *PCA) Leading() EigenPair {
	return p.Pairs[0]
}

// Trace is the sum of the covariance diagonal.
func (p *PCA) Trace() float64 {
	sum := 0.0
	for i := 0; i < p.Dims; i++ {
		sum += p.Covariance[i*p.Dims+i]
	}
	return sum
}

// PrincipalComponents decomposes the joint covariance of bands over region.
// The leading eigenvector is oriented so that its loading on bands[orient]
// is positive, which makes the first component grow with that band.
// When that loading is exactly zero the component is uncorrelated with the
// band and either sign is valid; the sign of the loading sum then decides,
// and a zero sum keeps the decomposition's sign.
func PrincipalComponents(bands []*raster.Band, region *raster.Region, orient int) (*PCA, error) {
	dims := len(bands)
	if orient < 0 || orient >= dims {
		return nil, fmt.Errorf("pca: orientation band %d out of range for %d bands", orient, dims)
	}
	acc, err := raster.RegionCovariance(bands, region)
	if err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}

	singular := func(reason string) error {
		return &raster.SingularCovarianceError{
			RegionID:   regionID(region),
			Stage:      "pca",
			Dims:       dims,
			ValidCount: acc.Count,
			Reason:     reason,
		}
	}
	if acc.Count < dims || acc.Count < 2 {
		return nil, singular(fmt.Sprintf("%d joint valid pixels for %d bands", acc.Count, dims))
	}
	cov, err := acc.Matrix()
	if err != nil {
		return nil, singular(err.Error())
	}
	for _, v := range cov {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, singular("non-finite covariance entry")
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(mat.NewSymDense(dims, cov), true); !ok {
		return nil, singular("eigen decomposition did not converge")
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	pairs := make([]EigenPair, dims)
	for j := range pairs {
		vec := make([]float64, dims)
		for i := range vec {
			vec[i] = vectors.At(i, j)
		}
		pairs[j] = EigenPair{Value: values[j], Vector: vec}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].Value > pairs[b].Value
	})
	if pairs[0].Value <= 0 {
		return nil, singular("no variance along any axis")
	}
	orientVector(pairs[0].Vector, orient)

	return &PCA{Covariance: cov, Dims: dims, Pairs: pairs, ValidCount: acc.Count}, nil
}

// orientVector flips v so that v[k] is positive. A zero loading falls back to
// the sign of the component sum.
func orientVector(v []float64, k int) {
	sign := v[k]
	if sign == 0 {
		for _, x := range v {
			sign += x
		}
	}
	if sign < 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}
}

// Project computes the dot product of every pixel vector with axis and clamps
// the result to [-clamp, clamp]. A non-positive clamp disables clamping.
func Project(name string, bands []*raster.Band, axis []float64, clamp float64) (*raster.Band, error) {
	if len(axis) != len(bands) {
		return nil, fmt.Errorf("pca: axis has %d components for %d bands", len(axis), len(bands))
	}
	pc, err := raster.Combine(name, bands, func(px []float64) (float64, bool) {
		sum := 0.0
		for i, w := range axis {
			sum += w * px[i]
		}
		return sum, true
	})
	if err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}
	if clamp > 0 {
		pc = raster.Clamp(pc, -clamp, clamp)
	}
	return pc, nil
}
