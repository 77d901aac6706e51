// Package rsei turns the four ecological indicators into the Remote Sensing
// Ecological Index and its five quality classes.
package rsei

import (
	"fmt"

	"github.com/forest-guardian/rsei-cli/internal/indices"
	"github.com/forest-guardian/rsei-cli/internal/landsat"
	"github.com/forest-guardian/rsei-cli/internal/raster"
	"github.com/sirupsen/logrus"
)

const (
	NamePC1  = "PC1"
	NameRSEI = "RSEI"
)

// Options tune the index stages.
type Options struct {
	Thresholds Thresholds
	// PC1Clamp bounds the first component to [-PC1Clamp, PC1Clamp]; 0 disables it.
	PC1Clamp float64
}

// DefaultOptions returns the thresholds 0.2/0.4/0.6/0.8 and a PC1 clamp of 4.
func DefaultOptions() Options {
	return Options{Thresholds: DefaultThresholds, PC1Clamp: DefaultPC1Clamp}
}

// Result keeps every intermediate raster of a run alongside the diagnostics.
type Result struct {
	RegionID     string
	Indicators   *indices.Indicators
	Moments      []raster.Moments
	Standardized []*raster.Band
	PCA          *PCA
	PC1          *raster.Band
	PC1Extent    raster.Extent
	RSEI         *raster.Band
	Classes      *raster.Band
	ClassCounts  [ClassCount]int
	Scenes       []string
}

// MeanRSEI is the region mean of the index.
func (r *Result) MeanRSEI() float64 {
	m, err := raster.RegionMoments(r.RSEI, nil)
	if err != nil || m.Count == 0 {
		return 0
	}
	return m.Mean
}

// ClassFractions returns the share of classified pixels per class.
func (r *Result) ClassFractions() [ClassCount]float64 {
	var out [ClassCount]float64
	total := 0
	for _, c := range r.ClassCounts {
		total += c
	}
	if total == 0 {
		return out
	}
	for i, c := range r.ClassCounts {
		out[i] = float64(c) / float64(total)
	}
	return out
}

// Run standardizes the indicators over region, extracts the first principal
// component, normalizes it into RSEI and classifies the result. RSEI and the
// classes are clipped to the region.
func Run(ind *indices.Indicators, region *raster.Region, opts Options) (*Result, error) {
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if opts.PC1Clamp < 0 {
		return nil, fmt.Errorf("rsei: negative PC1 clamp %g", opts.PC1Clamp)
	}
	log := logrus.WithField("region", regionID(region))

	res := &Result{RegionID: regionID(region), Indicators: ind}
	for _, band := range ind.Bands() {
		z, m, err := Standardize(band, region)
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{"band": band.Name(), "mean": m.Mean, "stddev": m.StdDev(), "valid": m.Count}).Debug("standardized")
		res.Standardized = append(res.Standardized, z)
		res.Moments = append(res.Moments, m)
	}

	// NDVI is the first indicator; a higher PC1 follows greener land.
	pca, err := PrincipalComponents(res.Standardized, region, 0)
	if err != nil {
		return nil, err
	}
	res.PCA = pca
	log.WithFields(logrus.Fields{"eigenvalues": pca.Eigenvalues(), "axis": pca.Leading().Vector, "valid": pca.ValidCount}).Debug("principal components")

	res.PC1, err = Project(NamePC1, res.Standardized, pca.Leading().Vector, opts.PC1Clamp)
	if err != nil {
		return nil, err
	}

	rsei, extent, err := Normalize(NameRSEI, res.PC1, region)
	if err != nil {
		return nil, err
	}
	res.PC1Extent = extent
	log.WithFields(logrus.Fields{"min": extent.Min, "max": extent.Max}).Debug("pc1 extent")

	if res.RSEI, err = rsei.Clip(region); err != nil {
		return nil, err
	}
	if res.Classes, err = Classify(res.RSEI, opts.Thresholds); err != nil {
		return nil, err
	}
	res.ClassCounts = ClassHistogram(res.Classes, region)
	log.WithField("classes", res.ClassCounts).Debug("classified")
	return res, nil
}

// FromScenes runs the full chain from raw scenes: selection, cloud masking,
// median composite, scaling, indicators and the index itself.
func FromScenes(scenes []*landsat.Scene, q landsat.Query, region *raster.Region, opts Options) (*Result, error) {
	selected, err := landsat.Select(scenes, q)
	if err != nil {
		return nil, err
	}
	composite, err := landsat.Composite(q.RegionID, selected)
	if err != nil {
		return nil, err
	}
	scaled, err := landsat.Scale(composite)
	if err != nil {
		return nil, err
	}
	ind, err := indices.Calculate(scaled, region)
	if err != nil {
		return nil, err
	}
	res, err := Run(ind, region, opts)
	if err != nil {
		return nil, err
	}
	res.Scenes = composite.Scenes
	return res, nil
}
