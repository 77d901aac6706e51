package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/forest-guardian/rsei-cli/internal/rsei"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Summary is the per-region record written next to the rasters.
type Summary struct {
	RegionID    string
	Area        string
	Start       string
	End         string
	Scenes      []string
	Eigenvalues []float64
	PC1Axis     []float64
	PC1Min      float64
	PC1Max      float64
	MeanRSEI    float64
	ValidPixels int
	Fractions   [rsei.ClassCount]float64
}

// SummaryFeature attaches the summary to the region geometry.
func SummaryFeature(geometry orb.Geometry, s Summary) *geojson.Feature {
	f := geojson.NewFeature(geometry)
	f.Properties["region_id"] = s.RegionID
	f.Properties["area"] = s.Area
	f.Properties["start"] = s.Start
	f.Properties["end"] = s.End
	f.Properties["scenes"] = s.Scenes
	f.Properties["eigenvalues"] = s.Eigenvalues
	f.Properties["pc1_axis"] = s.PC1Axis
	f.Properties["pc1_min"] = s.PC1Min
	f.Properties["pc1_max"] = s.PC1Max
	f.Properties["mean_rsei"] = s.MeanRSEI
	f.Properties["valid_pixels"] = s.ValidPixels

	classes := map[string]float64{}
	for _, c := range rsei.Classes() {
		classes[c.String()] = s.Fractions[c-1]
	}
	f.Properties["class_fractions"] = classes
	return f
}

// CreateSummaryGeoJson writes a feature collection with the region summary.
func CreateSummaryGeoJson(geometry orb.Geometry, s Summary, outputPath string) error {
	fc := geojson.NewFeatureCollection()
	fc.Append(SummaryFeature(geometry, s))

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding GeoJSON: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("error creating GeoJSON file: %w", err)
	}
	return nil
}
