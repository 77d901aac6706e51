package delivery

import (
	"fmt"
	"time"

	"github.com/forest-guardian/rsei-cli/internal/roi"
	"github.com/forest-guardian/rsei-cli/internal/rsei"
	"github.com/forest-guardian/rsei-cli/output"
)

// writeImages writes every artifact that does not need GDAL.
func writeImages(out Outputs, region *roi.ROI, req Request, result *rsei.Result) error {
	if err := output.CreateRSEIImage(result.RSEI, out.RSEIImage); err != nil {
		return err
	}
	if err := output.CreateClassImage(result.Classes, out.ClassImage); err != nil {
		return err
	}
	fractions := result.ClassFractions()
	title := fmt.Sprintf("RSEI %s (%s)", region.ID, req.Start.Format(time.DateOnly))
	if err := output.CreateLegendImage(title, &fractions, out.Legend); err != nil {
		return err
	}

	buckets, err := output.Histogram(result.RSEI, nil, 0, 1, output.HistogramBuckets)
	if err != nil {
		return err
	}
	if err := output.WriteHistogramCSV(buckets, out.HistogramCSV); err != nil {
		return err
	}
	if err := output.CreateHistogramChart(title, buckets, out.HistogramChart); err != nil {
		return err
	}

	return output.CreateSummaryGeoJson(region.Geometry, summaryOf(region, req, result), out.Summary)
}

func summaryOf(region *roi.ROI, req Request, result *rsei.Result) output.Summary {
	return output.Summary{
		RegionID:    region.ID,
		Area:        region.Area,
		Start:       req.Start.Format(time.DateOnly),
		End:         req.End.Format(time.DateOnly),
		Scenes:      result.Scenes,
		Eigenvalues: result.PCA.Eigenvalues(),
		PC1Axis:     result.PCA.Leading().Vector,
		PC1Min:      result.PC1Extent.Min,
		PC1Max:      result.PC1Extent.Max,
		MeanRSEI:    result.MeanRSEI(),
		ValidPixels: result.RSEI.ValidCount(),
		Fractions:   result.ClassFractions(),
	}
}
