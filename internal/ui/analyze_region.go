package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forest-guardian/rsei-cli/internal/delivery"
	"github.com/forest-guardian/rsei-cli/internal/notification"
	"github.com/forest-guardian/rsei-cli/internal/properties"
	"github.com/forest-guardian/rsei-cli/internal/raster"
	"github.com/forest-guardian/rsei-cli/internal/rsei"
	"github.com/forest-guardian/rsei-cli/internal/utils"
)

// AnalyzeRegion handles the UI for computing the RSEI of a region
func AnalyzeRegion() {
	PrintWarning("- A '.geojson' file with the area name should be present in data/geojsons folder.\n- The '.geojson' file should contain the desired region in its features identified by region_id.")

	area, regionID, err := ReadAreaAndRegion()
	if err != nil {
		PrintError(err.Error())
		return
	}
	start, end, err := ReadDateRange()
	if err != nil {
		PrintError(err.Error())
		return
	}

	req, err := delivery.NewRequest(area, regionID, start, end)
	if err != nil {
		PrintError(err.Error())
		return
	}
	if req.MaxCloudCover, err = ReadFloat("Enter the maximum scene cloud cover in percent ", properties.MaxCloudCover()); err != nil {
		PrintError(err.Error())
		return
	}
	req.PixelDataset = strings.EqualFold(ReadString("Export the pixel dataset? (y/N): "), "y")

	Evaluate(context.Background(), req)
}

// Evaluate runs one region and reports the outcome on the terminal and Discord.
func Evaluate(ctx context.Context, req delivery.Request) bool {
	report, err := delivery.EvaluateRegion(ctx, req)
	if err != nil {
		PrintError(fmt.Sprintf("Error evaluating region: %s", describe(err)))
		var empty *raster.EmptyInputError
		if !errors.As(err, &empty) {
			notification.SendDiscordErrorNotification(fmt.Sprintf("Error evaluating region %s/%s: %s", req.Area, req.RegionID, err.Error()))
		}
		return false
	}

	PrintReport(report)
	notification.SendDiscordSuccessNotification(fmt.Sprintf("Successful analysis of %s/%s (%s to %s)\nMean RSEI: %.3f\nResults located at: %s",
		req.Area, req.RegionID, req.Start.Format(time.DateOnly), req.End.Format(time.DateOnly), report.Result.MeanRSEI(), report.Outputs.Dir))
	return true
}

// describe adds the stage context of the pipeline errors.
func describe(err error) string {
	var empty *raster.EmptyInputError
	var degenerate *raster.DegenerateStatisticError
	var singular *raster.SingularCovarianceError
	switch {
	case errors.As(err, &empty):
		return fmt.Sprintf("%s\nTry a wider date window or a higher cloud cover ceiling.", err)
	case errors.As(err, &degenerate):
		return fmt.Sprintf("%s\nThe region has no spread in %s; check that it is not fully masked.", err, degenerate.Band)
	case errors.As(err, &singular):
		return fmt.Sprintf("%s\nToo few clear pixels for the principal components.", err)
	}
	return err.Error()
}

// PrintReport prints the diagnostics and output paths of a run.
func PrintReport(report *delivery.Report) {
	res := report.Result
	fmt.Printf("\n%sRegion %s: %d scenes, %d valid pixels%s\n", ColorGreen, res.RegionID, len(res.Scenes), res.RSEI.ValidCount(), ColorReset)
	dates := make([]time.Time, len(report.Acquired))
	for i, scene := range report.Acquired {
		dates[i] = scene.Acquired
	}
	fmt.Printf("%sAcquisitions: %s%s\n", ColorGreen, strings.Join(utils.FormatDays(dates), ", "), ColorReset)
	fmt.Printf("%sEigenvalues: %s%s\n", ColorGreen, formatFloats(res.PCA.Eigenvalues()), ColorReset)
	fmt.Printf("%sPC1 axis (NDVI, Wetness, LST, NDBSI): %s%s\n", ColorGreen, formatFloats(res.PCA.Leading().Vector), ColorReset)
	fmt.Printf("%sPC1 range: [%.4f, %.4f]%s\n", ColorGreen, res.PC1Extent.Min, res.PC1Extent.Max, ColorReset)
	fmt.Printf("%sMean RSEI: %.4f%s\n", ColorGreen, res.MeanRSEI(), ColorReset)

	fractions := res.ClassFractions()
	for _, c := range rsei.Classes() {
		fmt.Printf("%s  %-10s %6d px  %5.1f%%%s\n", ColorGreen, c, res.ClassCounts[c-1], fractions[c-1]*100, ColorReset)
	}

	PrintSuccess(fmt.Sprintf("Successful analysis!\nResultant images located at: %s\nResultant geojson located at: %s", report.Outputs.Dir, report.Outputs.Summary))
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
