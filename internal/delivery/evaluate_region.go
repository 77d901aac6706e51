package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/forest-guardian/rsei-cli/internal/cache"
	"github.com/forest-guardian/rsei-cli/internal/catalog"
	"github.com/forest-guardian/rsei-cli/internal/dataset"
	"github.com/forest-guardian/rsei-cli/internal/imagery"
	"github.com/forest-guardian/rsei-cli/internal/landsat"
	"github.com/forest-guardian/rsei-cli/internal/properties"
	"github.com/forest-guardian/rsei-cli/internal/raster"
	"github.com/forest-guardian/rsei-cli/internal/roi"
	"github.com/forest-guardian/rsei-cli/internal/rsei"
	"github.com/sirupsen/logrus"
)

// Request describes one region evaluation.
type Request struct {
	Area          string
	RegionID      string
	Start         time.Time
	End           time.Time
	MaxCloudCover float64
	Resolution    float64
	Options       rsei.Options
	Workers       int
	PixelDataset  bool
}

// NewRequest fills the tunables from the configuration.
func NewRequest(area, regionID string, start, end time.Time) (Request, error) {
	opts, err := properties.Options()
	if err != nil {
		return Request{}, err
	}
	return Request{
		Area:          area,
		RegionID:      regionID,
		Start:         start,
		End:           end,
		MaxCloudCover: properties.MaxCloudCover(),
		Resolution:    properties.Resolution(),
		Options:       opts,
		Workers:       properties.Workers(),
	}, nil
}

// Report is the outcome of EvaluateRegion.
type Report struct {
	ROI      *roi.ROI
	Result   *rsei.Result
	Acquired []landsat.SceneInfo
	Outputs  Outputs
	Timings  []StepTiming
}

type StepTiming struct {
	Step     string
	Duration time.Duration
}

func (r *Report) step(name string, start time.Time) {
	d := time.Since(start)
	r.Timings = append(r.Timings, StepTiming{Step: name, Duration: d})
	fmt.Printf("%s took %v\n", name, d)
}

// EvaluateRegion computes the RSEI of one region: it loads the ROI, searches
// and downloads the clear scenes of the window, runs the index pipeline and
// writes every output artifact.
func EvaluateRegion(ctx context.Context, req Request) (*Report, error) {
	log := logrus.WithFields(logrus.Fields{"area": req.Area, "region": req.RegionID})
	raster.SetConcurrency(req.Workers)
	report := &Report{}

	stepStart := time.Now()
	region, err := roi.Get(req.Area, req.RegionID)
	if err != nil {
		return nil, err
	}
	report.ROI = region
	bound := region.Bound()
	grid, err := roi.GridFor(bound, req.Resolution)
	if err != nil {
		return nil, err
	}
	mask, err := roi.Rasterize(region, grid)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"width": grid.Width, "height": grid.Height, "pixels": mask.PixelCount()}).Info("region loaded")
	report.step("LoadRegion", stepStart)

	query := landsat.Query{
		RegionID:      req.RegionID,
		Region:        bound,
		Start:         req.Start,
		End:           req.End,
		MaxCloudCover: req.MaxCloudCover,
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	stepStart = time.Now()
	client, err := catalog.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	searchCache := cache.NewFileCache[[]landsat.SceneInfo]("catalog")
	if maxAge, err := time.ParseDuration(properties.CacheMaxAge()); err == nil {
		searchCache.WithMaxAge(maxAge)
	}
	candidates, err := client.CachedSearch(ctx, searchCache, bound, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	selected, err := landsat.Select(candidates, query)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"candidates": len(candidates), "selected": len(selected)}).Info("scenes selected")
	report.Acquired = selected
	report.step("SearchScenes", stepStart)

	stepStart = time.Now()
	paths, err := client.FetchAll(ctx, region.Key(), selected, bound, grid, req.Workers)
	if err != nil {
		return nil, err
	}
	scenes := make([]*landsat.Scene, 0, len(paths))
	for i, path := range paths {
		scene, err := imagery.ReadScene(path, selected[i])
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{"scene": scene.ID, "clear": landsat.ClearFraction(scene)}).Debug("scene read")
		scenes = append(scenes, scene)
	}
	report.step("FetchScenes", stepStart)

	stepStart = time.Now()
	result, err := rsei.FromScenes(scenes, query, mask, req.Options)
	if err != nil {
		return nil, err
	}
	report.Result = result
	report.step("ComputeRSEI", stepStart)

	stepStart = time.Now()
	dir := OutputDir(region, req.Start, req.End)
	outputs, err := WriteOutputs(dir, region, req, result)
	if err != nil {
		return nil, err
	}
	if req.PixelDataset {
		rows, err := dataset.CreatePixelDataset(result, true)
		if err != nil {
			return nil, err
		}
		outputs.PixelDataset = filepath.Join(dir, "pixels.csv")
		if err := dataset.WritePixelDataset(rows, outputs.PixelDataset); err != nil {
			return nil, err
		}
	}
	report.Outputs = outputs
	report.step("WriteOutputs", stepStart)
	return report, nil
}

// OutputDir is $ROOT_PATH/data/result/<area>_<region>_<start>_<end>.
func OutputDir(r *roi.ROI, start, end time.Time) string {
	name := fmt.Sprintf("%s_%s_%s", r.Key(), start.Format(time.DateOnly), end.Format(time.DateOnly))
	return filepath.Join(properties.RootPath(), "data", "result", name)
}

// Outputs are the paths of the written artifacts.
type Outputs struct {
	Dir            string
	RSEIImage      string
	ClassImage     string
	Legend         string
	HistogramCSV   string
	HistogramChart string
	RSEITiff       string
	ClassTiff      string
	Summary        string
	PixelDataset   string
}

// RSEINoData and ClassNoData are the GeoTIFF nodata values.
const (
	RSEINoData  = -9999
	ClassNoData = 0
)

// WriteOutputs writes the images, histogram, GeoTIFFs and summary of a run.
func WriteOutputs(dir string, region *roi.ROI, req Request, result *rsei.Result) (Outputs, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return Outputs{}, fmt.Errorf("failed to create result directory: %w", err)
	}
	out := Outputs{
		Dir:            dir,
		RSEIImage:      filepath.Join(dir, "rsei.png"),
		ClassImage:     filepath.Join(dir, "classes.png"),
		Legend:         filepath.Join(dir, "legend.png"),
		HistogramCSV:   filepath.Join(dir, "histogram.csv"),
		HistogramChart: filepath.Join(dir, "histogram.png"),
		RSEITiff:       filepath.Join(dir, "rsei.tif"),
		ClassTiff:      filepath.Join(dir, "classes.tif"),
		Summary:        filepath.Join(dir, "summary.geojson"),
	}
	if err := writeImages(out, region, req, result); err != nil {
		return out, err
	}
	if err := imagery.WriteFloat32(out.RSEITiff, result.RSEI, RSEINoData); err != nil {
		return out, err
	}
	if err := imagery.WriteByte(out.ClassTiff, result.Classes, ClassNoData); err != nil {
		return out, err
	}
	return out, nil
}
