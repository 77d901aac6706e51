package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/forest-guardian/rsei-cli/internal/raster"
	"github.com/forest-guardian/rsei-cli/internal/rsei"
	"github.com/gocarina/gocsv"
	"github.com/schollz/progressbar/v3"
)

type PixelData struct {
	X         int       `csv:"x"`
	Y         int       `csv:"y"`
	Latitude  float64   `csv:"latitude"`
	Longitude float64   `csv:"longitude"`
	NDVI      float64   `csv:"ndvi"`
	Wetness   float64   `csv:"wetness"`
	LST       float64   `csv:"lst"`
	NDBSI     float64   `csv:"ndbsi"`
	PC1       float64   `csv:"pc1"`
	RSEI      float64   `csv:"rsei"`
	Class     int       `csv:"class"`
	ClassName string    `csv:"class_name"`
	CreatedAt time.Time `csv:"created_at"`
}

// CreatePixelDataset lists every classified pixel of a run with its
// indicators. Pixels without a class are skipped.
func CreatePixelDataset(res *rsei.Result, showProgress bool) ([]PixelData, error) {
	ind := res.Indicators
	if ind == nil {
		return nil, fmt.Errorf("result of region %s has no indicators", res.RegionID)
	}
	grid := res.Classes.Grid()
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(grid.Height), "Creating pixel dataset")
	}

	now := time.Now()
	rows := make([]PixelData, 0, res.Classes.ValidCount())
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			class, ok := res.Classes.At(x, y)
			if !ok {
				continue
			}
			lon, lat := grid.PixelCenter(x, y)
			rows = append(rows, PixelData{
				X:         x,
				Y:         y,
				Latitude:  lat,
				Longitude: lon,
				NDVI:      valueAt(ind.NDVI, x, y),
				Wetness:   valueAt(ind.Wetness, x, y),
				LST:       valueAt(ind.LST, x, y),
				NDBSI:     valueAt(ind.NDBSI, x, y),
				PC1:       valueAt(res.PC1, x, y),
				RSEI:      valueAt(res.RSEI, x, y),
				Class:     int(class),
				ClassName: rsei.Class(class).String(),
				CreatedAt: now,
			})
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	return rows, nil
}

func valueAt(b *raster.Band, x, y int) float64 {
	v, _ := b.At(x, y)
	return v
}

// WritePixelDataset stores the rows as CSV, creating the parent directory.
func WritePixelDataset(rows []PixelData, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

// ReadPixelDataset loads a dataset written by WritePixelDataset.
func ReadPixelDataset(path string) ([]PixelData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rows []PixelData
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	return rows, nil
}
