package catalog

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/forest-guardian/rsei-cli/internal/landsat"
	"github.com/forest-guardian/rsei-cli/internal/properties"
	"github.com/forest-guardian/rsei-cli/internal/raster"
	"github.com/forest-guardian/rsei-cli/internal/utils"
	"github.com/paulmach/orb"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DataMaskBand marks pixels the process API had data for.
const DataMaskBand = "dataMask"

// ResponseBands is the band order of a downloaded scene GeoTIFF.
var ResponseBands = []string{
	landsat.BandBlue, landsat.BandGreen, landsat.BandRed, landsat.BandNIR,
	landsat.BandSWIR1, landsat.BandSWIR2, landsat.BandThermal, landsat.BandQA,
	DataMaskBand,
}

const evalscript = `
//VERSION=3
function setup() {
  return {
    input: [{
      bands: ["B02", "B03", "B04", "B05", "B06", "B07", "B10", "BQA", "dataMask"],
      units: "DN"
    }],
    output: {
      id: "default",
      bands: 9,
      sampleType: SampleType.FLOAT32,
    },
  }
}

function evaluatePixel(sample) {
  return [sample.B02, sample.B03, sample.B04, sample.B05, sample.B06, sample.B07, sample.B10, sample.BQA, sample.dataMask];
}
`

// sceneWindow is the time range around an acquisition that isolates one scene.
const sceneWindow = 30 * time.Minute

func processRequest(collection string, info landsat.SceneInfo, bound orb.Bound, grid raster.Grid) map[string]interface{} {
	return map[string]interface{}{
		"input": map[string]interface{}{
			"bounds": map[string]interface{}{
				"bbox": []float64{bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y()},
				"properties": map[string]string{
					"crs": "http://www.opengis.net/def/crs/EPSG/0/4326",
				},
			},
			"data": []map[string]interface{}{
				{
					"dataFilter": map[string]interface{}{
						"timeRange": map[string]string{
							"from": info.Acquired.Add(-sceneWindow).UTC().Format(time.RFC3339),
							"to":   info.Acquired.Add(sceneWindow).UTC().Format(time.RFC3339),
						},
						"mosaickingOrder": "mostRecent",
					},
					"type": collection,
				},
			},
		},
		"output": map[string]interface{}{
			"width":  grid.Width,
			"height": grid.Height,
			"responses": []map[string]interface{}{
				{
					"identifier": "default",
					"format": map[string]string{
						"type": "image/tiff",
					},
				},
			},
		},
		"evalscript": evalscript,
	}
}

// ImagePath is where a scene of a region is stored. The name carries the grid
// size and a hash of the bound so a changed resolution or geometry downloads again.
func ImagePath(regionKey, sceneID string, bound orb.Bound, grid raster.Grid) string {
	h := sha1.New()
	fmt.Fprintf(h, "%.9f,%.9f,%.9f,%.9f", bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y())
	name := fmt.Sprintf("%s_%dx%d_%s.tif", sceneID, grid.Width, grid.Height, hex.EncodeToString(h.Sum(nil))[:10])
	return filepath.Join(properties.RootPath(), "data", "images", regionKey, name)
}

// FetchScene downloads one scene clipped to bound on grid and stores it as a
// GeoTIFF. An existing file is reused.
func (c *Client) FetchScene(ctx context.Context, regionKey string, info landsat.SceneInfo, bound orb.Bound, grid raster.Grid) (string, error) {
	path := ImagePath(regionKey, info.ID, bound, grid)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	body, err := json.Marshal(processRequest(c.Collection, info, bound, grid))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}
	image, err := c.post(ctx, c.ProcessURL, body, "image/tiff")
	if err != nil {
		return "", fmt.Errorf("scene %s: %w", info.ID, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, image, 0644); err != nil {
		return "", fmt.Errorf("failed to save image to %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", err
	}
	c.logger().WithFields(logrus.Fields{"scene": info.ID, "bytes": len(image)}).Debug("scene downloaded")
	return path, nil
}

// FetchAll downloads the scenes with at most workers requests in flight. The
// returned paths follow the order of infos.
func (c *Client) FetchAll(ctx context.Context, regionKey string, infos []landsat.SceneInfo, bound orb.Bound, grid raster.Grid, workers int) ([]string, error) {
	if workers < 1 {
		workers = 1
	}
	paths := make([]string, len(infos))
	bar := progressbar.Default(int64(len(infos)), "Downloading scenes")

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, info := range infos {
		i, info := i, info
		eg.Go(func() error {
			path, err := c.FetchScene(ctx, regionKey, info, bound, grid)
			if err != nil {
				return err
			}
			paths[i] = path
			utils.ExecuteWithProgressMutex(func() {
				_ = bar.Add(1)
			})
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
