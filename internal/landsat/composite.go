package landsat

import (
	"fmt"

	"github.com/forest-guardian/rsei-cli/internal/raster"
)

// Composite masks clouds in every scene and reduces each spectral band to the
// per-pixel median of the clear observations.
func Composite(regionID string, scenes []*Scene) (*Stack, error) {
	if len(scenes) == 0 {
		return nil, &raster.EmptyInputError{RegionID: regionID, Stage: "composite", Reason: "no scenes to composite"}
	}

	grid := scenes[0].Grid
	ids := make([]string, 0, len(scenes))
	masked := make([]*Scene, 0, len(scenes))
	for _, scene := range scenes {
		if !scene.Grid.SameShape(grid) {
			return nil, fmt.Errorf("composite: %w: scene %s is %dx%d, expected %dx%d",
				raster.ErrGridMismatch, scene.ID, scene.Grid.Width, scene.Grid.Height, grid.Width, grid.Height)
		}
		m, err := MaskClouds(scene)
		if err != nil {
			return nil, err
		}
		masked = append(masked, m)
		ids = append(ids, scene.ID)
	}

	bands := make(map[string]*raster.Band, len(SpectralBands))
	for _, name := range SpectralBands {
		obs := make([]*raster.Band, 0, len(masked))
		for _, scene := range masked {
			obs = append(obs, scene.Bands[name])
		}
		median, err := raster.Median(name, obs)
		if err != nil {
			return nil, fmt.Errorf("composite band %s: %w", name, err)
		}
		bands[name], err = median.WithGrid(grid)
		if err != nil {
			return nil, err
		}
	}
	return &Stack{Grid: grid, Bands: bands, Scenes: ids}, nil
}
