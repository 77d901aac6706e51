package landsat

import (
	"fmt"

	"github.com/forest-guardian/rsei-cli/internal/raster"
)

// QA_PIXEL bit flags.
const (
	CloudShadowBitMask = 1 << 3
	CloudBitMask       = 1 << 5
)

// IsClear reports whether a QA_PIXEL value has neither the cloud shadow nor the cloud bit set.
func IsClear(qa uint16) bool {
	return qa&CloudShadowBitMask == 0 && qa&CloudBitMask == 0
}

// MaskClouds returns a copy of the scene where every pixel flagged as cloud or
// cloud shadow is no-data in all spectral bands. No-data QA pixels mask too.
func MaskClouds(scene *Scene) (*Scene, error) {
	qa, ok := scene.Bands[BandQA]
	if !ok {
		return nil, fmt.Errorf("scene %s: missing band %s", scene.ID, BandQA)
	}

	masked := make(map[string]*raster.Band, len(scene.Bands))
	masked[BandQA] = qa
	for _, name := range SpectralBands {
		band, ok := scene.Bands[name]
		if !ok {
			return nil, fmt.Errorf("scene %s: missing band %s", scene.ID, name)
		}
		out, err := raster.Combine(name, []*raster.Band{band, qa}, func(px []float64) (float64, bool) {
			if px[1] < 0 {
				return 0, false
			}
			return px[0], IsClear(uint16(px[1]))
		})
		if err != nil {
			return nil, fmt.Errorf("scene %s: mask band %s: %w", scene.ID, name, err)
		}
		masked[name] = out
	}
	return &Scene{SceneInfo: scene.SceneInfo, Grid: scene.Grid, Bands: masked}, nil
}

// ClearFraction returns the share of QA-valid pixels that are cloud free.
func ClearFraction(scene *Scene) float64 {
	qa, ok := scene.Bands[BandQA]
	if !ok {
		return 0
	}
	total, clear := 0, 0
	for i := 0; i < qa.Len(); i++ {
		v, ok := qa.Value(i)
		if !ok || v < 0 {
			continue
		}
		total++
		if IsClear(uint16(v)) {
			clear++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(clear) / float64(total)
}
