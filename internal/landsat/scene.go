// Package landsat models Landsat 8/9 Collection 2 Level 2 scenes and the
// pre-index stages: scene selection, QA cloud masking, median compositing and
// radiometric scaling.
package landsat

import (
	"fmt"
	"sort"
	"time"

	"github.com/forest-guardian/rsei-cli/internal/raster"
	"github.com/paulmach/orb"
)

// Collection 2 Level 2 band names.
const (
	BandBlue    = "SR_B2"
	BandGreen   = "SR_B3"
	BandRed     = "SR_B4"
	BandNIR     = "SR_B5"
	BandSWIR1   = "SR_B6"
	BandSWIR2   = "SR_B7"
	BandThermal = "ST_B10"
	BandQA      = "QA_PIXEL"
)

// ReflectiveBands are the surface reflectance bands in wavelength order.
var ReflectiveBands = []string{BandBlue, BandGreen, BandRed, BandNIR, BandSWIR1, BandSWIR2}

// SpectralBands are the bands carried into the composite.
var SpectralBands = append(append([]string{}, ReflectiveBands...), BandThermal)

// SceneInfo is the catalog metadata of one acquisition.
type SceneInfo struct {
	ID         string    `json:"id"`
	Acquired   time.Time `json:"acquired"`
	CloudCover float64   `json:"cloud_cover"`
	Footprint  orb.Bound `json:"footprint"`
}

// Info returns the metadata itself so SceneInfo and Scene share one selector.
func (s SceneInfo) Info() SceneInfo { return s }

// Scene is one acquisition with its raw digital-number bands.
type Scene struct {
	SceneInfo
	Grid  raster.Grid
	Bands map[string]*raster.Band
}

// NewScene checks that every spectral band and the QA band are present on one grid.
func NewScene(info SceneInfo, bands map[string]*raster.Band) (*Scene, error) {
	required := append(append([]string{}, SpectralBands...), BandQA)
	var grid raster.Grid
	for i, name := range required {
		band, ok := bands[name]
		if !ok || band == nil {
			return nil, fmt.Errorf("scene %s: missing band %s", info.ID, name)
		}
		if i == 0 {
			grid = band.Grid()
			continue
		}
		if !band.Grid().SameShape(grid) {
			return nil, fmt.Errorf("scene %s: %w: band %s", info.ID, raster.ErrGridMismatch, name)
		}
	}
	own := make(map[string]*raster.Band, len(bands))
	for k, v := range bands {
		own[k] = v
	}
	return &Scene{SceneInfo: info, Grid: grid, Bands: own}, nil
}

// Stack is a set of named bands on one grid, such as a composite.
type Stack struct {
	Grid  raster.Grid
	Bands map[string]*raster.Band
	// Scenes lists the ids of the scenes the stack was built from.
	Scenes []string
}

// Band returns a named band of the stack.
func (s *Stack) Band(name string) (*raster.Band, error) {
	band, ok := s.Bands[name]
	if !ok {
		return nil, fmt.Errorf("stack: missing band %s", name)
	}
	return band, nil
}

// Names returns the band names in sorted order.
func (s *Stack) Names() []string {
	names := make([]string, 0, len(s.Bands))
	for name := range s.Bands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
