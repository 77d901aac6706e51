package landsat

import (
	"fmt"

	"github.com/forest-guardian/rsei-cli/internal/raster"
)

// Collection 2 Level 2 scale factors.
const (
	ReflectanceScale  = 2.75e-5
	ReflectanceOffset = -0.2
	ThermalScale      = 0.00341802
	ThermalOffset     = 149.0
)

// ScaleReflectance converts a surface reflectance digital number into reflectance.
func ScaleReflectance(dn float64) float64 {
	return dn*ReflectanceScale + ReflectanceOffset
}

// ScaleThermal converts a surface temperature digital number into Kelvin.
func ScaleThermal(dn float64) float64 {
	return dn*ThermalScale + ThermalOffset
}

// Scale applies the per-band affine transforms to a composite. Bands other
// than the spectral ones are dropped.
func Scale(stack *Stack) (*Stack, error) {
	out := &Stack{Grid: stack.Grid, Bands: make(map[string]*raster.Band, len(SpectralBands)), Scenes: stack.Scenes}
	for _, name := range ReflectiveBands {
		band, err := stack.Band(name)
		if err != nil {
			return nil, fmt.Errorf("scale: %w", err)
		}
		out.Bands[name] = raster.Map(name, band, func(v float64) (float64, bool) {
			return ScaleReflectance(v), true
		})
	}
	thermal, err := stack.Band(BandThermal)
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	out.Bands[BandThermal] = raster.Map(BandThermal, thermal, func(v float64) (float64, bool) {
		return ScaleThermal(v), true
	})
	return out, nil
}
