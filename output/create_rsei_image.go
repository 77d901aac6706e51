package output

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/forest-guardian/rsei-cli/internal/properties"
	"github.com/forest-guardian/rsei-cli/internal/raster"
	"github.com/forest-guardian/rsei-cli/internal/rsei"
	"github.com/lucasb-eyer/go-colorful"
)

func toColorful(c properties.Color) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// RampColor places v in [0,1] on the RSEI ramp, blending neighbouring stops in Lab space.
func RampColor(v float64) color.NRGBA {
	stops := properties.RSEIRamp
	if v <= 0 {
		return opaque(toColorful(stops[0]))
	}
	if v >= 1 {
		return opaque(toColorful(stops[len(stops)-1]))
	}
	pos := v * float64(len(stops)-1)
	i := int(pos)
	c := toColorful(stops[i]).BlendLab(toColorful(stops[i+1]), pos-float64(i)).Clamped()
	return opaque(c)
}

// ClassColor is the categorical colour of a class; NoClass is transparent.
func ClassColor(c rsei.Class) color.NRGBA {
	pc, ok := properties.ClassColors[c]
	if !ok {
		return color.NRGBA{}
	}
	return color.NRGBA{R: pc.R, G: pc.G, B: pc.B, A: 255}
}

func opaque(c colorful.Color) color.NRGBA {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// RenderRSEI paints the index with the continuous ramp. No-data is transparent.
func RenderRSEI(band *raster.Band) *image.NRGBA {
	return render(band, func(v float64) color.NRGBA { return RampColor(v) })
}

// RenderClasses paints the class raster with the categorical ramp.
func RenderClasses(band *raster.Band) *image.NRGBA {
	return render(band, func(v float64) color.NRGBA { return ClassColor(rsei.Class(v)) })
}

func render(band *raster.Band, colorOf func(v float64) color.NRGBA) *image.NRGBA {
	grid := band.Grid()
	img := image.NewNRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			if v, ok := band.At(x, y); ok {
				img.SetNRGBA(x, y, colorOf(v))
			}
		}
	}
	return img
}

// CreateRSEIImage writes the RSEI PNG.
func CreateRSEIImage(band *raster.Band, outputImagePath string) error {
	return savePNG(RenderRSEI(band), outputImagePath)
}

// CreateClassImage writes the class PNG.
func CreateClassImage(band *raster.Band, outputImagePath string) error {
	return savePNG(RenderClasses(band), outputImagePath)
}

func savePNG(img image.Image, outputImagePath string) error {
	outputFile, err := os.Create(outputImagePath)
	if err != nil {
		return fmt.Errorf("error creating PNG file: %w", err)
	}
	defer outputFile.Close()

	if err := png.Encode(outputFile, img); err != nil {
		return fmt.Errorf("error encoding PNG file: %w", err)
	}
	return nil
}
