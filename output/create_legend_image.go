package output

import (
	"fmt"

	"github.com/fogleman/gg"
	"github.com/forest-guardian/rsei-cli/internal/rsei"
)

const (
	legendWidth   = 240
	legendRow     = 24
	legendPadding = 12
)

// CreateLegendImage draws the class legend, one swatch per class from
// Very High down to Very Low, with an optional share of the region.
func CreateLegendImage(title string, fractions *[rsei.ClassCount]float64, outputImagePath string) error {
	classes := rsei.Classes()
	height := legendPadding*3 + legendRow*(len(classes)+1)
	dc := gg.NewContext(legendWidth, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(title, legendWidth/2, legendPadding+legendRow/2, 0.5, 0.5)

	for i := range classes {
		class := classes[len(classes)-1-i]
		y := float64(legendPadding*2 + legendRow*(i+1))
		c := ClassColor(class)
		dc.SetRGBA255(int(c.R), int(c.G), int(c.B), int(c.A))
		dc.DrawRectangle(legendPadding, y, legendRow-4, legendRow-4)
		dc.Fill()

		label := class.String()
		if fractions != nil {
			label = fmt.Sprintf("%s (%.1f%%)", label, fractions[class-1]*100)
		}
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(label, legendPadding+legendRow+4, y+(legendRow-4)/2, 0, 0.5)
	}

	if err := dc.SavePNG(outputImagePath); err != nil {
		return fmt.Errorf("failed to save legend: %w", err)
	}
	return nil
}
