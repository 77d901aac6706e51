package properties

import "github.com/forest-guardian/rsei-cli/internal/rsei"

type Color struct {
	R, G, B uint8
}

// Hex formats the color as #RRGGBB.
func (c Color) Hex() string {
	const digits = "0123456789ABCDEF"
	return string([]byte{'#',
		digits[c.R>>4], digits[c.R&0xF],
		digits[c.G>>4], digits[c.G&0xF],
		digits[c.B>>4], digits[c.B&0xF],
	})
}

// ClassColors is the categorical ramp of the ecological quality classes.
var ClassColors = map[rsei.Class]Color{
	rsei.VeryLow:  {0xB2, 0x18, 0x2B},
	rsei.Low:      {0xEF, 0x65, 0x48},
	rsei.Moderate: {0xFE, 0xE0, 0x8B},
	rsei.High:     {0x66, 0xBD, 0x63},
	rsei.VeryHigh: {0x00, 0x68, 0x37},
}

// RSEIRamp runs from poor (red) through yellow to good (green).
var RSEIRamp = []Color{
	{255, 0, 0},
	{255, 255, 0},
	{0, 128, 0},
}
