package ui

import (
	"fmt"

	"github.com/forest-guardian/rsei-cli/internal/properties"
)

// ShowSettings prints the effective configuration
func ShowSettings() {
	thresholds := "invalid"
	if t, err := properties.Thresholds(); err == nil {
		thresholds = t.String()
	}
	rows := [][2]string{
		{"Root path", properties.RootPath()},
		{"Collection", properties.Collection()},
		{"Max cloud cover (%)", fmt.Sprintf("< %g", properties.MaxCloudCover())},
		{"Resolution (m)", fmt.Sprintf("%g", properties.Resolution())},
		{"Class thresholds", thresholds},
		{"PC1 clamp", fmt.Sprintf("%g", properties.PC1Clamp())},
		{"Workers", fmt.Sprintf("%d", properties.Workers())},
	}
	fmt.Printf("\n%sCurrent settings:%s\n", ColorGreen, ColorReset)
	for _, row := range rows {
		fmt.Printf("%s- %-20s %s%s\n", ColorGreen, row[0], row[1], ColorReset)
	}
}
