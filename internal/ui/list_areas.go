package ui

import (
	"fmt"

	"github.com/forest-guardian/rsei-cli/internal/roi"
)

// ListAreas handles the UI for viewing the list of available areas
func ListAreas() {
	areas, err := roi.ListAreas()
	if err != nil {
		PrintError(err.Error())
		return
	}

	PrintWarning("To add a new area, add its '.geojson' file at 'data/geojsons' folder.")

	fmt.Printf("\n%sAvailable areas:%s\n", ColorGreen, ColorReset)
	for _, area := range areas {
		fmt.Printf("%s- %s%s\n", ColorGreen, area, ColorReset)
	}
}
