package ui

import (
	"fmt"
)

// ListRegions handles the UI for viewing the regions of an area
func ListRegions(area string) {
	PrintWarning("To add a region to an area add the 'region_id' property at the '.geojson' file of the area of your choice.\nThe 'region_id' property should be located at 'features[N]properties.region_id'.")

	if area == "" {
		area = ReadString("Enter the area name: ")
	}

	ids, err := GetRegionIDs(area)
	if err != nil {
		PrintError(err.Error())
		return
	}

	fmt.Printf("\n%sAvailable regions:%s\n", ColorGreen, ColorReset)
	for _, id := range ids {
		fmt.Printf("%s- %s%s\n", ColorGreen, id, ColorReset)
	}
}
