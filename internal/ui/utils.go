package ui

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/forest-guardian/rsei-cli/internal/roi"
)

// Colors for consistent UI
const (
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorReset  = "\033[0m"
)

var stdin = bufio.NewReader(os.Stdin)

// PrintWarning displays a warning message with consistent formatting
func PrintWarning(message string) {
	fmt.Printf("%s\nWarning:%s\n", ColorYellow, ColorReset)
	fmt.Printf("%s%s%s\n", ColorYellow, message, ColorReset)
}

// PrintError displays an error message with consistent formatting
func PrintError(message string) {
	fmt.Printf("\n%sError: %s%s\n", ColorRed, message, ColorReset)
}

// PrintSuccess displays a success message with consistent formatting
func PrintSuccess(message string) {
	fmt.Printf("\n%s%s%s\n", ColorGreen, message, ColorReset)
}

// PrintInfo displays an info message with consistent formatting
func PrintInfo(message string) {
	fmt.Printf("%s%s%s", ColorBlue, message, ColorReset)
}

// ReadString reads a string from stdin with trimming
func ReadString(prompt string) string {
	PrintInfo(prompt)
	input, _ := stdin.ReadString('\n')
	return strings.TrimSpace(input)
}

// ReadFloat reads a number, returning def on empty input
func ReadFloat(prompt string, def float64) (float64, error) {
	input := ReadString(fmt.Sprintf("%s[%g]: ", prompt, def))
	if input == "" {
		return def, nil
	}
	value, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", input)
	}
	return value, nil
}

// ReadDate reads a date from stdin with validation
func ReadDate(prompt string) (time.Time, error) {
	input := ReadString(prompt)
	if input == "today" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(time.DateOnly, input)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s. Please use YYYY-MM-DD", input)
	}
	return date, nil
}

// ReadDateRange reads the start and the exclusive end of the acquisition window
func ReadDateRange() (time.Time, time.Time, error) {
	start, err := ReadDate("Enter the start date (YYYY-MM-DD): ")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ReadDate("Enter the end date, exclusive (YYYY-MM-DD | today): ")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s must be before end date %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return start, end, nil
}

// ReadAreaAndRegion reads area and region information
func ReadAreaAndRegion() (string, string, error) {
	PrintInfo("Available areas: ")
	ListAreas()
	area := ReadString("Enter the area name: ")
	PrintInfo("Available regions: ")
	ListRegions(area)
	region := ReadString("Enter the region id: ")

	if area == "" || region == "" {
		return "", "", fmt.Errorf("area name and region id cannot be empty")
	}
	return area, region, nil
}

// GetRegionIDs reads the region ids of an area GeoJSON
func GetRegionIDs(area string) ([]string, error) {
	rois, err := roi.LoadArea(area)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rois))
	for _, r := range rois {
		ids = append(ids, r.ID)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no region IDs found in the GEOJSON file")
	}
	return ids, nil
}
