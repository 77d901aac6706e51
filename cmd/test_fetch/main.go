package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/forest-guardian/rsei-cli/internal/catalog"
	"github.com/forest-guardian/rsei-cli/internal/imagery"
	"github.com/forest-guardian/rsei-cli/internal/landsat"
	"github.com/forest-guardian/rsei-cli/internal/properties"
	"github.com/forest-guardian/rsei-cli/internal/roi"
	"github.com/joho/godotenv"
)

func main() {
	// Hardcoded test parameters - modify these to test different scenarios
	area := "Atacado-Formiga"
	regionID := "1"
	start := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2022, 9, 1, 0, 0, 0, 0, time.UTC)

	fmt.Println("=== RSEI Test Scene Fetch ===")
	fmt.Printf("Area: %s\n", area)
	fmt.Printf("Region: %s\n", regionID)
	fmt.Printf("Window: %s to %s\n", start.Format(time.DateOnly), end.Format(time.DateOnly))
	fmt.Println()

	if err := godotenv.Load("../../.env"); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
		fmt.Println("Make sure you have set the required environment variables:")
		fmt.Println("- COPERNICUS_CLIENT_ID")
		fmt.Println("- COPERNICUS_CLIENT_SECRET")
		fmt.Println("- COPERNICUS_TOKEN_URL")
		fmt.Println("- ROOT_PATH")
		fmt.Println()
	}
	properties.Load()

	fmt.Printf("Loading geometry for area '%s', region '%s'...\n", area, regionID)
	region, err := roi.Get(area, regionID)
	if err != nil {
		log.Fatalf("Failed to get geometry: %v", err)
	}
	grid, err := roi.GridFor(region.Bound(), properties.Resolution())
	if err != nil {
		log.Fatalf("Failed to build grid: %v", err)
	}
	fmt.Printf("✓ Geometry loaded successfully (%dx%d pixels)\n", grid.Width, grid.Height)

	ctx := context.Background()
	client, err := catalog.NewClient(ctx)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	infos, err := client.Search(ctx, region.Bound(), start, end)
	if err != nil {
		log.Fatalf("Failed to search scenes: %v", err)
	}
	fmt.Printf("Catalog returned %d scenes\n", len(infos))

	selected, err := landsat.Select(infos, landsat.Query{
		RegionID:      regionID,
		Region:        region.Bound(),
		Start:         start,
		End:           end,
		MaxCloudCover: properties.MaxCloudCover(),
	})
	if err != nil {
		log.Fatalf("No scene passed the filters: %v", err)
	}

	paths, err := client.FetchAll(ctx, region.Key(), selected, region.Bound(), grid, properties.Workers())
	if err != nil {
		log.Fatalf("Failed to fetch scenes: %v", err)
	}

	fmt.Printf("\n=== Results ===\n")
	for i, path := range paths {
		scene, err := imagery.ReadScene(path, selected[i])
		if err != nil {
			fmt.Printf("- %s: %v\n", selected[i].ID, err)
			continue
		}
		fmt.Printf("- %s (%s) cloud %.1f%% clear %.1f%%\n", scene.ID, scene.Acquired.Format(time.DateOnly), scene.CloudCover, landsat.ClearFraction(scene)*100)
	}

	imagePath := fmt.Sprintf("%s/data/images/%s", properties.RootPath(), region.Key())
	fmt.Printf("\nImage files saved to: %s\n", imagePath)
	if entries, err := os.ReadDir(imagePath); err == nil {
		fmt.Printf("Files in directory: %d\n", len(entries))
	}

	fmt.Println("\n✓ Test completed successfully!")
}
