package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/forest-guardian/rsei-cli/internal/delivery"
	"github.com/forest-guardian/rsei-cli/internal/notification"
	"github.com/forest-guardian/rsei-cli/internal/properties"
	"github.com/forest-guardian/rsei-cli/internal/ui"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func printBanner() {
	figure1 := figure.NewFigure("RSEI", "isometric1", true)
	figure2 := figure.NewFigure("CLI", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

func setLogLevels() {
	if viper.GetBool("debug") {
		logrus.SetLevel(logrus.DebugLevel)
	} else if viper.GetBool("verbose") {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
}

func recoverPanic() {
	r := recover()
	if r == nil {
		return
	}
	pc, file, line, ok := runtime.Caller(3)
	var location string
	if ok {
		fn := runtime.FuncForPC(pc)
		location = fmt.Sprintf("%s:%d in %s", file, line, fn.Name())
	} else {
		location = "Unknown location"
	}

	fmt.Printf("\n\033[31mPANIC: %v\033[0m\n", r)
	fmt.Printf("\033[31mLocation: %s\033[0m\n", location)
	fmt.Printf("\033[31mPlease check the input and try again.\033[0m\n")
	fmt.Printf("\033[31mExiting...\033[0m\n")

	stack := debug.Stack()
	errMessage := fmt.Sprintf("RSEI CLI panic:\n\n%v\n\nLocation: %s\n\nStack trace:\n%s", r, location, stack)
	if err := notification.SendDiscordErrorNotification(errMessage); err != nil {
		fmt.Printf("\033[31mFailed to send notification: %s\033[0m\n", err.Error())
	}
	os.Exit(2)
}

var rootCmd = &cobra.Command{
	Use:   "rsei",
	Short: "Remote Sensing Ecological Index of Landsat regions",
	Long: `Compute the Remote Sensing Ecological Index (RSEI) of a region of interest
from Landsat Collection 2 Level-2 scenes.

Without a subcommand the interactive menu is shown.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setLogLevels()
	},
	Run: func(cmd *cobra.Command, args []string) {
		defer recoverPanic()
		printBanner()
		ui.ShowMenu()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute the RSEI of one region",
	Long: `Select the clear scenes of the window [start, end), composite them, derive
the four indicators and write the RSEI rasters, class map, legend, histogram
and summary GeoJSON under data/result.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer recoverPanic()

		start, err := time.Parse(time.DateOnly, viper.GetString("start"))
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
		end, err := time.Parse(time.DateOnly, viper.GetString("end"))
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}

		req, err := delivery.NewRequest(viper.GetString("area"), viper.GetString("region"), start, end)
		if err != nil {
			return err
		}
		req.PixelDataset = viper.GetBool("pixels")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if !ui.Evaluate(ctx, req) {
			return fmt.Errorf("evaluation of %s/%s failed", req.Area, req.RegionID)
		}
		return nil
	},
}

var regionsCmd = &cobra.Command{
	Use:   "regions [area]",
	Short: "List the areas, or the regions of one area",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			ui.ListAreas()
			return
		}
		ui.ListRegions(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log progress at info level")
	rootCmd.PersistentFlags().Bool("debug", false, "Log pipeline diagnostics at debug level")
	for _, name := range []string{"verbose", "debug"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			logrus.WithError(err).Fatalf("binding flag %s", name)
		}
	}

	flags := runCmd.Flags()
	flags.StringP("area", "a", "", "Area name, the GeoJSON file under data/geojsons")
	flags.StringP("region", "r", "", "Region id inside the area")
	flags.StringP("start", "s", "", "First acquisition day (YYYY-MM-DD)")
	flags.StringP("end", "e", "", "Day after the last acquisition (YYYY-MM-DD)")
	flags.Float64("cloud", properties.MaxCloudCover(), "Scenes need a cloud cover strictly below this percentage")
	flags.Float64("resolution", properties.Resolution(), "Pixel size in metres")
	flags.String("thresholds", viper.GetString(properties.KeyThresholds), "Four ascending class breakpoints in [0,1]")
	flags.Float64("clamp", properties.PC1Clamp(), "Clamp PC1 to [-clamp, clamp] before normalizing, 0 disables")
	flags.IntP("workers", "n", properties.Workers(), "Number of workers for parallel processing")
	flags.Bool("pixels", false, "Also export the per-pixel CSV dataset")
	for _, required := range []string{"area", "region", "start", "end"} {
		_ = runCmd.MarkFlagRequired(required)
	}

	bindings := map[string]string{
		"area":                      "area",
		"region":                    "region",
		"start":                     "start",
		"end":                       "end",
		"pixels":                    "pixels",
		properties.KeyMaxCloudCover: "cloud",
		properties.KeyResolution:    "resolution",
		properties.KeyThresholds:    "thresholds",
		properties.KeyPC1Clamp:      "clamp",
		properties.KeyWorkers:       "workers",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			logrus.WithError(err).Fatalf("binding flag %s", name)
		}
	}

	rootCmd.AddCommand(runCmd, regionsCmd)
}

func main() {
	if err := godotenv.Load("../../.env"); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			if err := godotenv.Load(); err != nil {
				logrus.Debug("no .env file found, using the environment")
			}
		}
	}
	properties.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
