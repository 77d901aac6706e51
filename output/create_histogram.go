package output

import (
	"fmt"
	"math"
	"os"

	"github.com/fogleman/gg"
	"github.com/forest-guardian/rsei-cli/internal/raster"
	"github.com/gocarina/gocsv"
)

// HistogramBuckets is the bucket count of the RSEI histogram.
const HistogramBuckets = 255

type HistogramBucket struct {
	Lower float64 `csv:"lower"`
	Upper float64 `csv:"upper"`
	Count int     `csv:"count"`
}

// Histogram splits [lo, hi] into n equal buckets and counts the valid pixels
// of band inside region. Values equal to hi land in the last bucket.
func Histogram(band *raster.Band, region *raster.Region, lo, hi float64, n int) ([]HistogramBucket, error) {
	if n < 1 || !(hi > lo) {
		return nil, fmt.Errorf("invalid histogram range [%g, %g] with %d buckets", lo, hi, n)
	}
	width := (hi - lo) / float64(n)
	buckets := make([]HistogramBucket, n)
	for i := range buckets {
		buckets[i].Lower = lo + float64(i)*width
		buckets[i].Upper = lo + float64(i+1)*width
	}
	buckets[n-1].Upper = hi

	for i := 0; i < band.Len(); i++ {
		if region != nil && !region.Contains(i) {
			continue
		}
		v, ok := band.Value(i)
		if !ok || v < lo || v > hi {
			continue
		}
		k := int(math.Floor((v - lo) / width))
		if k >= n {
			k = n - 1
		}
		buckets[k].Count++
	}
	return buckets, nil
}

// WriteHistogramCSV stores the buckets with a header row.
func WriteHistogramCSV(buckets []HistogramBucket, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&buckets, file); err != nil {
		return fmt.Errorf("error writing histogram: %w", err)
	}
	return nil
}

const (
	chartWidth  = 640
	chartHeight = 320
	chartMargin = 32
)

// CreateHistogramChart draws the buckets as bars coloured with the RSEI ramp.
func CreateHistogramChart(title string, buckets []HistogramBucket, outputImagePath string) error {
	if len(buckets) == 0 {
		return fmt.Errorf("empty histogram")
	}
	maxCount := 0
	for _, b := range buckets {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(title, chartWidth/2, chartMargin/2, 0.5, 0.5)

	plotW := float64(chartWidth - 2*chartMargin)
	plotH := float64(chartHeight - 2*chartMargin)
	barW := plotW / float64(len(buckets))
	lo, hi := buckets[0].Lower, buckets[len(buckets)-1].Upper
	for i, b := range buckets {
		if b.Count == 0 {
			continue
		}
		h := plotH * float64(b.Count) / float64(maxCount)
		c := RampColor(((b.Lower+b.Upper)/2 - lo) / (hi - lo))
		dc.SetRGB255(int(c.R), int(c.G), int(c.B))
		dc.DrawRectangle(chartMargin+float64(i)*barW, chartMargin+plotH-h, math.Max(barW, 1), h)
		dc.Fill()
	}

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(chartMargin, chartMargin+plotH, chartMargin+plotW, chartMargin+plotH)
	dc.Stroke()
	dc.DrawStringAnchored(fmt.Sprintf("%g", lo), chartMargin, chartHeight-chartMargin/2, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%g", hi), chartMargin+plotW, chartHeight-chartMargin/2, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("max %d", maxCount), chartMargin, chartMargin, 0, 1)

	if err := dc.SavePNG(outputImagePath); err != nil {
		return fmt.Errorf("failed to save histogram chart: %w", err)
	}
	return nil
}
