package raster

import "fmt"

// EmptyInputError reports that no scene survived the region, date and cloud filters.
type EmptyInputError struct {
	RegionID   string
	Stage      string
	Candidates int
	Reason     string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s: no scenes for region %q (%d candidates): %s", e.Stage, e.RegionID, e.Candidates, e.Reason)
}

// DegenerateStatisticError reports a region statistic without the spread a stage needs,
// such as a zero standard deviation or equal min and max.
type DegenerateStatisticError struct {
	RegionID   string
	Stage      string
	Band       string
	Statistic  string
	Value      float64
	ValidCount int
}

func (e *DegenerateStatisticError) Error() string {
	return fmt.Sprintf("%s: degenerate %s=%g for band %s in region %q (%d valid pixels)", e.Stage, e.Statistic, e.Value, e.Band, e.RegionID, e.ValidCount)
}

// SingularCovarianceError reports a covariance matrix that cannot be decomposed.
type SingularCovarianceError struct {
	RegionID   string
	Stage      string
	Dims       int
	ValidCount int
	Reason     string
}

func (e *SingularCovarianceError) Error() string {
	return fmt.Sprintf("%s: singular %dx%d covariance in region %q (%d joint valid pixels): %s", e.Stage, e.Dims, e.Dims, e.RegionID, e.ValidCount, e.Reason)
}
