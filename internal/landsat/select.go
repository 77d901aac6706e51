package landsat

import (
	"fmt"
	"time"

	"github.com/forest-guardian/rsei-cli/internal/raster"
	"github.com/paulmach/orb"
)

// DefaultMaxCloudCover is the exclusive scene-level cloud cover ceiling, in percent.
const DefaultMaxCloudCover = 1.0

// Query selects scenes for a region and time window.
type Query struct {
	RegionID string
	Region   orb.Bound
	// Start is inclusive, End is exclusive.
	Start time.Time
	End   time.Time
	// MaxCloudCover is an exclusive upper bound in percent.
	MaxCloudCover float64
}

// Matches reports whether the scene metadata passes every filter of the query.
func (q Query) Matches(info SceneInfo) bool {
	if !info.Footprint.Intersects(q.Region) {
		return false
	}
	if info.Acquired.Before(q.Start) || !info.Acquired.Before(q.End) {
		return false
	}
	return info.CloudCover < q.MaxCloudCover
}

// Validate checks the query window.
func (q Query) Validate() error {
	if !q.Start.Before(q.End) {
		return fmt.Errorf("query: start %s must be before end %s", q.Start.Format(time.DateOnly), q.End.Format(time.DateOnly))
	}
	return nil
}

// Selectable is anything carrying scene metadata.
type Selectable interface {
	Info() SceneInfo
}

// Select keeps the scenes matching q. When nothing matches it returns an
// *raster.EmptyInputError so callers can tell "no scenes" from "all masked".
func Select[S Selectable](scenes []S, q Query) ([]S, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var kept []S
	for _, s := range scenes {
		if q.Matches(s.Info()) {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil, &raster.EmptyInputError{
			RegionID:   q.RegionID,
			Stage:      "select",
			Candidates: len(scenes),
			Reason: fmt.Sprintf("no scene between %s and %s with cloud cover < %g%%",
				q.Start.Format(time.DateOnly), q.End.Format(time.DateOnly), q.MaxCloudCover),
		}
	}
	return kept, nil
}
