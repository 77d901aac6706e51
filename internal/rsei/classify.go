package rsei

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/forest-guardian/rsei-cli/internal/raster"
)

var ErrInvalidThresholds = errors.New("invalid classification thresholds")

// Class is an ecological quality level, 1 (Very Low) through 5 (Very High).
type Class uint8

const (
	NoClass Class = iota
	VeryLow
	Low
	Moderate
	High
	VeryHigh
)

// ClassCount is the number of ecological quality levels.
const ClassCount = 5

var classNames = [...]string{"No data", "Very Low", "Low", "Moderate", "High", "Very High"}

func (c Class) String() string {
	if int(c) >= len(classNames) {
		return fmt.Sprintf("Class(%d)", c)
	}
	return classNames[c]
}

// Classes lists the valid classes in ascending order.
func Classes() []Class {
	return []Class{VeryLow, Low, Moderate, High, VeryHigh}
}

// Thresholds are the ascending upper bounds of classes 1 to 4.
type Thresholds [ClassCount - 1]float64

var DefaultThresholds = Thresholds{0.2, 0.4, 0.6, 0.8}

// Validate requires strictly ascending cut points inside [0,1].
func (t Thresholds) Validate() error {
	for i, v := range t {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %g is outside [0,1]", ErrInvalidThresholds, v)
		}
		if i > 0 && v <= t[i-1] {
			return fmt.Errorf("%w: %g does not follow %g", ErrInvalidThresholds, v, t[i-1])
		}
	}
	return nil
}

// Class maps a RSEI value to its class. Values equal to a threshold fall in
// the lower class.
func (t Thresholds) Class(v float64) Class {
	return Class(sort.SearchFloat64s(t[:], v) + 1)
}

func (t Thresholds) String() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// ParseThresholds reads four comma separated cut points, e.g. "0.2,0.4,0.6,0.8".
func ParseThresholds(s string) (Thresholds, error) {
	var t Thresholds
	parts := strings.Split(s, ",")
	if len(parts) != len(t) {
		return t, fmt.Errorf("%w: expected %d values, got %q", ErrInvalidThresholds, len(t), s)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return t, fmt.Errorf("%w: %v", ErrInvalidThresholds, err)
		}
		t[i] = v
	}
	return t, t.Validate()
}

// Classify assigns every valid RSEI pixel to a class. No-data stays no-data.
func Classify(rsei *raster.Band, t Thresholds) (*raster.Band, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return raster.Map("LSES", rsei, func(v float64) (float64, bool) {
		return float64(t.Class(v)), true
	}), nil
}

// ClassHistogram counts the valid class pixels inside region. Index 0 holds class 1.
func ClassHistogram(classes *raster.Band, region *raster.Region) [ClassCount]int {
	var counts [ClassCount]int
	for i := 0; i < classes.Len(); i++ {
		if region != nil && !region.Contains(i) {
			continue
		}
		v, ok := classes.Value(i)
		if !ok {
			continue
		}
		c := int(v)
		if c >= 1 && c <= ClassCount {
			counts[c-1]++
		}
	}
	return counts
}
