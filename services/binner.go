package services

import (
	"fmt"
	"math"
	"sort"

	"games-dashboard/models"
)

// Unlabeled is the code of a value that falls in no bucket.
const Unlabeled = -1

// Binning is a categorical view of a numeric series: Codes[i] indexes Labels,
// or is Unlabeled.
type Binning struct {
	Labels []string
	Codes  []int
}

// Bin assigns each value to the right-closed interval (edges[i], edges[i+1]]
// labelled labels[i]. Values at or below the first edge, above the last edge,
// or NaN are Unlabeled. The last edge may be +Inf.
func Bin(values, edges []float64, labels []string) (*Binning, error) {
	if err := validateEdges(edges, labels); err != nil {
		return nil, err
	}

	codes := make([]int, len(values))
	for i, v := range values {
		codes[i] = bucketOf(v, edges)
	}
	return &Binning{Labels: labels, Codes: codes}, nil
}

func validateEdges(edges []float64, labels []string) error {
	if len(edges) < 2 {
		return fmt.Errorf("%w: need at least 2 bucket edges, got %d", models.ErrConfig, len(edges))
	}
	if len(labels) != len(edges)-1 {
		return fmt.Errorf("%w: %d bucket edges need %d labels, got %d",
			models.ErrConfig, len(edges), len(edges)-1, len(labels))
	}
	for i, e := range edges {
		if math.IsNaN(e) {
			return fmt.Errorf("%w: bucket edge %d is NaN", models.ErrConfig, i)
		}
		if i > 0 && e <= edges[i-1] {
			return fmt.Errorf("%w: bucket edges must increase strictly (%v after %v)",
				models.ErrConfig, e, edges[i-1])
		}
	}
	return nil
}

func bucketOf(v float64, edges []float64) int {
	if math.IsNaN(v) {
		return Unlabeled
	}
	// smallest i with edges[i] >= v; v belongs to (edges[i-1], edges[i]]
	i := sort.SearchFloat64s(edges, v)
	if i == 0 || i == len(edges) {
		return Unlabeled
	}
	return i - 1
}

// Label returns the label of row i, or false if the row is unlabeled.
func (b *Binning) Label(i int) (string, bool) {
	c := b.Codes[i]
	if c == Unlabeled {
		return "", false
	}
	return b.Labels[c], true
}

// Counts tallies rows per label in label order. Labels with no rows are
// included with a zero count; unlabeled rows are not counted.
func (b *Binning) Counts() []models.BucketCount {
	counts := make([]models.BucketCount, len(b.Labels))
	for i, l := range b.Labels {
		counts[i].Label = l
	}
	for _, c := range b.Codes {
		if c != Unlabeled {
			counts[c].Count++
		}
	}
	return counts
}

// BucketSpec names a reusable binning of one numeric catalog column.
type BucketSpec struct {
	Column string    `yaml:"column" json:"column"`
	Edges  []float64 `yaml:"edges" json:"edges"`
	Labels []string  `yaml:"labels" json:"labels"`
}

// Validate checks the edges and labels without binning anything.
func (s BucketSpec) Validate() error {
	if _, ok := (&models.Game{}).Numeric(s.Column); !ok {
		return fmt.Errorf("%w: column %q is not numeric", models.ErrConfig, s.Column)
	}
	return validateEdges(s.Edges, s.Labels)
}

// Fingerprint renders the spec as a string usable in memo keys. Edges may
// be infinite, which JSON cannot carry, so they are formatted directly.
func (s BucketSpec) Fingerprint() string {
	return fmt.Sprintf("%s|%v|%q", s.Column, s.Edges, s.Labels)
}

// Apply bins the spec's column of catalog.
func (s BucketSpec) Apply(catalog *models.Catalog) (*Binning, error) {
	values, err := catalog.Column(s.Column)
	if err != nil {
		return nil, err
	}
	return Bin(values, s.Edges, s.Labels)
}

// RatioBuckets groups positive review ratios into fifths.
func RatioBuckets() BucketSpec {
	return BucketSpec{
		Column: models.ColumnPositiveRatio,
		Edges:  []float64{0, 20, 40, 60, 80, 100},
		Labels: []string{"0-20", "20-40", "40-60", "60-80", "80-100"},
	}
}

// PriceBuckets groups final prices into $15 bands with an open top band.
func PriceBuckets() BucketSpec {
	return BucketSpec{
		Column: models.ColumnPriceFinal,
		Edges:  []float64{0, 15, 30, 45, 60, math.Inf(1)},
		Labels: []string{"Below $15", "$15-30", "$30-45", "$45-60", "Above $60"},
	}
}

// EqualWidthEdges splits [min, max] into n equal-width right-closed bins.
// The first edge is pulled down by 0.1% of the range so min itself is binned;
// a zero range is widened by 0.1% on each side.
func EqualWidthEdges(min, max float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: bin count must be positive, got %d", models.ErrConfig, n)
	}
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) || min > max {
		return nil, fmt.Errorf("%w: invalid range [%v, %v]", models.ErrConfig, min, max)
	}

	if min == max {
		pad := 0.001
		if min != 0 {
			pad = 0.001 * math.Abs(min)
		}
		min, max = min-pad, max+pad
	}

	edges := make([]float64, n+1)
	step := (max - min) / float64(n)
	for i := range edges {
		edges[i] = min + step*float64(i)
	}
	edges[n] = max
	edges[0] = min - 0.001*(max-min)
	return edges, nil
}
