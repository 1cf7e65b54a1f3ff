package services

import (
	"errors"
	"math"
	"testing"

	"games-dashboard/models"
)

func TestBinRatioBuckets(t *testing.T) {
	spec := RatioBuckets()

	tests := []struct {
		value float64
		want  string
		ok    bool
	}{
		{45, "40-60", true},
		{20, "0-20", true},
		{20.0001, "20-40", true},
		{100, "80-100", true},
		{0.5, "0-20", true},
		{0, "", false},
		{101, "", false},
		{-3, "", false},
		{math.NaN(), "", false},
	}

	values := make([]float64, len(tests))
	for i, tt := range tests {
		values[i] = tt.value
	}
	b, err := Bin(values, spec.Edges, spec.Labels)
	if err != nil {
		t.Fatalf("Bin: %v", err)
	}

	for i, tt := range tests {
		got, ok := b.Label(i)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Label(%v) = %q, %v; want %q, %v", tt.value, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBinPriceBucketsOpenTop(t *testing.T) {
	spec := PriceBuckets()
	b, err := Bin([]float64{9.99, 15, 59.99, 60, 199.99}, spec.Edges, spec.Labels)
	if err != nil {
		t.Fatalf("Bin: %v", err)
	}

	want := []string{"Below $15", "Below $15", "$45-60", "$45-60", "Above $60"}
	for i, w := range want {
		if got, _ := b.Label(i); got != w {
			t.Errorf("row %d: got %q; want %q", i, got, w)
		}
	}
}

func TestBinRejectsBadEdges(t *testing.T) {
	tests := []struct {
		name   string
		edges  []float64
		labels []string
	}{
		{"label count mismatch", []float64{0, 1, 2, 3, 4}, []string{"a", "b", "c"}},
		{"too few edges", []float64{1}, nil},
		{"not increasing", []float64{0, 5, 5}, []string{"a", "b"}},
		{"decreasing", []float64{10, 5}, []string{"a"}},
		{"nan edge", []float64{0, math.NaN()}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bin([]float64{1}, tt.edges, tt.labels)
			if !errors.Is(err, models.ErrConfig) {
				t.Errorf("got %v; want ErrConfig", err)
			}
		})
	}
}

func TestBinningCounts(t *testing.T) {
	b, err := Bin([]float64{1, 2, 2.5, 9, 50}, []float64{0, 2, 4, 10}, []string{"low", "mid", "high"})
	if err != nil {
		t.Fatalf("Bin: %v", err)
	}

	counts := b.Counts()
	want := []models.BucketCount{{Label: "low", Count: 2}, {Label: "mid", Count: 1}, {Label: "high", Count: 1}}
	if len(counts) != len(want) {
		t.Fatalf("counts: got %v; want %v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %+v; want %+v", i, counts[i], want[i])
		}
	}
}

func TestBinEmptyInput(t *testing.T) {
	b, err := Bin(nil, []float64{0, 1}, []string{"only"})
	if err != nil {
		t.Fatalf("Bin: %v", err)
	}
	if len(b.Codes) != 0 {
		t.Errorf("codes: got %v", b.Codes)
	}
	if c := b.Counts(); len(c) != 1 || c[0].Count != 0 {
		t.Errorf("counts: got %v", c)
	}
}

func TestBucketSpecValidate(t *testing.T) {
	if err := RatioBuckets().Validate(); err != nil {
		t.Errorf("ratio buckets: %v", err)
	}
	if err := PriceBuckets().Validate(); err != nil {
		t.Errorf("price buckets: %v", err)
	}

	bad := BucketSpec{Column: models.ColumnRating, Edges: []float64{0, 1}, Labels: []string{"a"}}
	if err := bad.Validate(); !errors.Is(err, models.ErrConfig) {
		t.Errorf("categorical column: got %v; want ErrConfig", err)
	}
}

func TestEqualWidthEdges(t *testing.T) {
	edges, err := EqualWidthEdges(0, 100, 4)
	if err != nil {
		t.Fatalf("EqualWidthEdges: %v", err)
	}
	if len(edges) != 5 {
		t.Fatalf("edges: got %v", edges)
	}
	if edges[0] >= 0 || edges[0] < -0.2 {
		t.Errorf("first edge should sit just below min: %v", edges[0])
	}
	if edges[2] != 50 || edges[4] != 100 {
		t.Errorf("edges: got %v", edges)
	}
	if bucketOf(0, edges) != 0 || bucketOf(100, edges) != 3 {
		t.Errorf("min and max must both be binned: %v", edges)
	}

	flat, err := EqualWidthEdges(5, 5, 3)
	if err != nil {
		t.Fatalf("zero range: %v", err)
	}
	if bucketOf(5, flat) == Unlabeled {
		t.Errorf("zero range edges %v do not cover 5", flat)
	}

	if _, err := EqualWidthEdges(0, 1, 0); !errors.Is(err, models.ErrConfig) {
		t.Errorf("n=0: got %v; want ErrConfig", err)
	}
	if _, err := EqualWidthEdges(2, 1, 3); !errors.Is(err, models.ErrConfig) {
		t.Errorf("min > max: got %v; want ErrConfig", err)
	}
}
