package models

// BucketCount is the number of rows that fell into one labelled bucket.
type BucketCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CategoryCount is the number of rows sharing one categorical value.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PlatformCounts splits a catalog by one platform flag.
type PlatformCounts struct {
	Supported   int `json:"supported"`
	Unsupported int `json:"unsupported"`
}

// DescriptiveReport holds the aggregates behind the descriptive statistics tab.
type DescriptiveReport struct {
	Tags         []string        `json:"tags"`
	TotalRows    int             `json:"total_rows"`
	GameCount    int             `json:"game_count"`
	Windows      PlatformCounts  `json:"windows"`
	Mac          PlatformCounts  `json:"mac"`
	Linux        PlatformCounts  `json:"linux"`
	Ratings      []CategoryCount `json:"ratings"`
	RatioBuckets []BucketCount   `json:"ratio_buckets"`
	PriceBuckets []BucketCount   `json:"price_buckets"`
}

// Heatmap is a 2-D density of rows over equal-width x/y bins.
// Counts is indexed [y][x].
type Heatmap struct {
	XColumn string    `json:"x_column"`
	YColumn string    `json:"y_column"`
	XEdges  []float64 `json:"x_edges"`
	YEdges  []float64 `json:"y_edges"`
	Counts  [][]int   `json:"counts"`
}

// ScatterPoint is one game plotted by rating ratio against review count.
type ScatterPoint struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	PositiveRatio float64 `json:"positive_ratio"`
	UserReviews   int64   `json:"user_reviews"`
}

// InferentialReport holds the correlation views behind the inferential tab.
type InferentialReport struct {
	MaxPrice     float64        `json:"max_price"`
	MaxReviews   float64        `json:"max_reviews"`
	PriceLimit   float64        `json:"price_limit"`
	ReviewsLimit float64        `json:"reviews_limit"`
	PriceRows    int            `json:"price_rows"`
	ReviewRows   int            `json:"review_rows"`
	Heatmap      Heatmap        `json:"heatmap"`
	Scatter      []ScatterPoint `json:"scatter"`
}
