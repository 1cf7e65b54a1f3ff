package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"games-dashboard/models"
	"games-dashboard/utils"
)

// InsightService computes the chart-ready aggregates shown on the dashboard.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Descriptive aggregates platform support, ratings and the two bucketed
// distributions over catalog.
func (s *InsightService) Descriptive(catalog *models.Catalog, ratio, price BucketSpec) (*models.DescriptiveReport, error) {
	report := &models.DescriptiveReport{
		TotalRows: catalog.Len(),
		Ratings:   []models.CategoryCount{},
	}

	titles := make(map[string]struct{}, catalog.Len())
	ratings := make(map[string]int)
	for _, g := range catalog.Games {
		titles[g.Title] = struct{}{}
		ratings[g.Rating]++
		tallyPlatform(&report.Windows, g.Win)
		tallyPlatform(&report.Mac, g.Mac)
		tallyPlatform(&report.Linux, g.Linux)
	}
	report.GameCount = len(titles)

	for r, n := range ratings {
		report.Ratings = append(report.Ratings, models.CategoryCount{Value: r, Count: n})
	}
	sort.Slice(report.Ratings, func(i, j int) bool {
		if report.Ratings[i].Count != report.Ratings[j].Count {
			return report.Ratings[i].Count > report.Ratings[j].Count
		}
		return report.Ratings[i].Value < report.Ratings[j].Value
	})

	ratioBins, err := ratio.Apply(catalog)
	if err != nil {
		return nil, err
	}
	report.RatioBuckets = ratioBins.Counts()

	priceBins, err := price.Apply(catalog)
	if err != nil {
		return nil, err
	}
	report.PriceBuckets = priceBins.Counts()

	return report, nil
}

func tallyPlatform(pc *models.PlatformCounts, supported bool) {
	if supported {
		pc.Supported++
	} else {
		pc.Unsupported++
	}
}

// Inferential builds the correlation views. The heatmap covers rows with
// price_final <= priceLimit; the scatter covers rows with user_reviews <= reviewsLimit.
// Both limits must be at least 1.
func (s *InsightService) Inferential(catalog *models.Catalog, priceLimit, reviewsLimit float64, heatmapBins int) (*models.InferentialReport, error) {
	if err := checkLimit("price limit", priceLimit); err != nil {
		return nil, err
	}
	if err := checkLimit("reviews limit", reviewsLimit); err != nil {
		return nil, err
	}

	maxPrice, err := catalog.MaxOf(models.ColumnPriceFinal)
	if err != nil {
		return nil, err
	}
	maxReviews, err := catalog.MaxOf(models.ColumnUserReviews)
	if err != nil {
		return nil, err
	}

	report := &models.InferentialReport{
		MaxPrice:     maxPrice,
		MaxReviews:   maxReviews,
		PriceLimit:   priceLimit,
		ReviewsLimit: reviewsLimit,
		Scatter:      []models.ScatterPoint{},
	}

	byPrice, err := FilterAtMost(catalog, models.ColumnPriceFinal, priceLimit)
	if err != nil {
		return nil, err
	}
	report.PriceRows = byPrice.Len()
	report.Heatmap, err = DensityHeatmap(byPrice, models.ColumnPositiveRatio, models.ColumnPriceFinal, heatmapBins)
	if err != nil {
		return nil, err
	}

	byReviews, err := FilterAtMost(catalog, models.ColumnUserReviews, reviewsLimit)
	if err != nil {
		return nil, err
	}
	report.ReviewRows = byReviews.Len()
	for _, g := range byReviews.Games {
		report.Scatter = append(report.Scatter, models.ScatterPoint{
			ID:            g.ID,
			Title:         g.Title,
			PositiveRatio: g.PositiveRatio,
			UserReviews:   g.UserReviews,
		})
	}

	s.logger.Debug("[insights] Inferential view: %d rows <= $%.2f, %d rows <= %.0f reviews",
		report.PriceRows, priceLimit, report.ReviewRows, reviewsLimit)
	return report, nil
}

func checkLimit(name string, v float64) error {
	if math.IsNaN(v) || v < 1 {
		return fmt.Errorf("%w: %s must be at least 1, got %v", models.ErrConfig, name, v)
	}
	return nil
}

// DensityHeatmap counts rows on an n×n equal-width grid of two numeric columns.
// An empty catalog yields a heatmap with no edges.
func DensityHeatmap(catalog *models.Catalog, xCol, yCol string, n int) (models.Heatmap, error) {
	h := models.Heatmap{XColumn: xCol, YColumn: yCol, Counts: [][]int{}}

	xs, err := catalog.Column(xCol)
	if err != nil {
		return h, err
	}
	ys, err := catalog.Column(yCol)
	if err != nil {
		return h, err
	}
	if len(xs) == 0 {
		if n < 1 {
			return h, fmt.Errorf("%w: bin count must be positive, got %d", models.ErrConfig, n)
		}
		return h, nil
	}

	xMin, xMax := bounds(xs)
	yMin, yMax := bounds(ys)
	if h.XEdges, err = EqualWidthEdges(xMin, xMax, n); err != nil {
		return h, err
	}
	if h.YEdges, err = EqualWidthEdges(yMin, yMax, n); err != nil {
		return h, err
	}

	h.Counts = make([][]int, n)
	for i := range h.Counts {
		h.Counts[i] = make([]int, n)
	}
	for i := range xs {
		x, y := bucketOf(xs[i], h.XEdges), bucketOf(ys[i], h.YEdges)
		if x == Unlabeled || y == Unlabeled {
			continue
		}
		h.Counts[y][x]++
	}
	return h, nil
}

func bounds(values []float64) (float64, float64) {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Print renders a descriptive report for the terminal.
func (s *InsightService) Print(w io.Writer, r *models.DescriptiveReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🎮 GAME CATALOG STATISTICS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Tags) > 0 {
		fmt.Fprintf(w, "  Tags           : %s\n", strings.Join(r.Tags, ", "))
	}
	fmt.Fprintf(w, "  Number of games: \033[1m%s\033[0m\n", humanize.Comma(int64(r.GameCount)))
	fmt.Fprintf(w, "  Catalog rows   : \033[1m%s\033[0m\n", humanize.Comma(int64(r.TotalRows)))
	fmt.Fprintln(w)

	// System compatibility
	fmt.Fprintf(w, "\033[1;33m  System Compatibility\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, p := range []struct {
		name string
		pc   models.PlatformCounts
	}{{"Windows", r.Windows}, {"Mac", r.Mac}, {"Linux", r.Linux}} {
		fmt.Fprintf(w, "  %-8s supported %s | unsupported %s\n", p.name,
			humanize.Comma(int64(p.pc.Supported)), humanize.Comma(int64(p.pc.Unsupported)))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Overall Ratings\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Ratings) == 0 {
		fmt.Fprintf(w, "  No rated games\n")
	}
	for _, rc := range r.Ratings {
		fmt.Fprintf(w, "  %-28s %s\n", truncate(rc.Value, 28), humanize.Comma(int64(rc.Count)))
	}
	fmt.Fprintln(w)

	printBuckets(w, "Positive Rating Ratios", r.RatioBuckets, thin)
	printBuckets(w, "Game Prices", r.PriceBuckets, thin)

	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)
}

func printBuckets(w io.Writer, title string, buckets []models.BucketCount, thin string) {
	fmt.Fprintf(w, "\033[1;33m  %s\033[0m\n", title)
	fmt.Fprintf(w, "  %s\n", thin)

	max := 0
	for _, b := range buckets {
		if b.Count > max {
			max = b.Count
		}
	}
	for _, b := range buckets {
		width := 0
		if max > 0 {
			width = b.Count * 30 / max
		}
		fmt.Fprintf(w, "  %-10s %s (%s)\n", b.Label, strings.Repeat("█", width), humanize.Comma(int64(b.Count)))
	}
	fmt.Fprintln(w)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
