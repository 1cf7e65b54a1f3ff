package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"games-dashboard/cache"
	"games-dashboard/models"
	"games-dashboard/observability"
	"games-dashboard/utils"
)

// DashboardOptions configures the bucketed charts and the heatmap grid.
type DashboardOptions struct {
	RatioBuckets BucketSpec
	PriceBuckets BucketSpec
	HeatmapBins  int
}

// DefaultDashboardOptions returns the stock buckets and a 10×10 heatmap.
func DefaultDashboardOptions() DashboardOptions {
	return DashboardOptions{
		RatioBuckets: RatioBuckets(),
		PriceBuckets: PriceBuckets(),
		HeatmapBins:  10,
	}
}

// Dashboard serves every derived view of one cleaned catalog. Results are
// memoized under the catalog version; the memo never changes what is returned.
type Dashboard struct {
	catalog  *models.Catalog
	memo     cache.Memo
	insights *InsightService
	opts     DashboardOptions
	logger   *utils.Logger
}

// NewDashboard validates opts and wraps catalog. A nil memo disables memoization.
func NewDashboard(catalog *models.Catalog, memo cache.Memo, opts DashboardOptions, logger *utils.Logger) (*Dashboard, error) {
	if err := opts.RatioBuckets.Validate(); err != nil {
		return nil, fmt.Errorf("ratio buckets: %w", err)
	}
	if err := opts.PriceBuckets.Validate(); err != nil {
		return nil, fmt.Errorf("price buckets: %w", err)
	}
	if opts.HeatmapBins < 1 {
		return nil, fmt.Errorf("%w: heatmap bins must be positive, got %d", models.ErrConfig, opts.HeatmapBins)
	}
	if memo == nil {
		memo = cache.Noop{}
	}
	return &Dashboard{
		catalog:  catalog,
		memo:     memo,
		insights: NewInsightService(logger),
		opts:     opts,
		logger:   logger,
	}, nil
}

// Catalog returns the full cleaned catalog.
func (d *Dashboard) Catalog() *models.Catalog {
	return d.catalog
}

// Tags returns the tag universe of the full catalog.
func (d *Dashboard) Tags(ctx context.Context) ([]string, error) {
	return memoize(ctx, d, "tags", nil, func() ([]string, error) {
		return Tags(d.catalog), nil
	})
}

// FilterByTags narrows the full catalog to rows carrying every tag.
func (d *Dashboard) FilterByTags(ctx context.Context, tags []string) (*models.Catalog, error) {
	tags = normalizeTags(tags)
	if len(tags) == 0 {
		return d.catalog, nil
	}
	idx, err := memoize(ctx, d, "filter", []any{tags}, func() ([]int, error) {
		return matchingRows(d.catalog, tags), nil
	})
	if err != nil {
		return nil, err
	}
	return d.catalog.Subset(idx), nil
}

// Bins tallies the configured buckets of column over the rows carrying tags.
func (d *Dashboard) Bins(ctx context.Context, column string, tags []string) ([]models.BucketCount, error) {
	var spec BucketSpec
	switch column {
	case d.opts.RatioBuckets.Column:
		spec = d.opts.RatioBuckets
	case d.opts.PriceBuckets.Column:
		spec = d.opts.PriceBuckets
	default:
		return nil, fmt.Errorf("%w: no buckets configured for column %q", models.ErrConfig, column)
	}

	tags = normalizeTags(tags)
	return memoize(ctx, d, "bins", []any{column, spec.Fingerprint(), tags}, func() ([]models.BucketCount, error) {
		subset, err := d.FilterByTags(ctx, tags)
		if err != nil {
			return nil, err
		}
		b, err := spec.Apply(subset)
		if err != nil {
			return nil, err
		}
		return b.Counts(), nil
	})
}

// Descriptive returns the descriptive statistics for the rows carrying tags.
func (d *Dashboard) Descriptive(ctx context.Context, tags []string) (*models.DescriptiveReport, error) {
	tags = normalizeTags(tags)
	args := []any{d.opts.RatioBuckets.Fingerprint(), d.opts.PriceBuckets.Fingerprint(), tags}
	return memoize(ctx, d, "descriptive", args, func() (*models.DescriptiveReport, error) {
		subset, err := d.FilterByTags(ctx, tags)
		if err != nil {
			return nil, err
		}
		report, err := d.insights.Descriptive(subset, d.opts.RatioBuckets, d.opts.PriceBuckets)
		if err != nil {
			return nil, err
		}
		report.Tags = tags
		return report, nil
	})
}

// Inferential returns the correlation views over the full catalog.
func (d *Dashboard) Inferential(ctx context.Context, priceLimit, reviewsLimit float64) (*models.InferentialReport, error) {
	return memoize(ctx, d, "inferential", []any{priceLimit, reviewsLimit, d.opts.HeatmapBins},
		func() (*models.InferentialReport, error) {
			return d.insights.Inferential(d.catalog, priceLimit, reviewsLimit, d.opts.HeatmapBins)
		})
}

// DefaultLimits clamps the preferred thresholds to [1, column maximum].
func (d *Dashboard) DefaultLimits(price, reviews float64) (float64, float64) {
	maxPrice, _ := d.catalog.MaxOf(models.ColumnPriceFinal)
	maxReviews, _ := d.catalog.MaxOf(models.ColumnUserReviews)
	return clampLimit(price, maxPrice), clampLimit(reviews, maxReviews)
}

func clampLimit(v, max float64) float64 {
	max = math.Floor(max)
	if v > max {
		v = max
	}
	if v < 1 {
		v = 1
	}
	return v
}

// Insights exposes the underlying aggregation service.
func (d *Dashboard) Insights() *InsightService {
	return d.insights
}

// memoize looks up op(args) under the catalog version and computes it on a miss.
// Memo failures are logged and never fail the call.
func memoize[T any](ctx context.Context, d *Dashboard, op string, args []any, compute func() (T, error)) (T, error) {
	key, err := cache.Key(d.catalog.Version, op, args...)
	if err != nil {
		d.logger.Warn("[dashboard] %v", err)
		return compute()
	}

	data, ok, err := d.memo.Get(ctx, key)
	switch {
	case err != nil:
		observability.RecordMemoLookup(op, "error")
		d.logger.Warn("[dashboard] Memo read %s failed: %v", key, err)
	case ok:
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			observability.RecordMemoLookup(op, "hit")
			return v, nil
		}
		observability.RecordMemoLookup(op, "error")
		d.logger.Warn("[dashboard] Discarding undecodable memo entry %s", key)
	default:
		observability.RecordMemoLookup(op, "miss")
	}

	v, err := compute()
	if err != nil {
		return v, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := d.memo.Set(ctx, key, data); err != nil {
			d.logger.Warn("[dashboard] Memo write %s failed: %v", key, err)
		}
	}
	return v, nil
}

// normalizeTags sorts and de-duplicates a tag selection. Filtering is a set
// containment test, so the normalized selection selects the same rows.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
