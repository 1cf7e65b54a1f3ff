package services

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"games-dashboard/cache"
	"games-dashboard/models"
)

type failingMemo struct{}

func (failingMemo) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("memo down")
}

func (failingMemo) Set(context.Context, string, []byte) error { return errors.New("memo down") }

func newTestDashboard(t *testing.T, memo cache.Memo) *Dashboard {
	t.Helper()
	d, err := NewDashboard(sampleCatalog(), memo, DefaultDashboardOptions(), newTestLogger())
	if err != nil {
		t.Fatalf("NewDashboard: %v", err)
	}
	return d
}

func TestDashboardMemoMatchesRecompute(t *testing.T) {
	ctx := context.Background()
	lru, err := cache.NewLRU(64)
	if err != nil {
		t.Fatal(err)
	}
	plain := newTestDashboard(t, nil)
	memo := newTestDashboard(t, lru)

	for round := 0; round < 2; round++ {
		wantTags, _ := plain.Tags(ctx)
		gotTags, err := memo.Tags(ctx)
		if err != nil || !reflect.DeepEqual(gotTags, wantTags) {
			t.Errorf("round %d Tags = %v, %v; want %v", round, gotTags, err, wantTags)
		}

		wantDesc, _ := plain.Descriptive(ctx, []string{"indie"})
		gotDesc, err := memo.Descriptive(ctx, []string{"indie"})
		if err != nil || !reflect.DeepEqual(gotDesc, wantDesc) {
			t.Errorf("round %d Descriptive = %+v; want %+v", round, gotDesc, wantDesc)
		}

		wantInf, _ := plain.Inferential(ctx, 30, 1500)
		gotInf, err := memo.Inferential(ctx, 30, 1500)
		if err != nil || !reflect.DeepEqual(gotInf, wantInf) {
			t.Errorf("round %d Inferential = %+v; want %+v", round, gotInf, wantInf)
		}

		wantBins, _ := plain.Bins(ctx, models.ColumnPriceFinal, nil)
		gotBins, err := memo.Bins(ctx, models.ColumnPriceFinal, nil)
		if err != nil || !reflect.DeepEqual(gotBins, wantBins) {
			t.Errorf("round %d Bins = %+v; want %+v", round, gotBins, wantBins)
		}
	}

	if lru.Len() == 0 {
		t.Error("expected memo entries after the first round")
	}
}

func TestDashboardFilterNormalizesTags(t *testing.T) {
	ctx := context.Background()
	lru, _ := cache.NewLRU(16)
	d := newTestDashboard(t, lru)

	a, err := d.FilterByTags(ctx, []string{"rpg", "indie", "rpg"})
	if err != nil {
		t.Fatal(err)
	}
	before := lru.Len()
	b, err := d.FilterByTags(ctx, []string{"indie", "rpg"})
	if err != nil {
		t.Fatal(err)
	}

	if a.Len() != 1 || a.Games[0].ID != 3 || a.Version != b.Version {
		t.Errorf("filter results differ: %v vs %v", ids(a), ids(b))
	}
	if lru.Len() != before {
		t.Errorf("equivalent selections should share one memo entry")
	}

	all, _ := d.FilterByTags(ctx, nil)
	if all != d.Catalog() {
		t.Error("no tags should return the full catalog")
	}
}

func TestDashboardMemoFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	d := newTestDashboard(t, failingMemo{})

	r, err := d.Descriptive(ctx, []string{"indie"})
	if err != nil {
		t.Fatalf("memo errors must not surface: %v", err)
	}
	if r.TotalRows != 2 {
		t.Errorf("TotalRows = %d; want 2", r.TotalRows)
	}
}

func TestDashboardMemoSeparatesBucketSpecs(t *testing.T) {
	ctx := context.Background()
	lru, err := cache.NewLRU(64)
	if err != nil {
		t.Fatal(err)
	}
	stock := newTestDashboard(t, lru)

	opts := DefaultDashboardOptions()
	opts.RatioBuckets.Edges = []float64{0, 50, 100}
	opts.RatioBuckets.Labels = []string{"low", "high"}
	opts.PriceBuckets.Edges = []float64{0, 10, math.Inf(1)}
	opts.PriceBuckets.Labels = []string{"cheap", "pricey"}
	custom, err := NewDashboard(sampleCatalog(), lru, opts, newTestLogger())
	if err != nil {
		t.Fatalf("NewDashboard: %v", err)
	}

	if _, err := stock.Descriptive(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := stock.Bins(ctx, models.ColumnPriceFinal, nil); err != nil {
		t.Fatal(err)
	}
	if lru.Len() == 0 {
		t.Fatal("expected memo entries for the stock buckets")
	}

	report, err := custom.Descriptive(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := labelsOf(report.RatioBuckets); !reflect.DeepEqual(got, []string{"low", "high"}) {
		t.Errorf("ratio labels = %v; want [low high]", got)
	}
	if got := labelsOf(report.PriceBuckets); !reflect.DeepEqual(got, []string{"cheap", "pricey"}) {
		t.Errorf("price labels = %v; want [cheap pricey]", got)
	}

	bins, err := custom.Bins(ctx, models.ColumnPriceFinal, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := labelsOf(bins); !reflect.DeepEqual(got, []string{"cheap", "pricey"}) {
		t.Errorf("bins labels = %v; want [cheap pricey]", got)
	}
}

func labelsOf(counts []models.BucketCount) []string {
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.Label
	}
	return out
}

func TestDashboardBinsUnknownColumn(t *testing.T) {
	d := newTestDashboard(t, nil)
	_, err := d.Bins(context.Background(), models.ColumnUserReviews, nil)
	if !errors.Is(err, models.ErrConfig) {
		t.Errorf("got %v; want ErrConfig", err)
	}
}

func TestDashboardInferentialPropagatesConfigError(t *testing.T) {
	d := newTestDashboard(t, nil)
	_, err := d.Inferential(context.Background(), 0, 10)
	if !errors.Is(err, models.ErrConfig) {
		t.Errorf("got %v; want ErrConfig", err)
	}
}

func TestDashboardDefaultLimits(t *testing.T) {
	d := newTestDashboard(t, nil)

	price, reviews := d.DefaultLimits(60, 200000)
	if price != 60 || reviews != 42000 {
		t.Errorf("DefaultLimits = %v, %v; want 60, 42000", price, reviews)
	}

	empty, err := NewDashboard(models.NewCatalog(nil, nil), nil, DefaultDashboardOptions(), newTestLogger())
	if err != nil {
		t.Fatal(err)
	}
	price, reviews = empty.DefaultLimits(60, 200000)
	if price != 1 || reviews != 1 {
		t.Errorf("empty catalog limits = %v, %v; want 1, 1", price, reviews)
	}
}

func TestNewDashboardRejectsBadOptions(t *testing.T) {
	opts := DefaultDashboardOptions()
	opts.RatioBuckets.Labels = opts.RatioBuckets.Labels[:3]
	if _, err := NewDashboard(sampleCatalog(), nil, opts, newTestLogger()); !errors.Is(err, models.ErrConfig) {
		t.Errorf("bad labels: got %v; want ErrConfig", err)
	}

	opts = DefaultDashboardOptions()
	opts.HeatmapBins = 0
	if _, err := NewDashboard(sampleCatalog(), nil, opts, newTestLogger()); !errors.Is(err, models.ErrConfig) {
		t.Errorf("zero bins: got %v; want ErrConfig", err)
	}
}
