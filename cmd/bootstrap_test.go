package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"games-dashboard/cache"
	"games-dashboard/config"
	"games-dashboard/models"
	"games-dashboard/utils"
)

const testCSV = `id,title,win,mac,linux,rating,positive_ratio,user_reviews,price_final
1,Alpha,true,false,false,Positive,90,1200,9.99
2,Beta,true,true,false,Mixed,55,300,
3,Gamma,false,false,true,Very Positive,97,42000,29.99
`

const testJSONL = `{"app_id":1,"tags":["indie"]}
{"app_id":2,"tags":["indie"]}
{"app_id":3,"tags":["action"]}
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Data.Source = config.SourceFiles
	cfg.Data.CatalogPath = filepath.Join(dir, "games.csv")
	cfg.Data.MetadataPath = filepath.Join(dir, "games_metadata.json")
	cfg.Cache.Backend = config.CacheMemory
	require.NoError(t, os.WriteFile(cfg.Data.CatalogPath, []byte(testCSV), 0o644))
	require.NoError(t, os.WriteFile(cfg.Data.MetadataPath, []byte(testJSONL), 0o644))
	return cfg
}

func TestLoadCatalogFromFiles(t *testing.T) {
	cfg := testConfig(t)
	catalog, err := loadCatalog(context.Background(), cfg, utils.NewLoggerTo(io.Discard))
	require.NoError(t, err)

	assert.Equal(t, 2, catalog.Len())
	assert.NotEmpty(t, catalog.Version)
}

func TestLoadCatalogMissingFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.CatalogPath = filepath.Join(t.TempDir(), "nope.csv")

	_, err := loadCatalog(context.Background(), cfg, utils.NewLoggerTo(io.Discard))
	assert.ErrorIs(t, err, models.ErrIO)
}

func TestNewMemoBackends(t *testing.T) {
	logger := utils.NewLoggerTo(io.Discard)
	ctx := context.Background()

	cfg := testConfig(t)
	cfg.Cache.Backend = config.CacheNone
	memo, release, err := newMemo(ctx, cfg, logger)
	require.NoError(t, err)
	release()
	assert.IsType(t, cache.Noop{}, memo)

	cfg.Cache.Backend = config.CacheMemory
	memo, release, err = newMemo(ctx, cfg, logger)
	require.NoError(t, err)
	release()
	assert.IsType(t, &cache.LRU{}, memo)

	mr := miniredis.RunT(t)
	cfg.Cache.Backend = config.CacheRedis
	cfg.Cache.Redis.Address = mr.Addr()
	memo, release, err = newMemo(ctx, cfg, logger)
	require.NoError(t, err)
	defer release()
	require.NoError(t, memo.Set(ctx, "k", []byte("v")))
	got, ok, err := memo.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestNewMemoRedisUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Backend = config.CacheRedis
	cfg.Cache.Redis.Address = "127.0.0.1:1"
	cfg.Retry.MaxAttempts = 1

	_, _, err := newMemo(context.Background(), cfg, utils.NewLoggerTo(io.Discard))
	assert.ErrorIs(t, err, models.ErrIO)
}

func TestDashboardFilterAfterBootstrap(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	dashboard, release, err := newDashboard(ctx, cfg, utils.NewLoggerTo(io.Discard))
	require.NoError(t, err)
	defer release()

	indie, err := dashboard.FilterByTags(ctx, []string{"indie"})
	require.NoError(t, err)
	require.Equal(t, 1, indie.Len())
	assert.Equal(t, int64(1), indie.Games[0].ID)
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, buf.String(), "Version: dev")
}
