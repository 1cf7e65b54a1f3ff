package services

import (
	"games-dashboard/models"
	"games-dashboard/observability"
	"games-dashboard/utils"
)

// CleanStats records how many rows each cleaning rule removed.
type CleanStats struct {
	Input      int
	Unmatched  int
	Incomplete int
	NonGame    int
	Output     int
}

// Cleaner merges raw tables into a clean, validated Catalog.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean joins games with their metadata and drops incomplete and non-game rows.
func (c *Cleaner) Clean(tables *models.RawTables) *models.Catalog {
	catalog, _ := c.CleanWithStats(tables)
	return catalog
}

// CleanWithStats is Clean plus the per-rule drop counts.
//
// Rows are kept in source order. A row survives only if a metadata record with
// the same id exists, no retained column is missing, and at least one of
// win/mac/linux is set.
func (c *Cleaner) CleanWithStats(tables *models.RawTables) (*models.Catalog, CleanStats) {
	stats := CleanStats{Input: len(tables.Games)}

	byID := make(map[int64]*models.Metadata, len(tables.Metadata))
	for _, m := range tables.Metadata {
		byID[m.ID] = m
	}

	games := make([]*models.Game, 0, len(tables.Games))
	for _, r := range tables.Games {
		meta, ok := byID[r.ID]
		if !ok {
			c.logger.Debug("[cleaner] No metadata for id %d, excluded", r.ID)
			stats.Unmatched++
			continue
		}

		if len(r.Missing) > 0 || len(meta.Missing) > 0 {
			c.logger.Debug("[cleaner] Dropping id %d with missing %v%v", r.ID, r.Missing, meta.Missing)
			stats.Incomplete++
			continue
		}

		if !r.Win && !r.Mac && !r.Linux {
			c.logger.Debug("[cleaner] Dropping non-game id %d (%s)", r.ID, r.Title)
			stats.NonGame++
			continue
		}

		games = append(games, &models.Game{
			ID:            r.ID,
			Title:         r.Title,
			Win:           r.Win,
			Mac:           r.Mac,
			Linux:         r.Linux,
			Rating:        r.Rating,
			PositiveRatio: r.PositiveRatio,
			PriceFinal:    r.PriceFinal,
			UserReviews:   r.UserReviews,
			Tags:          append(make([]string, 0, len(meta.Tags)), meta.Tags...),
			Extra:         append([]string(nil), r.Extra...),
		})
	}
	stats.Output = len(games)

	observability.RowsDropped.WithLabelValues("unmatched").Add(float64(stats.Unmatched))
	observability.RowsDropped.WithLabelValues("incomplete").Add(float64(stats.Incomplete))
	observability.RowsDropped.WithLabelValues("non_game").Add(float64(stats.NonGame))

	c.logger.Info("[cleaner] Cleaned %d → %d games (unmatched %d, incomplete %d, non-game %d)",
		stats.Input, stats.Output, stats.Unmatched, stats.Incomplete, stats.NonGame)

	return models.NewCatalog(tables.ExtraColumns, games), stats
}
