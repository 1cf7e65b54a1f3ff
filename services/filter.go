package services

import "games-dashboard/models"

// FilterByTags keeps the rows whose tags include every required tag.
// An empty requirement returns catalog itself. Row order is preserved and
// unknown tags simply match nothing.
func FilterByTags(catalog *models.Catalog, required []string) *models.Catalog {
	if len(required) == 0 {
		return catalog
	}
	return catalog.Subset(matchingRows(catalog, required))
}

// matchingRows returns the indices of rows whose tags contain all of required.
func matchingRows(catalog *models.Catalog, required []string) []int {
	var idx []int
	for i, g := range catalog.Games {
		if containsAll(g, required) {
			idx = append(idx, i)
		}
	}
	return idx
}

func containsAll(g *models.Game, required []string) bool {
	for _, t := range required {
		if !g.HasTag(t) {
			return false
		}
	}
	return true
}

// FilterAtMost keeps the rows whose numeric column is <= limit.
func FilterAtMost(catalog *models.Catalog, column string, limit float64) (*models.Catalog, error) {
	values, err := catalog.Column(column)
	if err != nil {
		return nil, err
	}
	var idx []int
	for i, v := range values {
		if v <= limit {
			idx = append(idx, i)
		}
	}
	return catalog.Subset(idx), nil
}
