package services

import "games-dashboard/models"

// Tags returns every distinct tag in the catalog, in order of first appearance.
// Only rows of the given catalog are considered; pass the full cleaned catalog
// for the global tag universe.
func Tags(catalog *models.Catalog) []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, g := range catalog.Games {
		for _, t := range g.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	return tags
}
