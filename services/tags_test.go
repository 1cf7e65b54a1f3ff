package services

import (
	"reflect"
	"testing"

	"games-dashboard/models"
)

func testGame(id int64, tags ...string) *models.Game {
	return &models.Game{
		ID:            id,
		Title:         "Game",
		Win:           true,
		Rating:        "Positive",
		PositiveRatio: float64(id * 10),
		PriceFinal:    float64(id),
		UserReviews:   id * 100,
		Tags:          tags,
	}
}

func TestTagsFirstAppearanceOrder(t *testing.T) {
	catalog := models.NewCatalog(nil, []*models.Game{
		testGame(1, "indie", "rpg"),
		testGame(2, "action", "indie"),
		testGame(3),
		testGame(4, "rpg", "casual"),
	})

	got := Tags(catalog)
	want := []string{"indie", "rpg", "action", "casual"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tags = %v; want %v", got, want)
	}
}

func TestTagsEmptyCatalog(t *testing.T) {
	got := Tags(models.NewCatalog(nil, nil))
	if got == nil || len(got) != 0 {
		t.Errorf("Tags of empty catalog = %#v; want empty non-nil slice", got)
	}
}
