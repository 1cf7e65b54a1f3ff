package models

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Column names shared by the tabular source and the numeric column lookups.
const (
	ColumnID            = "id"
	ColumnTitle         = "title"
	ColumnWin           = "win"
	ColumnMac           = "mac"
	ColumnLinux         = "linux"
	ColumnRating        = "rating"
	ColumnPositiveRatio = "positive_ratio"
	ColumnPriceFinal    = "price_final"
	ColumnUserReviews   = "user_reviews"
	ColumnTags          = "tags"
)

// RequiredColumns lists the tabular columns every catalog source must carry.
var RequiredColumns = []string{
	ColumnID, ColumnTitle, ColumnWin, ColumnMac, ColumnLinux,
	ColumnRating, ColumnPositiveRatio, ColumnPriceFinal, ColumnUserReviews,
}

// RawGame holds one tabular row as read from the source, before any merge or cleaning.
// Columns whose cell was empty are named in Missing and left at their zero value.
type RawGame struct {
	ID            int64
	Title         string
	Win           bool
	Mac           bool
	Linux         bool
	Rating        string
	PositiveRatio float64
	PriceFinal    float64
	UserReviews   int64
	Extra         []string
	Missing       []string
}

// Metadata is the per-product record joined into a game by ID.
// A nil Tags with "tags" in Missing means the field was absent or null.
type Metadata struct {
	ID      int64
	Tags    []string
	Missing []string
}

// RawTables is the pair of tables produced by a Source.
type RawTables struct {
	ExtraColumns []string
	Games        []*RawGame
	Metadata     []*Metadata
}

// Game is a cleaned catalog row.
type Game struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Win           bool     `json:"win"`
	Mac           bool     `json:"mac"`
	Linux         bool     `json:"linux"`
	Rating        string   `json:"rating"`
	PositiveRatio float64  `json:"positive_ratio"`
	PriceFinal    float64  `json:"price_final"`
	UserReviews   int64    `json:"user_reviews"`
	Tags          []string `json:"tags"`
	Extra         []string `json:"extra,omitempty"`
}

// HasTag reports whether tag appears in the game's tag list.
func (g *Game) HasTag(tag string) bool {
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Numeric returns the value of a numeric column.
func (g *Game) Numeric(column string) (float64, bool) {
	switch column {
	case ColumnPositiveRatio:
		return g.PositiveRatio, true
	case ColumnPriceFinal:
		return g.PriceFinal, true
	case ColumnUserReviews:
		return float64(g.UserReviews), true
	default:
		return 0, false
	}
}

// Catalog is the cleaned, immutable table of games. Nothing mutates a Catalog
// or its rows after construction; derived views share the *Game pointers.
type Catalog struct {
	Version      string
	ExtraColumns []string
	Games        []*Game
}

// NewCatalog builds a catalog and stamps it with a content-derived version.
// Two catalogs with the same rows always carry the same version.
func NewCatalog(extraColumns []string, games []*Game) *Catalog {
	c := &Catalog{ExtraColumns: extraColumns, Games: games}
	c.Version = contentVersion(extraColumns, games)
	return c
}

// Len returns the number of rows.
func (c *Catalog) Len() int { return len(c.Games) }

// Subset returns a catalog holding the rows at the given indices, in order.
func (c *Catalog) Subset(indices []int) *Catalog {
	games := make([]*Game, 0, len(indices))
	for _, i := range indices {
		games = append(games, c.Games[i])
	}
	return NewCatalog(c.ExtraColumns, games)
}

// Column extracts a numeric column as float64 values in row order.
func (c *Catalog) Column(name string) ([]float64, error) {
	out := make([]float64, len(c.Games))
	for i, g := range c.Games {
		v, ok := g.Numeric(name)
		if !ok {
			return nil, fmt.Errorf("%w: column %q is not numeric", ErrConfig, name)
		}
		out[i] = v
	}
	return out, nil
}

// MaxOf returns the largest value of a numeric column, or 0 for an empty catalog.
func (c *Catalog) MaxOf(name string) (float64, error) {
	values, err := c.Column(name)
	if err != nil {
		return 0, err
	}
	max := 0.0
	for i, v := range values {
		if i == 0 || v > max {
			max = v
		}
	}
	return max, nil
}

// Tables splits the catalog back into the raw tables it could have been built from.
func (c *Catalog) Tables() *RawTables {
	t := &RawTables{
		ExtraColumns: c.ExtraColumns,
		Games:        make([]*RawGame, 0, len(c.Games)),
		Metadata:     make([]*Metadata, 0, len(c.Games)),
	}
	for _, g := range c.Games {
		t.Games = append(t.Games, &RawGame{
			ID:            g.ID,
			Title:         g.Title,
			Win:           g.Win,
			Mac:           g.Mac,
			Linux:         g.Linux,
			Rating:        g.Rating,
			PositiveRatio: g.PositiveRatio,
			PriceFinal:    g.PriceFinal,
			UserReviews:   g.UserReviews,
			Extra:         g.Extra,
		})
		t.Metadata = append(t.Metadata, &Metadata{ID: g.ID, Tags: g.Tags})
	}
	return t
}

func contentVersion(extraColumns []string, games []*Game) string {
	d := xxhash.New()
	for _, col := range extraColumns {
		_, _ = d.WriteString(col)
		_, _ = d.WriteString("\x1f")
	}
	_, _ = d.WriteString("\x1e")
	for _, g := range games {
		_, _ = d.WriteString(strconv.FormatInt(g.ID, 10))
		_, _ = d.WriteString("\x1f" + g.Title + "\x1f" + g.Rating + "\x1f")
		_, _ = d.WriteString(strconv.FormatBool(g.Win) + strconv.FormatBool(g.Mac) + strconv.FormatBool(g.Linux))
		_, _ = d.WriteString(strconv.FormatUint(math.Float64bits(g.PositiveRatio), 16))
		_, _ = d.WriteString(strconv.FormatUint(math.Float64bits(g.PriceFinal), 16))
		_, _ = d.WriteString(strconv.FormatInt(g.UserReviews, 10))
		for _, t := range g.Tags {
			_, _ = d.WriteString("\x1f" + t)
		}
		for _, e := range g.Extra {
			_, _ = d.WriteString("\x1d" + e)
		}
		_, _ = d.WriteString("\x1e")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
