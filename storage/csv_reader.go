package storage

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"games-dashboard/models"
)

const aliasID = "app_id"

// missingTokens are the cell values treated as missing: the usual NA spellings
// plus "<nil>", which is how a NULL database cell stringifies.
var missingTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null", "<nil>",
}

// frameOptions loads every column as a string series so that typed parsing,
// and its error messages, stay under our control. Missing cells are marked NaN.
func frameOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(missingTokens),
	}
}

// ReadCatalogCSV reads the comma-separated games table at path.
// It returns the names of any non-required columns alongside the rows.
func ReadCatalogCSV(path string) ([]string, []*models.RawGame, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: catalog %q: %w", models.ErrIO, path, err)
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("%w: catalog %q is a directory", models.ErrIO, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: catalog %q: %w", models.ErrIO, path, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, frameOptions()...)
	if df.Err != nil {
		return nil, nil, fmt.Errorf("%w: catalog %q: %w", models.ErrParse, path, df.Err)
	}
	return decodeCatalogFrame(df, path)
}

// frameColumns gives row-wise access to string series and their missing masks.
type frameColumns struct {
	values  map[string][]string
	missing map[string][]bool
}

func newFrameColumns(df dataframe.DataFrame, names []string) frameColumns {
	fc := frameColumns{
		values:  make(map[string][]string, len(names)),
		missing: make(map[string][]bool, len(names)),
	}
	for _, name := range names {
		col := df.Col(name)
		fc.values[name] = col.Records()
		fc.missing[name] = col.IsNaN()
	}
	return fc
}

func (fc frameColumns) get(name string, row int) (string, bool) {
	if fc.missing[name][row] {
		return "", false
	}
	return fc.values[name][row], true
}

// decodeCatalogFrame converts a string-typed frame into raw games. Missing cells
// are recorded per row; cells that are present but malformed fail the whole load.
func decodeCatalogFrame(df dataframe.DataFrame, source string) ([]string, []*models.RawGame, error) {
	idCol, extra, err := catalogLayout(df.Names(), source)
	if err != nil {
		return nil, nil, err
	}

	used := append([]string{idCol}, models.RequiredColumns[1:]...)
	fc := newFrameColumns(df, append(used, extra...))

	nrows := df.Nrow()
	games := make([]*models.RawGame, 0, nrows)
	seen := make(map[int64]int, nrows)

	for i := 0; i < nrows; i++ {
		row := i + 1
		g := &models.RawGame{}

		raw, ok := fc.get(idCol, i)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s: row %d: missing %s", models.ErrParse, source, row, idCol)
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: row %d: invalid %s %q", models.ErrParse, source, row, idCol, raw)
		}
		if prev, dup := seen[id]; dup {
			return nil, nil, fmt.Errorf("%w: %s: row %d: duplicate id %d (first seen at row %d)",
				models.ErrParse, source, row, id, prev)
		}
		seen[id] = row
		g.ID = id

		if v, ok := fc.get(models.ColumnTitle, i); ok {
			g.Title = v
		} else {
			g.Missing = append(g.Missing, models.ColumnTitle)
		}
		if v, ok := fc.get(models.ColumnRating, i); ok {
			g.Rating = v
		} else {
			g.Missing = append(g.Missing, models.ColumnRating)
		}

		for _, flag := range []struct {
			col string
			dst *bool
		}{
			{models.ColumnWin, &g.Win},
			{models.ColumnMac, &g.Mac},
			{models.ColumnLinux, &g.Linux},
		} {
			v, ok := fc.get(flag.col, i)
			if !ok {
				g.Missing = append(g.Missing, flag.col)
				continue
			}
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %s: row %d: invalid %s %q", models.ErrParse, source, row, flag.col, v)
			}
			*flag.dst = b
		}

		for _, num := range []struct {
			col string
			dst *float64
		}{
			{models.ColumnPositiveRatio, &g.PositiveRatio},
			{models.ColumnPriceFinal, &g.PriceFinal},
		} {
			v, ok := fc.get(num.col, i)
			if !ok {
				g.Missing = append(g.Missing, num.col)
				continue
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %s: row %d: invalid %s %q", models.ErrParse, source, row, num.col, v)
			}
			// ParseFloat accepts NaN spellings outside the token list, e.g. "NAN".
			if math.IsNaN(f) {
				g.Missing = append(g.Missing, num.col)
				continue
			}
			*num.dst = f
		}

		if v, ok := fc.get(models.ColumnUserReviews, i); ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %s: row %d: invalid %s %q",
					models.ErrParse, source, row, models.ColumnUserReviews, v)
			}
			g.UserReviews = n
		} else {
			g.Missing = append(g.Missing, models.ColumnUserReviews)
		}

		if len(extra) > 0 {
			g.Extra = make([]string, len(extra))
			for j, col := range extra {
				v, ok := fc.get(col, i)
				if !ok {
					g.Missing = append(g.Missing, col)
				}
				g.Extra[j] = v
			}
		}

		games = append(games, g)
	}

	return extra, games, nil
}

// catalogLayout checks the header for required columns and returns the id column
// in use plus the remaining columns in header order.
func catalogLayout(names []string, source string) (string, []string, error) {
	idCol, err := findIDColumn(names, source)
	if err != nil {
		return "", nil, err
	}

	present := make(map[string]struct{}, len(names))
	for _, n := range names {
		present[n] = struct{}{}
	}
	required := make(map[string]struct{}, len(models.RequiredColumns))
	for _, col := range models.RequiredColumns {
		required[col] = struct{}{}
		if col == models.ColumnID {
			continue
		}
		if _, ok := present[col]; !ok {
			return "", nil, fmt.Errorf("%w: %s: missing required column %q", models.ErrParse, source, col)
		}
	}

	var extra []string
	for _, n := range names {
		if _, ok := required[n]; ok || n == idCol {
			continue
		}
		extra = append(extra, n)
	}
	return idCol, extra, nil
}

func findIDColumn(names []string, source string) (string, error) {
	var alias bool
	for _, n := range names {
		if n == models.ColumnID {
			return n, nil
		}
		if n == aliasID {
			alias = true
		}
	}
	if alias {
		return aliasID, nil
	}
	return "", fmt.Errorf("%w: %s: missing required column %q", models.ErrParse, source, models.ColumnID)
}
