package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"games-dashboard/models"
	"games-dashboard/utils"
)

const descriptionColumn = "description"

// SQLSource reads the catalog and metadata tables from a SQL database.
// It never writes; both tables are read with a plain SELECT.
type SQLSource struct {
	db            *sql.DB
	catalogTable  string
	metadataTable string
	logger        *utils.Logger
}

// OpenSQLSource opens a connection with the given driver ("postgres" or "sqlite")
// and pings it with back-off before returning.
func OpenSQLSource(ctx context.Context, driver, dsn, catalogTable, metadataTable string, retry *utils.RetryConfig, logger *utils.Logger) (*SQLSource, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: open: %w", models.ErrIO, driver, err)
	}

	if err := retry.Do(ctx, driver+"-ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %w", models.ErrIO, driver, err)
	}

	return NewSQLSource(db, catalogTable, metadataTable, logger), nil
}

// NewSQLSource wraps an already open database.
func NewSQLSource(db *sql.DB, catalogTable, metadataTable string, logger *utils.Logger) *SQLSource {
	return &SQLSource{
		db:            db,
		catalogTable:  catalogTable,
		metadataTable: metadataTable,
		logger:        logger,
	}
}

// Load reads both tables.
func (s *SQLSource) Load(ctx context.Context) (*models.RawTables, error) {
	header, records, err := s.selectAll(ctx, s.catalogTable)
	if err != nil {
		return nil, err
	}

	source := "table " + s.catalogTable
	var (
		extra []string
		games []*models.RawGame
	)
	if len(records) == 0 {
		_, extra, err = catalogLayout(header, source)
		if err != nil {
			return nil, err
		}
	} else {
		df := dataframe.LoadRecords(append([][]string{header}, records...), frameOptions()...)
		if df.Err != nil {
			return nil, fmt.Errorf("%w: %s: %w", models.ErrParse, source, df.Err)
		}
		extra, games, err = decodeCatalogFrame(df, source)
		if err != nil {
			return nil, err
		}
	}
	s.logger.Info("[loader] Read %d catalog rows from %s", len(games), source)

	meta, err := s.loadMetadata(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[loader] Read %d metadata records from table %s", len(meta), s.metadataTable)

	return &models.RawTables{ExtraColumns: extra, Games: games, Metadata: meta}, nil
}

func (s *SQLSource) loadMetadata(ctx context.Context) ([]*models.Metadata, error) {
	header, records, err := s.selectAll(ctx, s.metadataTable)
	if err != nil {
		return nil, err
	}
	source := "table " + s.metadataTable

	idIdx, tagsIdx := -1, -1
	for i, col := range header {
		switch col {
		case models.ColumnID:
			idIdx = i
		case aliasID:
			if idIdx < 0 {
				idIdx = i
			}
		case models.ColumnTags:
			tagsIdx = i
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("%w: %s: missing required column %q", models.ErrParse, source, models.ColumnID)
	}
	if tagsIdx < 0 {
		return nil, fmt.Errorf("%w: %s: missing required column %q", models.ErrParse, source, models.ColumnTags)
	}

	out := make([]*models.Metadata, 0, len(records))
	seen := make(map[int64]int, len(records))
	for i, rec := range records {
		row := i + 1
		id, err := strconv.ParseInt(rec[idIdx], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: row %d: invalid id %q", models.ErrParse, source, row, rec[idIdx])
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s: row %d: duplicate id %d (first seen at row %d)",
				models.ErrParse, source, row, id, prev)
		}
		seen[id] = row

		m := &models.Metadata{ID: id}
		tags, ok, err := parseTags([]byte(rec[tagsIdx]))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: row %d: %w", models.ErrParse, source, row, err)
		}
		if ok {
			m.Tags = tags
		} else {
			m.Missing = append(m.Missing, models.ColumnTags)
		}
		out = append(out, m)
	}
	return out, nil
}

// selectAll returns the column names and every row as strings; NULL becomes "".
// The description column is never read into memory.
func (s *SQLSource) selectAll(ctx context.Context, table string) ([]string, [][]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: select %s: %w", models.ErrIO, table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: columns %s: %w", models.ErrIO, table, err)
	}

	keep := make([]int, 0, len(cols))
	header := make([]string, 0, len(cols))
	for i, c := range cols {
		if strings.EqualFold(c, descriptionColumn) {
			continue
		}
		keep = append(keep, i)
		header = append(header, c)
	}

	var records [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		for i, c := range cols {
			if strings.EqualFold(c, descriptionColumn) {
				dest[i] = new(sql.RawBytes)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("%w: scan %s: %w", models.ErrParse, table, err)
		}
		rec := make([]string, len(keep))
		for j, i := range keep {
			if vals[i].Valid {
				rec[j] = vals[i].String
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %w", models.ErrIO, table, err)
	}
	return header, records, nil
}

// Close releases the database connection.
func (s *SQLSource) Close() error {
	return s.db.Close()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
