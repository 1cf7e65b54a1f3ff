package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"games-dashboard/models"
	"games-dashboard/utils"
)

const testSchema = `
CREATE TABLE games (
	app_id         INTEGER PRIMARY KEY,
	title          TEXT,
	win            INTEGER,
	mac            INTEGER,
	linux          INTEGER,
	rating         TEXT,
	positive_ratio INTEGER,
	user_reviews   INTEGER,
	price_final    REAL,
	steam_deck     INTEGER
);
CREATE TABLE games_metadata (
	app_id      INTEGER PRIMARY KEY,
	description TEXT,
	tags        TEXT
);
`

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Ensure single connection to avoid separate in-memory DBs per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLSourceLoad(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.Exec(`
		INSERT INTO games VALUES
			(10, 'Counter-Strike', 1, 1, 1, 'Overwhelmingly Positive', 97, 124534, 9.99, 1),
			(20, 'Soundtrack', 0, 0, 0, 'Positive', 90, 12, 1.99, 0),
			(30, 'Unpriced', 1, 0, 0, 'Mixed', 55, 40, NULL, 0);
		INSERT INTO games_metadata VALUES
			(10, 'long text', '["FPS","Shooter"]'),
			(20, 'music', '[]'),
			(30, 'n/a', NULL);
	`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	src := NewSQLSource(db, "games", "games_metadata", utils.NewLogger())
	tables, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(tables.ExtraColumns) != 1 || tables.ExtraColumns[0] != "steam_deck" {
		t.Errorf("extra columns: got %v", tables.ExtraColumns)
	}
	if len(tables.Games) != 3 {
		t.Fatalf("games: got %d, want 3", len(tables.Games))
	}
	cs := tables.Games[0]
	if cs.ID != 10 || !cs.Win || !cs.Mac || !cs.Linux || cs.PriceFinal != 9.99 || cs.UserReviews != 124534 {
		t.Errorf("row 0 decoded wrong: %+v", cs)
	}
	if len(tables.Games[2].Missing) != 1 || tables.Games[2].Missing[0] != "price_final" {
		t.Errorf("NULL price should be missing: %+v", tables.Games[2])
	}

	if len(tables.Metadata) != 3 {
		t.Fatalf("metadata: got %d, want 3", len(tables.Metadata))
	}
	if got := tables.Metadata[0].Tags; len(got) != 2 || got[0] != "FPS" {
		t.Errorf("tags: got %v", got)
	}
	if len(tables.Metadata[2].Missing) != 1 {
		t.Errorf("NULL tags should be missing: %+v", tables.Metadata[2])
	}
}

func TestSQLSourceEmptyCatalog(t *testing.T) {
	db := setupTestDB(t)
	src := NewSQLSource(db, "games", "games_metadata", utils.NewLogger())

	tables, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tables.Games) != 0 || len(tables.Metadata) != 0 {
		t.Errorf("expected empty tables, got %d games / %d metadata", len(tables.Games), len(tables.Metadata))
	}
}

func TestSQLSourceMissingTable(t *testing.T) {
	db := setupTestDB(t)
	src := NewSQLSource(db, "nope", "games_metadata", utils.NewLogger())

	_, err := src.Load(context.Background())
	if !errors.Is(err, models.ErrIO) {
		t.Errorf("got %v, want ErrIO", err)
	}
}

func TestSQLSourceBadTags(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.Exec(`INSERT INTO games_metadata VALUES (1, '', 'Action')`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	src := NewSQLSource(db, "games", "games_metadata", utils.NewLogger())

	_, err := src.Load(context.Background())
	if !errors.Is(err, models.ErrParse) {
		t.Errorf("got %v, want ErrParse", err)
	}
}

func TestOpenSQLSourceSQLite(t *testing.T) {
	retry := &utils.RetryConfig{MaxAttempts: 1}
	src, err := OpenSQLSource(context.Background(), "sqlite", ":memory:", "games", "games_metadata", retry, utils.NewLogger())
	if err != nil {
		t.Fatalf("OpenSQLSource: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
