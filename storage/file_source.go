package storage

import (
	"context"
	"fmt"

	"games-dashboard/models"
	"games-dashboard/utils"
)

// FileSource loads the catalog from a CSV table and a JSONL metadata file.
type FileSource struct {
	CatalogPath  string
	MetadataPath string
	logger       *utils.Logger
}

// NewFileSource creates a FileSource for the two paths.
func NewFileSource(catalogPath, metadataPath string, logger *utils.Logger) *FileSource {
	return &FileSource{CatalogPath: catalogPath, MetadataPath: metadataPath, logger: logger}
}

// Load reads both files. Either file failing aborts the load.
func (s *FileSource) Load(ctx context.Context) (*models.RawTables, error) {
	extra, games, err := ReadCatalogCSV(s.CatalogPath)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[loader] Read %d catalog rows from %s", len(games), s.CatalogPath)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	meta, err := ReadMetadataJSONL(s.MetadataPath)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[loader] Read %d metadata records from %s", len(meta), s.MetadataPath)

	return &models.RawTables{ExtraColumns: extra, Games: games, Metadata: meta}, nil
}

// Close is a no-op; files are closed as soon as they are read.
func (s *FileSource) Close() error { return nil }
