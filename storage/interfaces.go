package storage

import (
	"context"

	"games-dashboard/models"
)

// Source is the interface any catalog backend must satisfy.
// Load returns the raw tabular rows and the metadata records, uncleaned.
type Source interface {
	Load(ctx context.Context) (*models.RawTables, error)
	Close() error
}
