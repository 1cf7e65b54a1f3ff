// Package cache provides the memo stores used to avoid recomputing views
// derived from an immutable catalog.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Memo stores encoded results by key. A miss is (nil, false, nil).
type Memo interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Key derives a memo key from the catalog version, the operation name and
// its arguments. Arguments must be JSON-encodable; callers normalize them
// first (for example by sorting sets) so equal inputs share a key.
func Key(version, op string, args ...any) (string, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("cache: encode %s args: %w", op, err)
	}
	return op + ":" + version + ":" + strconv.FormatUint(xxhash.Sum64(payload), 16), nil
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte) error { return nil }
