package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"games-dashboard/models"
)

// maxRecordBytes bounds a single metadata line; descriptions can be long.
const maxRecordBytes = 16 << 20

// metadataLine only declares the fields we keep. The description and any other
// fields are skipped by the decoder and never held in memory.
type metadataLine struct {
	ID    json.RawMessage `json:"id"`
	AppID json.RawMessage `json:"app_id"`
	Tags  json.RawMessage `json:"tags"`
}

// ReadMetadataJSONL reads newline-delimited JSON metadata records from path.
func ReadMetadataJSONL(path string) ([]*models.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata %q: %w", models.ErrIO, path, err)
	}
	defer f.Close()

	return decodeMetadata(f, path)
}

func decodeMetadata(r io.Reader, source string) ([]*models.Metadata, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)

	var (
		records []*models.Metadata
		seen    = make(map[int64]int)
		line    int
	)
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec metadataLine
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: %s: line %d: %w", models.ErrParse, source, line, err)
		}

		idRaw := rec.ID
		if isNull(idRaw) {
			idRaw = rec.AppID
		}
		if isNull(idRaw) {
			return nil, fmt.Errorf("%w: %s: line %d: missing id", models.ErrParse, source, line)
		}
		id, ok := parseID(idRaw)
		if !ok {
			return nil, fmt.Errorf("%w: %s: line %d: invalid id %s", models.ErrParse, source, line, idRaw)
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s: line %d: duplicate id %d (first seen at line %d)",
				models.ErrParse, source, line, id, prev)
		}
		seen[id] = line

		m := &models.Metadata{ID: id}
		tags, ok, err := parseTags(rec.Tags)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: line %d: %w", models.ErrParse, source, line, err)
		}
		if ok {
			m.Tags = tags
		} else {
			m.Missing = append(m.Missing, models.ColumnTags)
		}
		records = append(records, m)
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("%w: %s: line %d exceeds %d bytes", models.ErrParse, source, line+1, maxRecordBytes)
		}
		return nil, fmt.Errorf("%w: %s: %w", models.ErrIO, source, err)
	}
	return records, nil
}

// parseTags decodes a JSON array of strings. ok is false when the value is absent or null.
func parseTags(raw []byte) ([]string, bool, error) {
	if isNull(raw) {
		return nil, false, nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, false, fmt.Errorf("invalid tags %s: %w", truncateRaw(raw), err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, true, nil
}

// parseID accepts integer ids and integral floats such as 1.0.
func parseID(raw []byte) (int64, bool) {
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func isNull(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func truncateRaw(raw []byte) string {
	const max = 80
	if len(raw) <= max {
		return string(raw)
	}
	return string(raw[:max-3]) + "..."
}
